package config

import (
	"testing"
	"time"

	kit "pkgpulse/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	root := New()
	hv := root.Prefix("HARVEST_")
	if got := hv.key("WORKERS"); got != "HARVEST_WORKERS" {
		t.Fatalf("key() = %q, want %q", got, "HARVEST_WORKERS")
	}
	// nested prefix
	ing := root.Prefix("CORE_").Prefix("INGEST_")
	if got := ing.key("CACHE_DIR"); got != "CORE_INGEST_CACHE_DIR" {
		t.Fatalf("nested key() = %q, want %q", got, "CORE_INGEST_CACHE_DIR")
	}
}

// Must* panics

func TestMustString(t *testing.T) {
	c := New().Prefix("APP_")
	t.Setenv("APP_NAME", "  pkgpulse ")
	if got := c.MustString("NAME"); got != "pkgpulse" {
		t.Fatalf("MustString = %q, want %q", got, "pkgpulse")
	}

	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMustInt(t *testing.T) {
	c := New().Prefix("SVC_")
	t.Setenv("SVC_WORKERS", "  8 ")
	if got := c.MustInt("WORKERS"); got != 8 {
		t.Fatalf("MustInt = %d, want %d", got, 8)
	}
	kit.MustPanic(t, func() { _ = c.MustInt("MISSING") })
	t.Setenv("SVC_BAD", "x")
	kit.MustPanic(t, func() { _ = c.MustInt("BAD") })
}

func TestMustURL(t *testing.T) {
	c := New().Prefix("U_")
	t.Setenv("U_BASE", "https://data.gharchive.org")
	u := c.MustURL("BASE")
	if !u.IsAbs() {
		t.Fatalf("MustURL returned non-absolute URL")
	}
	t.Setenv("U_BAD", "/relative")
	kit.MustPanic(t, func() { _ = c.MustURL("BAD") })
}

func TestMustPort(t *testing.T) {
	c := New().Prefix("API_")
	t.Setenv("API_PORT", "8080")
	if got := c.MustPort("PORT"); got != ":8080" {
		t.Fatalf("MustPort = %q, want %q", got, ":8080")
	}
	t.Setenv("API_BAD", "70000")
	kit.MustPanic(t, func() { _ = c.MustPort("BAD") })
}

// May* defaults

func TestMayString(t *testing.T) {
	c := New().Prefix("M_")
	if got := c.MayString("MISSING", "dflt"); got != "dflt" {
		t.Fatalf("MayString = %q, want default", got)
	}
	t.Setenv("M_SET", " v ")
	if got := c.MayString("SET", "dflt"); got != "v" {
		t.Fatalf("MayString = %q, want %q", got, "v")
	}
}

func TestMayIntFallsBackOnGarbage(t *testing.T) {
	c := New().Prefix("M_")
	if got := c.MayInt("MISSING", 4); got != 4 {
		t.Fatalf("MayInt = %d, want default", got)
	}
	t.Setenv("M_BAD", "four")
	if got := c.MayInt("BAD", 4); got != 4 {
		t.Fatalf("MayInt = %d, want default on garbage", got)
	}
	t.Setenv("M_OK", "12")
	if got := c.MayInt("OK", 4); got != 12 {
		t.Fatalf("MayInt = %d, want 12", got)
	}
}

func TestMayBool(t *testing.T) {
	c := New().Prefix("B_")
	if got := c.MayBool("MISSING", true); !got {
		t.Fatal("MayBool default not honored")
	}
	t.Setenv("B_OFF", "0")
	if got := c.MayBool("OFF", true); got {
		t.Fatal("MayBool(0) = true")
	}
	t.Setenv("B_BAD", "yeah")
	if got := c.MayBool("BAD", true); !got {
		t.Fatal("MayBool garbage must fall back to default")
	}
}

func TestMayDuration(t *testing.T) {
	c := New().Prefix("D_")
	if got := c.MayDuration("MISSING", time.Second); got != time.Second {
		t.Fatalf("MayDuration = %v, want default", got)
	}
	t.Setenv("D_SET", "250ms")
	if got := c.MayDuration("SET", time.Second); got != 250*time.Millisecond {
		t.Fatalf("MayDuration = %v, want 250ms", got)
	}
	t.Setenv("D_BAD", "soon")
	if got := c.MayDuration("BAD", time.Second); got != time.Second {
		t.Fatalf("MayDuration = %v, want default on garbage", got)
	}
}
