package enrich

import (
	"testing"
	"time"

	"pkgpulse/internal/adapters/ingest/gharchive"
	"pkgpulse/internal/core/tracked"
)

func envAt(id, typ, repo string, at time.Time) gharchive.EventEnvelope {
	return gharchive.EventEnvelope{
		ID:        id,
		Type:      typ,
		Actor:     gharchive.Actor{ID: 1, Login: "octocat"},
		Repo:      gharchive.Repo{ID: 42, Name: repo},
		CreatedAt: at,
	}
}

func TestFromEnvelopeEnriches(t *testing.T) {
	set := tracked.DefaultSet()
	// Friday 2024-03-01, 23:30 UTC
	at := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)

	ev, ok := FromEnvelope(envAt("e1", "PushEvent", "pandas-dev/pandas", at), set)
	if !ok {
		t.Fatal("tracked event rejected")
	}
	if ev.Package != "pandas" {
		t.Fatalf("package = %q, want pandas", ev.Package)
	}
	if ev.RepoOwner != "pandas-dev" {
		t.Fatalf("owner = %q", ev.RepoOwner)
	}
	if ev.HourOfDay != 23 {
		t.Fatalf("hour = %d, want 23", ev.HourOfDay)
	}
	if ev.Weekday != 5 {
		t.Fatalf("weekday = %d, want 5 (Friday)", ev.Weekday)
	}
}

func TestFromEnvelopeNormalizesToUTC(t *testing.T) {
	set := tracked.DefaultSet()
	offset := time.FixedZone("UTC+5", 5*3600)
	// Sunday 03:00 local is Saturday 22:00 UTC
	at := time.Date(2024, 3, 3, 3, 0, 0, 0, offset)

	ev, ok := FromEnvelope(envAt("e1", "WatchEvent", "numpy/numpy", at), set)
	if !ok {
		t.Fatal("tracked event rejected")
	}
	if ev.HourOfDay != 22 {
		t.Fatalf("hour = %d, want 22", ev.HourOfDay)
	}
	if ev.Weekday != 6 {
		t.Fatalf("weekday = %d, want 6 (Saturday)", ev.Weekday)
	}
}

func TestFromEnvelopeDropsInvalid(t *testing.T) {
	set := tracked.DefaultSet()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := map[string]gharchive.EventEnvelope{
		"empty id":      envAt("", "PushEvent", "numpy/numpy", at),
		"empty type":    envAt("e1", "", "numpy/numpy", at),
		"empty repo":    envAt("e1", "PushEvent", "", at),
		"zero time":     envAt("e1", "PushEvent", "numpy/numpy", time.Time{}),
		"untracked":     envAt("e1", "PushEvent", "torvalds/linux", at),
		"owner mistake": envAt("e1", "PushEvent", "someone-else/pandas", at),
	}
	for name, env := range cases {
		if _, ok := FromEnvelope(env, set); ok {
			t.Fatalf("%s: accepted", name)
		}
	}
}

func TestIsoWeekdayMapping(t *testing.T) {
	// 2024-03-04 is a Monday
	for i := range 7 {
		d := time.Date(2024, 3, 4+i, 0, 0, 0, 0, time.UTC)
		if got := isoWeekday(d); got != uint8(i+1) {
			t.Fatalf("day %v: weekday = %d, want %d", d.Weekday(), got, i+1)
		}
	}
}
