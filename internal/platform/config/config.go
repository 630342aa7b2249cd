// Package config handles application configuration via environment variables
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"pkgpulse/internal/platform/logger"
)

// Conf is a namespaced view over environment variables (e.g. "HARVEST_",
// "SERVICE_PGSQL_"). Use New() for global access, or Prefix for scopes.
type Conf struct{ prefix string }

// New creates a root Conf (no prefix)
func New() Conf { return Conf{} }

// Prefix creates a child Conf with an additional prefix, e.g. cfg.Prefix("API_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// key composes the fully-qualified env var name
func (c Conf) key(k string) string { return c.prefix + k }

// MustString panics if the given key is missing or empty
func (c Conf) MustString(key string) string {
	k := c.key(key)
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		logger.Get().Panic().Str("key", k).Msg("missing required env")
	}
	return v
}

// MustInt panics if the given key is missing, empty, or not an int
func (c Conf) MustInt(key string) int {
	s := strings.TrimSpace(os.Getenv(c.key(key)))
	if s == "" {
		logger.Get().Panic().Str("key", c.key(key)).Msg("missing required env")
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid int value")
	}
	return v
}

// MustURL panics if the given key is missing, empty, or not an absolute URL
func (c Conf) MustURL(key string) *url.URL {
	s := c.MustString(key)
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid absolute URL")
	}
	return u
}

// MustPort returns a net/http addr like ":4000" after validating 1..65535
func (c Conf) MustPort(key string) string {
	s := c.MustString(key)
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid TCP port; expected 1..65535")
	}
	return ":" + s
}

// MayString returns the value or def if missing/empty
func (c Conf) MayString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(c.key(key)))
	if v == "" {
		return def
	}
	return v
}

// MayInt returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayInt(key string, def int) int {
	s := strings.TrimSpace(os.Getenv(c.key(key)))
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Int("default", def).Msg("invalid int; using default")
	return def
}

// MayBool returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayBool(key string, def bool) bool {
	s := strings.TrimSpace(os.Getenv(c.key(key)))
	if s == "" {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Bool("default", def).Msg("invalid bool; using default")
	return def
}

// MayDuration returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	s := strings.TrimSpace(os.Getenv(c.key(key)))
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Dur("default", def).
		Msg("invalid duration; using default (e.g. 250ms, 2s, 1h)")
	return def
}
