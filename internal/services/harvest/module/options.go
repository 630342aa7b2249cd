package module

import (
	"time"

	"pkgpulse/internal/platform/config"
)

// Options holds configuration options for the harvest service
type Options struct {
	DelayPerHour  time.Duration
	Workers       int
	MaxRetries    int
	RetryBase     time.Duration
	FetchTimeout  time.Duration
	ReadTimeout   time.Duration
	MaxRangeHours int
	EnableLeases  bool
	InsertChunk   int
}

// FromConfig reads the harvest options from config with HARVEST_ prefix
func FromConfig(cfg config.Conf) Options {
	hv := cfg.Prefix("HARVEST_")
	return Options{
		DelayPerHour:  hv.MayDuration("DELAY", 0),
		Workers:       hv.MayInt("WORKERS", 4),
		MaxRetries:    hv.MayInt("RETRIES", 3),
		RetryBase:     hv.MayDuration("RETRY_BASE", 500*time.Millisecond),
		FetchTimeout:  hv.MayDuration("FETCH_TIMEOUT", 10*time.Minute),
		ReadTimeout:   hv.MayDuration("READ_TIMEOUT", 10*time.Minute),
		MaxRangeHours: hv.MayInt("MAX_RANGE_HOURS", 0),
		EnableLeases:  hv.MayBool("LEASES", true),
		InsertChunk:   hv.MayInt("INSERT_CHUNK", 5000),
	}
}
