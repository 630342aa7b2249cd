// Package guardrails holds cross cutting safety helpers for harvest
package guardrails

import (
	"context"
	"time"
)

// Timeouts is an optional budget bundle for a single hour of work.
// Zero values mean no extra timeout at that level
type Timeouts struct {
	// Hour is the overall time budget for processing one archive hour
	Hour time.Duration

	// Fetch caps the network fetch step
	Fetch time.Duration

	// Read caps the gzip ndjson read and enrich step
	Read time.Duration

	// DB caps the ledger and insert steps
	DB time.Duration
}

// WithHour returns a context limited by the hour budget without extending any parent deadline
func WithHour(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Hour)
}

// ForFetch returns a sub context for the fetch phase
func ForFetch(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Fetch)
}

// ForRead returns a sub context for the read phase
func ForRead(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Read)
}

// ForDB returns a sub context for the db phase
func ForDB(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.DB)
}

// Remaining returns the time until the deadline on ctx, zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		d := time.Until(dl)
		if d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout chooses the tighter of the requested duration and any parent remainder.
// Never extends the parent deadline.
// When d is zero it returns a cancelable child inheriting the parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
