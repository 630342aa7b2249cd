// Package domain holds the core types and ports for harvest
package domain

import (
	"time"

	"pkgpulse/internal/adapters/ingest/gharchive"
	"pkgpulse/internal/core/enrich"
)

// EventEnvelope re-exports the raw archive envelope shape
type EventEnvelope = gharchive.EventEnvelope

// HourRef re-exports the archive hour reference
type HourRef = gharchive.HourRef

// Event re-exports the enriched loadable row
type Event = enrich.Event

// HourStatus values stored in the ledger
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusError   = "error"
)

// HourFinish captures the outcome metrics for one processed hour
type HourFinish struct {
	Status            string
	CacheHit          bool
	BytesUncompressed int64
	Events            int
	Skipped           int
	Matched           int
	Inserted          int
	FetchMS           int
	ReadMS            int
	DBMS              int
	ElapsedMS         int
	ErrText           string
}

// RangeSummary reports ledger state over an hour range
type RangeSummary struct {
	Total   int
	Pending int
	Running int
	OK      int
	Errored int
	Events  int64
	Matched int64
}

// HourWindow truncates both bounds to the hour in UTC
func HourWindow(start, end time.Time) (time.Time, time.Time) {
	return start.Truncate(time.Hour).UTC(), end.Truncate(time.Hour).UTC()
}
