package domain

import (
	"context"
	"io"
	"time"
)

// RunnerPort is the public port exposed by the module
type RunnerPort interface {
	// PlanRange seeds the ledger for the range without processing
	PlanRange(ctx context.Context, start, end time.Time) error

	// RunRange seeds and drains the range with the worker pool
	RunRange(ctx context.Context, start, end time.Time) error

	// RunResume drains any pending or errored hours regardless of range
	RunResume(ctx context.Context) error
}

// LedgerRepo is the Postgres hour ledger
type LedgerRepo interface {
	// PreseedHours inserts pending rows for every hour in [start, end]
	PreseedHours(ctx context.Context, start, end time.Time) (int, error)

	// NextHourToProcess claims one pending hour inside the range.
	// Errored hours are left alone so a single run visits each hour at
	// most once; RunResume reclaims them
	NextHourToProcess(ctx context.Context, start, end time.Time) (time.Time, bool, error)

	// NextHourToProcessAny claims one pending or errored hour anywhere
	NextHourToProcessAny(ctx context.Context) (time.Time, bool, error)

	// StartHour marks the hour running
	StartHour(ctx context.Context, hour time.Time) error

	// FinishHour records the outcome for the hour
	FinishHour(ctx context.Context, hour time.Time, fin HourFinish) error

	// Summary reports ledger state over the range
	Summary(ctx context.Context, start, end time.Time) (RangeSummary, error)
}

// EventWriter loads enriched rows into the analytical store
type EventWriter interface {
	InsertEvents(ctx context.Context, evs []Event) (int, error)
}

// Fetcher retrieves the compressed body for an hour
type Fetcher interface {
	Fetch(ctx context.Context, hr HourRef) (io.ReadCloser, error)
}

// ReaderPort streams envelopes from one hour file
type ReaderPort interface {
	Next() (EventEnvelope, error)
	Close() error
	Stats() (events, skipped int, bytes int64)
}

// ReaderFactory builds a ReaderPort over a compressed body
type ReaderFactory interface {
	New(io.ReadCloser) (ReaderPort, error)
}
