// Package repo provides storage access for harvest: a Postgres hour
// ledger and a ClickHouse event writer
package repo

import (
	"context"
	"fmt"
	"time"

	"pkgpulse/internal/modkit/repokit"
	"pkgpulse/internal/services/harvest/domain"
)

type (
	// PG is a Postgres binder for domain.LedgerRepo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a Postgres binder for domain.LedgerRepo
func NewPG() repokit.Binder[domain.LedgerRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.LedgerRepo { return &queries{q: q} }

// EnsureLedger creates the ledger and lease tables when missing
func EnsureLedger(ctx context.Context, db repokit.TxRunner) error {
	return db.Tx(ctx, func(q repokit.Queryer) error {
		if _, err := q.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS harvest_hours (
				hour_utc           timestamptz PRIMARY KEY,
				status             text NOT NULL DEFAULT 'pending',
				started_at         timestamptz,
				finished_at        timestamptz,
				cache_hit          boolean NOT NULL DEFAULT false,
				bytes_uncompressed bigint  NOT NULL DEFAULT 0,
				events_scanned     integer NOT NULL DEFAULT 0,
				events_skipped     integer NOT NULL DEFAULT 0,
				events_matched     integer NOT NULL DEFAULT 0,
				inserted           integer NOT NULL DEFAULT 0,
				fetch_ms           integer NOT NULL DEFAULT 0,
				read_ms            integer NOT NULL DEFAULT 0,
				db_ms              integer NOT NULL DEFAULT 0,
				elapsed_ms         integer NOT NULL DEFAULT 0,
				error              text
			)
		`); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `
			CREATE INDEX IF NOT EXISTS ix_harvest_hours_status
			ON harvest_hours (status, hour_utc)
		`); err != nil {
			return err
		}
		_, err := q.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS harvest_hour_leases (
				hour_utc   timestamptz PRIMARY KEY,
				claimed_at timestamptz NOT NULL DEFAULT now()
			)
		`)
		return err
	})
}

// PreseedHours inserts pending rows for every hour in [start, end].
// Existing rows are left alone so completed hours keep their status
func (r *queries) PreseedHours(ctx context.Context, start, end time.Time) (int, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO harvest_hours (hour_utc, status)
		SELECT gs, 'pending'
		FROM generate_series($1::timestamptz, $2::timestamptz, interval '1 hour') gs
		ON CONFLICT (hour_utc) DO NOTHING
	`, start.UTC(), end.UTC())
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// claimSQL flips one claimable hour to running and returns it.
// SKIP LOCKED keeps concurrent workers from fighting over the same row
const claimSQL = `
	UPDATE harvest_hours SET status = 'running', started_at = now()
	WHERE hour_utc = (
		SELECT hour_utc FROM harvest_hours
		WHERE status IN (%s) %s
		ORDER BY hour_utc
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	)
	RETURNING hour_utc
`

// NextHourToProcess claims one pending hour inside the range.
// Hours already marked error stay put so a single run visits each hour
// at most once; RunResume picks errored hours back up
func (r *queries) NextHourToProcess(ctx context.Context, start, end time.Time) (time.Time, bool, error) {
	return r.claim(ctx, "'pending'", "AND hour_utc BETWEEN $1 AND $2", start.UTC(), end.UTC())
}

// NextHourToProcessAny claims one pending or errored hour anywhere in the ledger
func (r *queries) NextHourToProcessAny(ctx context.Context) (time.Time, bool, error) {
	return r.claim(ctx, "'pending', 'error'", "")
}

func (r *queries) claim(ctx context.Context, statuses, bound string, args ...any) (time.Time, bool, error) {
	rows, err := r.q.Query(ctx, fmt.Sprintf(claimSQL, statuses, bound), args...)
	if err != nil {
		return time.Time{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return time.Time{}, false, rows.Err()
	}
	var hr time.Time
	if err := rows.Scan(&hr); err != nil {
		return time.Time{}, false, err
	}
	return hr.UTC(), true, rows.Err()
}

// StartHour marks the start of a harvest hour (idempotent)
func (r *queries) StartHour(ctx context.Context, hour time.Time) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO harvest_hours (hour_utc, started_at, status)
		VALUES ($1, now(), 'running')
		ON CONFLICT (hour_utc) DO UPDATE
		SET started_at = now(), status = 'running', error = null, finished_at = null
	`, hour.UTC())
	return err
}

// FinishHour marks the end of a harvest hour (idempotent)
func (r *queries) FinishHour(ctx context.Context, hour time.Time, fin domain.HourFinish) error {
	_, err := r.q.Exec(ctx, `
		UPDATE harvest_hours SET
			finished_at = now(),
			status = $2,
			cache_hit = $3,
			bytes_uncompressed = $4,
			events_scanned = $5,
			events_skipped = $6,
			events_matched = $7,
			inserted = $8,
			fetch_ms = $9,
			read_ms = $10,
			db_ms = $11,
			elapsed_ms = $12,
			error = NULLIF($13, '')
		WHERE hour_utc = $1
	`,
		hour.UTC(), fin.Status, fin.CacheHit, fin.BytesUncompressed,
		fin.Events, fin.Skipped, fin.Matched, fin.Inserted,
		fin.FetchMS, fin.ReadMS, fin.DBMS, fin.ElapsedMS, fin.ErrText,
	)
	return err
}

// Summary reports ledger state over [start, end]
func (r *queries) Summary(ctx context.Context, start, end time.Time) (domain.RangeSummary, error) {
	var s domain.RangeSummary
	rows, err := r.q.Query(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'pending'),
			count(*) FILTER (WHERE status = 'running'),
			count(*) FILTER (WHERE status = 'ok'),
			count(*) FILTER (WHERE status = 'error'),
			COALESCE(sum(events_scanned), 0),
			COALESCE(sum(events_matched), 0)
		FROM harvest_hours
		WHERE hour_utc BETWEEN $1 AND $2
	`, start.UTC(), end.UTC())
	if err != nil {
		return s, err
	}
	defer rows.Close()
	if !rows.Next() {
		return s, rows.Err()
	}
	if err := rows.Scan(&s.Total, &s.Pending, &s.Running, &s.OK, &s.Errored, &s.Events, &s.Matched); err != nil {
		return s, err
	}
	return s, rows.Err()
}
