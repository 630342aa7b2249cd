package store

import (
	"context"
	"errors"
	"time"

	"pkgpulse/internal/platform/logger"
	"pkgpulse/internal/platform/store/ch"
)

// newCHAdapter wraps an existing *ch.CH behind the store.Clickhouse seam
func newCHAdapter(c *ch.CH, log logger.Logger, logSQL bool) *clickhouseAdapter {
	return &clickhouseAdapter{inner: c, log: log.With().Str("component", "ch").Logger(), logSQL: logSQL}
}

type clickhouseAdapter struct {
	inner  *ch.CH
	log    logger.Logger
	logSQL bool
}

var _ Clickhouse = (*clickhouseAdapter)(nil)

func (a *clickhouseAdapter) Exec(ctx context.Context, sql string, args ...any) error {
	start := time.Now()
	err := a.inner.Exec(ctx, sql, args...)
	a.emit(sql, 0, start, err)
	return err
}

func (a *clickhouseAdapter) Insert(ctx context.Context, insertSQL string, rows [][]any) error {
	start := time.Now()
	err := a.inner.Insert(ctx, insertSQL, rows)
	a.emit(insertSQL, len(rows), start, err)
	return err
}

func (a *clickhouseAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	r, err := a.inner.Query(ctx, sql, args...)
	a.emit(sql, 0, start, err)
	if err != nil {
		return nil, err
	}
	return &chRowsAdapter{r: r}, nil
}

func (a *clickhouseAdapter) Close() error { return a.inner.Close() }

// Ping verifies connectivity with ClickHouse
func (a *clickhouseAdapter) Ping(ctx context.Context) error {
	if a == nil || a.inner == nil {
		return errors.New("store: nil clickhouse adapter")
	}
	return a.inner.Ping(ctx)
}

func (a *clickhouseAdapter) emit(sql string, batchRows int, start time.Time, err error) {
	if !a.logSQL {
		return
	}
	evt := a.log.Debug()
	if err != nil {
		evt = a.log.Warn()
	}
	evt.Float64("elapsed_ms", float64(time.Since(start).Microseconds())/1000.0).
		Int("batch_rows", batchRows).
		Str("sql", sql).
		Err(err).
		Msg("ch query")
}

// chRowsAdapter wraps ch.Rows as store.Rows
type chRowsAdapter struct {
	r ch.Rows
}

func (r *chRowsAdapter) Next() bool             { return r.r.Next() }
func (r *chRowsAdapter) Scan(dest ...any) error { return r.r.Scan(dest...) }
func (r *chRowsAdapter) Err() error             { return r.r.Err() }
func (r *chRowsAdapter) Close()                 { _ = r.r.Close() }
func (r *chRowsAdapter) Columns() []string      { return r.r.Columns() }
