package store

import (
	"context"
	"fmt"
	"time"

	chx "pkgpulse/internal/platform/store/ch"
	"pkgpulse/internal/platform/store/pg"
)

// openPG opens pg and wraps it with our sql adapter
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, tracer)
	if err != nil {
		return nil, err
	}

	// Connection guardrails: ping with backoff against the pool directly
	const (
		maxAttempts    = 20
		pingTimeout    = 3 * time.Second
		backoffStart   = 150 * time.Millisecond
		backoffCeiling = 2 * time.Second
	)

	var lastErr error
	backoff := backoffStart
	for i := 0; i < maxAttempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = p.Pool.Ping(toCtx)
		cancel()

		if lastErr == nil {
			// publish the adapter only after the pool is healthy
			return newPGAdapter(p), nil
		}
		if ctx.Err() != nil {
			p.Close()
			return nil, ctx.Err()
		}
		time.Sleep(backoff)
		if backoff < backoffCeiling {
			backoff *= 2
			if backoff > backoffCeiling {
				backoff = backoffCeiling
			}
		}
	}

	p.Close()
	return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", maxAttempts, lastErr)
}

// openCH opens clickhouse and wraps it with the seam adapter
func openCH(ctx context.Context, cfg Config, s *Store) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:        cfg.CH.URL,
		ClientName: cfg.CH.ClientName,
		ClientTag:  cfg.CH.ClientTag,
	})
	if err != nil {
		return nil, err
	}
	a := newCHAdapter(c, s.Log, cfg.CH.LogSQL)
	if err := a.Ping(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("clickhouse ping failed: %w", err)
	}
	return a, nil
}
