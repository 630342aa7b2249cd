// Package pg provides a Postgres client using pgxpool with optional query tracing
package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures pgxpool
type Config struct {
	URL      string
	MaxConns int32
	SlowMs   int
}

// PG is a postgres client with pool and optional tracer
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	SlowMs int
}

var newPool = pgxpool.NewWithConfig

// Open creates a new PG client with the given config and optional tracer
func Open(ctx context.Context, cfg Config, tracer QueryTracer) (*PG, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &PG{
		Pool:   pool,
		Tracer: tracer,
		SlowMs: cfg.SlowMs,
	}, nil
}

// Close closes the pool
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
