package guardrails

import (
	"context"
	"errors"
	"time"

	"pkgpulse/internal/modkit"
	"pkgpulse/internal/platform/store"
)

// ErrLeaseHeld signals another worker owns the hour already
var ErrLeaseHeld = errors.New("harvest: hour lease already held")

// MakeAdvisoryLease returns a function that claims an hour via the
// harvest_hour_leases table before running do. When the hour is already
// claimed it returns ErrLeaseHeld so the caller can skip cleanly.
// The claim is one shot, there is no release. This keeps multiple harvest
// instances from processing the same hour concurrently
func MakeAdvisoryLease(
	deps modkit.Deps,
) func(ctx context.Context, hour time.Time, do func(context.Context) error) error {
	return func(ctx context.Context, hour time.Time, do func(context.Context) error) error {
		var claimed bool
		err := deps.PG.Tx(ctx, func(q store.RowQuerier) error {
			rows, err := q.Query(ctx, `
				INSERT INTO harvest_hour_leases (hour_utc)
				VALUES ($1)
				ON CONFLICT (hour_utc) DO NOTHING
				RETURNING true
			`, hour.UTC())
			if err != nil {
				return err
			}
			defer rows.Close()
			if rows.Next() {
				claimed = true
			}
			return nil
		})
		if err != nil {
			return err
		}
		if !claimed {
			return ErrLeaseHeld
		}
		return do(ctx)
	}
}
