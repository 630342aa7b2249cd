// Package repo provides ClickHouse access for analytics reads
package repo

import (
	"context"
	"time"

	"pkgpulse/internal/platform/store"
	"pkgpulse/internal/services/analytics/domain"
)

// CH implements domain.ReaderPort over the ClickHouse seam.
// Every query reads gh_events FINAL so replayed hours never double count
type CH struct {
	ch store.Clickhouse
}

// NewCH returns a ClickHouse backed reader
func NewCH(ch store.Clickhouse) *CH { return &CH{ch: ch} }

// windowClause builds the optional created_at bound. The window is half
// open [Start, End) so adjacent windows never count the same event twice.
// ClickHouse positional args bind in order
func windowClause(w domain.Window) (string, []any) {
	switch {
	case w.IsZero():
		return "", nil
	case w.Start.IsZero():
		return "WHERE created_at < ?", []any{w.End.UTC()}
	case w.End.IsZero():
		return "WHERE created_at >= ?", []any{w.Start.UTC()}
	default:
		return "WHERE created_at >= ? AND created_at < ?", []any{w.Start.UTC(), w.End.UTC()}
	}
}

// Overview summarizes the corpus in the window
func (r *CH) Overview(ctx context.Context, w domain.Window) (domain.Overview, error) {
	where, args := windowClause(w)
	rows, err := r.ch.Query(ctx, `
		SELECT
			count() AS total,
			uniqExact(package) AS packages,
			uniqExact(repo_name) AS repos,
			uniqExact(actor_login) AS actors,
			uniqExact(event_type) AS event_types,
			min(created_at) AS first_event,
			max(created_at) AS last_event
		FROM gh_events FINAL
	`+where, args...)
	if err != nil {
		return domain.Overview{}, err
	}
	defer rows.Close()

	var o domain.Overview
	if !rows.Next() {
		return o, rows.Err()
	}
	var total, packages, repos, actors, types uint64
	var first, last time.Time
	if err := rows.Scan(&total, &packages, &repos, &actors, &types, &first, &last); err != nil {
		return o, err
	}
	o.TotalEvents = int64(total)
	o.Packages = int64(packages)
	o.Repos = int64(repos)
	o.Actors = int64(actors)
	o.EventTypes = int64(types)
	// min/max over an empty set come back as epoch zeros
	if total > 0 {
		o.FirstEvent = first.UTC()
		o.LastEvent = last.UTC()
	}
	return o, rows.Err()
}

// ByEventType buckets events by type, busiest first
func (r *CH) ByEventType(ctx context.Context, w domain.Window) ([]domain.TypeCount, error) {
	where, args := windowClause(w)
	rows, err := r.ch.Query(ctx, `
		SELECT event_type, count() AS events
		FROM gh_events FINAL
	`+where+`
		GROUP BY event_type
		ORDER BY events DESC, event_type ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TypeCount
	for rows.Next() {
		var tc domain.TypeCount
		var n uint64
		if err := rows.Scan(&tc.EventType, &n); err != nil {
			return nil, err
		}
		tc.Events = int64(n)
		out = append(out, tc)
	}
	return out, rows.Err()
}

// ByPackage buckets events by tracked package, busiest first
func (r *CH) ByPackage(ctx context.Context, w domain.Window) ([]domain.PackageCount, error) {
	where, args := windowClause(w)
	rows, err := r.ch.Query(ctx, `
		SELECT package, count() AS events
		FROM gh_events FINAL
	`+where+`
		GROUP BY package
		ORDER BY events DESC, package ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PackageCount
	for rows.Next() {
		var pc domain.PackageCount
		var n uint64
		if err := rows.Scan(&pc.Package, &n); err != nil {
			return nil, err
		}
		pc.Events = int64(n)
		out = append(out, pc)
	}
	return out, rows.Err()
}

// Heatmap buckets events by ISO weekday and hour of day
func (r *CH) Heatmap(ctx context.Context, w domain.Window) ([]domain.HeatmapCell, error) {
	where, args := windowClause(w)
	rows, err := r.ch.Query(ctx, `
		SELECT weekday, hour_of_day, count() AS events
		FROM gh_events FINAL
	`+where+`
		GROUP BY weekday, hour_of_day
		ORDER BY weekday ASC, hour_of_day ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HeatmapCell
	for rows.Next() {
		var c domain.HeatmapCell
		var n uint64
		if err := rows.Scan(&c.Weekday, &c.Hour, &n); err != nil {
			return nil, err
		}
		c.Events = int64(n)
		out = append(out, c)
	}
	return out, rows.Err()
}

// TopActors lists the most active actor logins, empty logins excluded
func (r *CH) TopActors(ctx context.Context, w domain.Window, limit int) ([]domain.ActorCount, error) {
	if limit <= 0 {
		limit = 20
	}
	where, args := windowClause(w)
	if where == "" {
		where = "WHERE actor_login != ''"
	} else {
		where += " AND actor_login != ''"
	}
	args = append(args, limit)
	rows, err := r.ch.Query(ctx, `
		SELECT actor_login, count() AS events
		FROM gh_events FINAL
	`+where+`
		GROUP BY actor_login
		ORDER BY events DESC, actor_login ASC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ActorCount
	for rows.Next() {
		var ac domain.ActorCount
		var n uint64
		if err := rows.Scan(&ac.ActorLogin, &n); err != nil {
			return nil, err
		}
		ac.Events = int64(n)
		out = append(out, ac)
	}
	return out, rows.Err()
}
