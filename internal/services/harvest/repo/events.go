package repo

import (
	"context"

	"pkgpulse/internal/platform/store"
	"pkgpulse/internal/services/harvest/domain"
)

// gh_events is keyed by event_id; ReplacingMergeTree collapses replayed
// rows so a re-harvested hour never double counts after merges. The
// ledger already skips ok hours, this is the safety net underneath it
const ddlEvents = `
	CREATE TABLE IF NOT EXISTS gh_events (
		event_id    String,
		event_type  LowCardinality(String),
		repo_name   String,
		repo_owner  LowCardinality(String),
		package     LowCardinality(String),
		actor_login String,
		created_at  DateTime('UTC'),
		hour_of_day UInt8,
		weekday     UInt8,
		ingested_at DateTime('UTC') DEFAULT now()
	)
	ENGINE = ReplacingMergeTree(ingested_at)
	PARTITION BY toYYYYMMDD(created_at)
	ORDER BY event_id
`

const insertEventsSQL = `
	INSERT INTO gh_events (
		event_id, event_type, repo_name, repo_owner, package,
		actor_login, created_at, hour_of_day, weekday
	)
`

// Events writes enriched rows into ClickHouse
type Events struct {
	ch store.Clickhouse
}

// NewEvents returns a domain.EventWriter over the ClickHouse seam
func NewEvents(ch store.Clickhouse) *Events { return &Events{ch: ch} }

// EnsureTables creates the events table when missing
func (e *Events) EnsureTables(ctx context.Context) error {
	return e.ch.Exec(ctx, ddlEvents)
}

// InsertEvents appends one batch. Returns the number of rows sent
func (e *Events) InsertEvents(ctx context.Context, evs []domain.Event) (int, error) {
	if len(evs) == 0 {
		return 0, nil
	}
	rows := make([][]any, 0, len(evs))
	for _, ev := range evs {
		rows = append(rows, []any{
			ev.EventID, ev.EventType, ev.RepoName, ev.RepoOwner, ev.Package,
			ev.ActorLogin, ev.CreatedAt, ev.HourOfDay, ev.Weekday,
		})
	}
	if err := e.ch.Insert(ctx, insertEventsSQL, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
