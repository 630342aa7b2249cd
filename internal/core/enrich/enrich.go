// Package enrich turns raw archive envelopes into the flat rows the
// analytical store ingests
package enrich

import (
	"strings"
	"time"

	"pkgpulse/internal/adapters/ingest/gharchive"
	"pkgpulse/internal/core/tracked"
)

// Event is one loadable row. Timestamps are UTC and the derived time
// columns are precomputed at enrich time so aggregates never re-derive them
type Event struct {
	EventID    string
	EventType  string
	RepoName   string
	RepoOwner  string
	Package    string
	ActorLogin string
	CreatedAt  time.Time
	HourOfDay  uint8
	Weekday    uint8 // ISO, 1 = Monday .. 7 = Sunday
}

// FromEnvelope validates and enriches one envelope against the allowlist.
// Returns false when the event is untracked or structurally unusable
func FromEnvelope(env gharchive.EventEnvelope, set *tracked.Set) (Event, bool) {
	if env.ID == "" || env.Type == "" || env.Repo.Name == "" || env.CreatedAt.IsZero() {
		return Event{}, false
	}
	pkg, ok := set.Match(env.Repo.Name)
	if !ok {
		return Event{}, false
	}

	owner, _, _ := strings.Cut(env.Repo.Name, "/")
	ts := env.CreatedAt.UTC()

	return Event{
		EventID:    env.ID,
		EventType:  env.Type,
		RepoName:   env.Repo.Name,
		RepoOwner:  owner,
		Package:    pkg.Label,
		ActorLogin: env.Actor.Login,
		CreatedAt:  ts,
		HourOfDay:  uint8(ts.Hour()),
		Weekday:    isoWeekday(ts),
	}, true
}

// isoWeekday maps Go's Sunday-first weekday to ISO 8601 numbering
func isoWeekday(t time.Time) uint8 {
	wd := uint8(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
