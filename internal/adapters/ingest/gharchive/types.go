package gharchive

import (
	"encoding/json"
	"fmt"
	"time"
)

// HourRef identifies a GH Archive hour (UTC).
type HourRef struct {
	Year  int
	Month int
	Day   int
	Hour  int
}

// NewHourRef creates an HourRef from calendar components
func NewHourRef(year, month, day, hour int) HourRef {
	return HourRef{Year: year, Month: month, Day: day, Hour: hour}
}

// HourRefOf creates an HourRef from a time.Time, converting to UTC
func HourRefOf(t time.Time) HourRef {
	ut := t.UTC()
	return HourRef{Year: ut.Year(), Month: int(ut.Month()), Day: ut.Day(), Hour: ut.Hour()}
}

// UTC returns the hour as a time.Time
func (h HourRef) UTC() time.Time {
	return time.Date(h.Year, time.Month(h.Month), h.Day, h.Hour, 0, 0, 0, time.UTC)
}

// String returns the hour in GH Archive format: YYYY-MM-DD-H
func (h HourRef) String() string {
	// Matches GH Archive naming: YYYY-MM-DD-H.json.gz (hour not zero padded)
	return fmt.Sprintf("%04d-%02d-%02d-%d", h.Year, h.Month, h.Day, h.Hour)
}

// EventEnvelope is the outer event format GH Archive stores per line.
// Payload stays raw; this pipeline never decodes type-specific payloads
type EventEnvelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Actor     Actor           `json:"actor"`
	Repo      Repo            `json:"repo"`
	Payload   json.RawMessage `json:"payload"`
	Public    bool            `json:"public"`
	CreatedAt time.Time       `json:"created_at"`
}

// Actor is the user who triggered the event
type Actor struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// Repo is the repository the event occurred in
type Repo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"` // owner/name
}
