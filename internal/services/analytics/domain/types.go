// Package domain holds the aggregate shapes and ports for analytics
package domain

import "time"

// Window optionally bounds aggregates by created_at. Zero bounds mean
// the whole table
type Window struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the window is unbounded
func (w Window) IsZero() bool { return w.Start.IsZero() && w.End.IsZero() }

// Overview summarizes the loaded corpus
type Overview struct {
	TotalEvents int64     `json:"total_events"`
	Packages    int64     `json:"packages"`
	Repos       int64     `json:"repos"`
	Actors      int64     `json:"actors"`
	EventTypes  int64     `json:"event_types"`
	FirstEvent  time.Time `json:"first_event"`
	LastEvent   time.Time `json:"last_event"`
}

// TypeCount is one event type bucket
type TypeCount struct {
	EventType string `json:"event_type"`
	Events    int64  `json:"events"`
}

// PackageCount is one tracked package bucket
type PackageCount struct {
	Package string `json:"package"`
	Events  int64  `json:"events"`
}

// HeatmapCell is one weekday x hour bucket. Weekday is ISO, 1 = Monday
type HeatmapCell struct {
	Weekday uint8 `json:"weekday"`
	Hour    uint8 `json:"hour"`
	Events  int64 `json:"events"`
}

// ActorCount is one actor bucket
type ActorCount struct {
	ActorLogin string `json:"actor_login"`
	Events     int64  `json:"events"`
}

// Report bundles every fixed aggregate for one window
type Report struct {
	Window      Window         `json:"-"`
	Overview    Overview       `json:"overview"`
	ByType      []TypeCount    `json:"by_type"`
	ByPackage   []PackageCount `json:"by_package"`
	Heatmap     []HeatmapCell  `json:"heatmap"`
	TopActors   []ActorCount   `json:"top_actors"`
	GeneratedAt time.Time      `json:"generated_at"`
}
