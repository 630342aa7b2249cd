// Package service contains analytics workflows
package service

import (
	"context"
	"time"

	perr "pkgpulse/internal/platform/errors"
	"pkgpulse/internal/platform/logger"
	"pkgpulse/internal/services/analytics/domain"
)

// Config holds configuration options for the analytics service
type Config struct {
	// TopN caps the actor leaderboard; <=0 -> 20
	TopN int
}

// Svc implements the analytics service
type Svc struct {
	Repo domain.ReaderPort
	Cfg  Config
}

// New constructs an analytics service
func New(repo domain.ReaderPort, cfg Config) *Svc {
	if repo == nil {
		panic("analytics.Service requires a non nil ReaderPort")
	}
	return &Svc{Repo: repo, Cfg: cfg}
}

// Overview returns corpus totals for the window
func (s *Svc) Overview(ctx context.Context, w domain.Window) (domain.Overview, error) {
	return s.Repo.Overview(ctx, w)
}

// ByEventType returns event type buckets for the window
func (s *Svc) ByEventType(ctx context.Context, w domain.Window) ([]domain.TypeCount, error) {
	return s.Repo.ByEventType(ctx, w)
}

// ByPackage returns tracked package buckets for the window
func (s *Svc) ByPackage(ctx context.Context, w domain.Window) ([]domain.PackageCount, error) {
	return s.Repo.ByPackage(ctx, w)
}

// Heatmap returns weekday by hour buckets for the window
func (s *Svc) Heatmap(ctx context.Context, w domain.Window) ([]domain.HeatmapCell, error) {
	return s.Repo.Heatmap(ctx, w)
}

// TopActors returns the actor leaderboard for the window
func (s *Svc) TopActors(ctx context.Context, w domain.Window, limit int) ([]domain.ActorCount, error) {
	if limit <= 0 {
		limit = s.topN()
	}
	return s.Repo.TopActors(ctx, w, limit)
}

// Aggregate runs every fixed aggregate and cross checks the totals.
// Each grouping must account for exactly the overview total, a mismatch
// means the store returned an inconsistent snapshot
func (s *Svc) Aggregate(ctx context.Context, w domain.Window) (domain.Report, error) {
	rep := domain.Report{Window: w, GeneratedAt: time.Now().UTC()}

	ov, err := s.Repo.Overview(ctx, w)
	if err != nil {
		return rep, err
	}
	rep.Overview = ov

	if rep.ByType, err = s.Repo.ByEventType(ctx, w); err != nil {
		return rep, err
	}
	if rep.ByPackage, err = s.Repo.ByPackage(ctx, w); err != nil {
		return rep, err
	}
	if rep.Heatmap, err = s.Repo.Heatmap(ctx, w); err != nil {
		return rep, err
	}
	if rep.TopActors, err = s.Repo.TopActors(ctx, w, s.topN()); err != nil {
		return rep, err
	}

	if err := checkConservation(rep); err != nil {
		return rep, err
	}

	logger.C(ctx).Info().
		Int64("events", ov.TotalEvents).
		Int("types", len(rep.ByType)).
		Int("packages", len(rep.ByPackage)).
		Msg("analytics: aggregates computed")
	return rep, nil
}

func (s *Svc) topN() int {
	if s.Cfg.TopN > 0 {
		return s.Cfg.TopN
	}
	return 20
}

// checkConservation verifies each full grouping sums to the overview total
func checkConservation(rep domain.Report) error {
	var byType, byPkg, byCell int64
	for _, t := range rep.ByType {
		byType += t.Events
	}
	for _, p := range rep.ByPackage {
		byPkg += p.Events
	}
	for _, c := range rep.Heatmap {
		byCell += c.Events
	}
	total := rep.Overview.TotalEvents
	if byType != total {
		return perr.Internalf("analytics: type buckets sum to %d, overview says %d", byType, total)
	}
	if byPkg != total {
		return perr.Internalf("analytics: package buckets sum to %d, overview says %d", byPkg, total)
	}
	if byCell != total {
		return perr.Internalf("analytics: heatmap cells sum to %d, overview says %d", byCell, total)
	}
	return nil
}
