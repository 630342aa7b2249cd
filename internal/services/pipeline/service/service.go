// Package service orchestrates harvest, analytics, and report as one run
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pkgpulse/internal/platform/logger"
	andom "pkgpulse/internal/services/analytics/domain"
	hdom "pkgpulse/internal/services/harvest/domain"
	"pkgpulse/internal/services/pipeline/domain"
	rdom "pkgpulse/internal/services/report/domain"
)

// Svc implements the pipeline. Stages run in order and the first
// failure halts the run, the remaining stages are not attempted
type Svc struct {
	Harvest  hdom.RunnerPort
	Analyzer andom.ServicePort
	Renderer rdom.RendererPort
}

// New constructs the pipeline service
func New(harvest hdom.RunnerPort, analyzer andom.ServicePort, renderer rdom.RendererPort) *Svc {
	if harvest == nil {
		panic("pipeline.Service requires a non nil harvest runner")
	}
	if analyzer == nil {
		panic("pipeline.Service requires a non nil analytics port")
	}
	return &Svc{Harvest: harvest, Analyzer: analyzer, Renderer: renderer}
}

// Run executes the pipeline over [start, end]
func (s *Svc) Run(ctx context.Context, start, end time.Time, opts domain.Options) (domain.Result, error) {
	res := domain.Result{RunID: uuid.NewString()}
	ctx = logger.WithRun(ctx, res.RunID)
	log := logger.C(ctx)

	step := func(name string, fn func(context.Context) error) error {
		t0 := time.Now()
		log.Info().Str("step", name).Msg("pipeline: step started")
		err := fn(ctx)
		elapsed := time.Since(t0).Milliseconds()
		res.Steps = append(res.Steps, domain.StepResult{Name: name, ElapsedMS: elapsed})
		if err != nil {
			log.Error().Str("step", name).Int64("elapsed_ms", elapsed).Err(err).Msg("pipeline: step failed")
			return err
		}
		log.Info().Str("step", name).Int64("elapsed_ms", elapsed).Msg("pipeline: step done")
		return nil
	}

	if opts.PlanOnly {
		if err := step("plan", func(c context.Context) error {
			return s.Harvest.PlanRange(c, start, end)
		}); err != nil {
			return res, err
		}
		return res, nil
	}

	if err := step("harvest", func(c context.Context) error {
		if opts.Resume {
			return s.Harvest.RunResume(c)
		}
		return s.Harvest.RunRange(c, start, end)
	}); err != nil {
		return res, err
	}

	// the file for hour H holds events in [H, H+1)
	win := andom.Window{Start: start}
	if !end.IsZero() {
		win.End = end.Add(time.Hour)
	}

	if err := step("analyze", func(c context.Context) error {
		rep, err := s.Analyzer.Aggregate(c, win)
		if err == nil {
			res.Report = rep
		}
		return err
	}); err != nil {
		return res, err
	}

	if opts.SkipReport || s.Renderer == nil {
		return res, nil
	}

	if err := step("report", func(c context.Context) error {
		arts, err := s.Renderer.Render(c, res.Report)
		if err == nil {
			res.Artifacts = arts
		}
		return err
	}); err != nil {
		return res, err
	}

	return res, nil
}
