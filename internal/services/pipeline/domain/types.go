// Package domain holds the orchestration contracts for the pipeline
package domain

import (
	"context"
	"time"

	andom "pkgpulse/internal/services/analytics/domain"
	rdom "pkgpulse/internal/services/report/domain"
)

// Options selects which stages run
type Options struct {
	// PlanOnly seeds the ledger and stops
	PlanOnly bool

	// Resume drains leftover hours instead of seeding a new range
	Resume bool

	// SkipReport stops after aggregates
	SkipReport bool
}

// StepResult records one completed stage
type StepResult struct {
	Name      string `json:"name"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// Result is the outcome of one pipeline run
type Result struct {
	RunID     string          `json:"run_id"`
	Steps     []StepResult    `json:"steps"`
	Report    andom.Report    `json:"report"`
	Artifacts []rdom.Artifact `json:"artifacts,omitempty"`
}

// RunnerPort is the public pipeline port
type RunnerPort interface {
	Run(ctx context.Context, start, end time.Time, opts Options) (Result, error)
}
