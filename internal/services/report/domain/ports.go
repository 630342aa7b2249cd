// Package domain holds the ports for report rendering
package domain

import (
	"context"

	andom "pkgpulse/internal/services/analytics/domain"
)

// Artifact is one rendered output file
type Artifact struct {
	Name string
	Path string
}

// RendererPort renders chart artifacts for an aggregate report
type RendererPort interface {
	Render(ctx context.Context, rep andom.Report) ([]Artifact, error)
}
