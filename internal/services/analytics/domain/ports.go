package domain

import "context"

// ReaderPort is the minimal analytical store surface for aggregates
type ReaderPort interface {
	Overview(ctx context.Context, w Window) (Overview, error)
	ByEventType(ctx context.Context, w Window) ([]TypeCount, error)
	ByPackage(ctx context.Context, w Window) ([]PackageCount, error)
	Heatmap(ctx context.Context, w Window) ([]HeatmapCell, error)
	TopActors(ctx context.Context, w Window, limit int) ([]ActorCount, error)
}

// ServicePort is consumed by the pipeline, the reporter, and the api
type ServicePort interface {
	ReaderPort

	// Aggregate runs every fixed aggregate and cross checks the totals
	Aggregate(ctx context.Context, w Window) (Report, error)
}
