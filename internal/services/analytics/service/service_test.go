package service

import (
	"context"
	"testing"
	"time"

	perr "pkgpulse/internal/platform/errors"
	"pkgpulse/internal/services/analytics/domain"
)

// fakeReader serves canned aggregates
type fakeReader struct {
	overview  domain.Overview
	byType    []domain.TypeCount
	byPkg     []domain.PackageCount
	heatmap   []domain.HeatmapCell
	actors    []domain.ActorCount
	err       error
	topLimits []int
}

func (f *fakeReader) Overview(context.Context, domain.Window) (domain.Overview, error) {
	return f.overview, f.err
}

func (f *fakeReader) ByEventType(context.Context, domain.Window) ([]domain.TypeCount, error) {
	return f.byType, nil
}

func (f *fakeReader) ByPackage(context.Context, domain.Window) ([]domain.PackageCount, error) {
	return f.byPkg, nil
}

func (f *fakeReader) Heatmap(context.Context, domain.Window) ([]domain.HeatmapCell, error) {
	return f.heatmap, nil
}

func (f *fakeReader) TopActors(_ context.Context, _ domain.Window, limit int) ([]domain.ActorCount, error) {
	f.topLimits = append(f.topLimits, limit)
	return f.actors, nil
}

func consistentReader() *fakeReader {
	return &fakeReader{
		overview: domain.Overview{
			TotalEvents: 100,
			Packages:    2,
			FirstEvent:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			LastEvent:   time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC),
		},
		byType: []domain.TypeCount{
			{EventType: "PushEvent", Events: 60},
			{EventType: "WatchEvent", Events: 40},
		},
		byPkg: []domain.PackageCount{
			{Package: "pandas", Events: 70},
			{Package: "numpy", Events: 30},
		},
		heatmap: []domain.HeatmapCell{
			{Weekday: 5, Hour: 12, Events: 100},
		},
		actors: []domain.ActorCount{{ActorLogin: "octocat", Events: 9}},
	}
}

func TestAggregateBundlesEverything(t *testing.T) {
	f := consistentReader()
	svc := New(f, Config{TopN: 5})

	rep, err := svc.Aggregate(context.Background(), domain.Window{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if rep.Overview.TotalEvents != 100 {
		t.Fatalf("total = %d", rep.Overview.TotalEvents)
	}
	if len(rep.ByType) != 2 || len(rep.ByPackage) != 2 || len(rep.Heatmap) != 1 {
		t.Fatalf("report shape: %+v", rep)
	}
	if rep.GeneratedAt.IsZero() {
		t.Fatal("GeneratedAt not set")
	}
	if len(f.topLimits) != 1 || f.topLimits[0] != 5 {
		t.Fatalf("top limit = %v, want [5]", f.topLimits)
	}
}

func TestAggregateRejectsLossyTypeBuckets(t *testing.T) {
	f := consistentReader()
	f.byType = f.byType[:1] // drop 40 events
	svc := New(f, Config{})

	_, err := svc.Aggregate(context.Background(), domain.Window{})
	if err == nil {
		t.Fatal("want conservation error")
	}
	if !perr.IsCode(err, perr.ErrorCodeUnknown) {
		t.Fatalf("code = %v", perr.CodeOf(err))
	}
}

func TestAggregateRejectsLossyHeatmap(t *testing.T) {
	f := consistentReader()
	f.heatmap = []domain.HeatmapCell{{Weekday: 5, Hour: 12, Events: 99}}
	svc := New(f, Config{})

	if _, err := svc.Aggregate(context.Background(), domain.Window{}); err == nil {
		t.Fatal("want conservation error")
	}
}

func TestAggregateEmptyCorpusIsConsistent(t *testing.T) {
	svc := New(&fakeReader{}, Config{})
	rep, err := svc.Aggregate(context.Background(), domain.Window{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if rep.Overview.TotalEvents != 0 || len(rep.ByType) != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestTopActorsDefaultsLimit(t *testing.T) {
	f := consistentReader()
	svc := New(f, Config{})

	if _, err := svc.TopActors(context.Background(), domain.Window{}, 0); err != nil {
		t.Fatalf("TopActors: %v", err)
	}
	if len(f.topLimits) != 1 || f.topLimits[0] != 20 {
		t.Fatalf("top limit = %v, want [20]", f.topLimits)
	}
}
