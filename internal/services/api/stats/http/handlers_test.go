package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	phttp "pkgpulse/internal/platform/net/http"
	andom "pkgpulse/internal/services/analytics/domain"
)

type fakePort struct {
	lastWindow andom.Window
	lastLimit  int
}

func (f *fakePort) Overview(_ context.Context, w andom.Window) (andom.Overview, error) {
	f.lastWindow = w
	return andom.Overview{TotalEvents: 42, Packages: 3}, nil
}

func (f *fakePort) ByEventType(context.Context, andom.Window) ([]andom.TypeCount, error) {
	return []andom.TypeCount{{EventType: "PushEvent", Events: 40}}, nil
}

func (f *fakePort) ByPackage(context.Context, andom.Window) ([]andom.PackageCount, error) {
	return []andom.PackageCount{{Package: "pandas", Events: 42}}, nil
}

func (f *fakePort) Heatmap(context.Context, andom.Window) ([]andom.HeatmapCell, error) {
	return []andom.HeatmapCell{{Weekday: 1, Hour: 9, Events: 42}}, nil
}

func (f *fakePort) TopActors(_ context.Context, w andom.Window, limit int) ([]andom.ActorCount, error) {
	f.lastWindow = w
	f.lastLimit = limit
	return []andom.ActorCount{{ActorLogin: "octocat", Events: 5}}, nil
}

func (f *fakePort) Aggregate(context.Context, andom.Window) (andom.Report, error) {
	return andom.Report{}, nil
}

func newMux(f *fakePort) chi.Router {
	mux := chi.NewRouter()
	Register(mux, f)
	return mux
}

func TestOverviewEndpoint(t *testing.T) {
	mux := newMux(&fakePort{})

	req := httptest.NewRequest("GET", "/overview", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("data shape: %T", env.Data)
	}
	if data["total_events"] != float64(42) {
		t.Fatalf("total_events = %v", data["total_events"])
	}
}

func TestWindowParsing(t *testing.T) {
	f := &fakePort{}
	mux := newMux(f)

	req := httptest.NewRequest("GET", "/overview?from=2024-03-01&to=2024-03-02T12:00:00Z", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	wantStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	if !f.lastWindow.Start.Equal(wantStart) || !f.lastWindow.End.Equal(wantEnd) {
		t.Fatalf("window = %+v", f.lastWindow)
	}
}

func TestWindowRejectsGarbage(t *testing.T) {
	mux := newMux(&fakePort{})

	for _, target := range []string{
		"/overview?from=yesterday",
		"/packages?from=2024-03-02&to=2024-03-01",
		"/actors?limit=0",
		"/actors?limit=oodles",
	} {
		req := httptest.NewRequest("GET", target, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != 422 {
			t.Fatalf("%s: status = %d, want 422", target, rec.Code)
		}
	}
}

func TestActorsLimitPassthrough(t *testing.T) {
	f := &fakePort{}
	mux := newMux(f)

	req := httptest.NewRequest("GET", "/actors?limit=7", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if f.lastLimit != 7 {
		t.Fatalf("limit = %d, want 7", f.lastLimit)
	}
}

func TestAllRoutesMounted(t *testing.T) {
	mux := newMux(&fakePort{})

	for _, target := range []string{"/overview", "/event-types", "/packages", "/heatmap", "/actors"} {
		req := httptest.NewRequest("GET", target, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != 200 {
			t.Fatalf("%s: status = %d", target, rec.Code)
		}
	}
}
