// Package service renders chart artifacts from analytics aggregates
package service

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"

	perr "pkgpulse/internal/platform/errors"
	"pkgpulse/internal/platform/logger"
	andom "pkgpulse/internal/services/analytics/domain"
	"pkgpulse/internal/services/report/domain"
)

// Config holds configuration options for the report service
type Config struct {
	// OutDir receives the rendered artifacts
	OutDir string

	// MaxBars caps bar chart categories; <=0 -> 15
	MaxBars int
}

// Svc implements the report service
type Svc struct {
	Cfg Config
}

// New constructs a report service
func New(cfg Config) *Svc {
	if cfg.OutDir == "" {
		cfg.OutDir = "reports"
	}
	if cfg.MaxBars <= 0 {
		cfg.MaxBars = 15
	}
	return &Svc{Cfg: cfg}
}

// Render writes every artifact for the report and returns their paths
func (s *Svc) Render(ctx context.Context, rep andom.Report) ([]domain.Artifact, error) {
	if err := os.MkdirAll(s.Cfg.OutDir, 0o755); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "report: create out dir")
	}

	var out []domain.Artifact
	add := func(name string, render func(path string) error) error {
		path := filepath.Join(s.Cfg.OutDir, name)
		if err := render(path); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnknown, "report: render %s", name)
		}
		out = append(out, domain.Artifact{Name: name, Path: path})
		return nil
	}

	typeBars := make([]chart.Value, 0, len(rep.ByType))
	for _, t := range rep.ByType {
		typeBars = append(typeBars, chart.Value{Label: t.EventType, Value: float64(t.Events)})
	}
	if err := add("event_types.png", func(p string) error {
		return s.renderBars(p, "Events by type", typeBars)
	}); err != nil {
		return out, err
	}

	pkgBars := make([]chart.Value, 0, len(rep.ByPackage))
	for _, pc := range rep.ByPackage {
		pkgBars = append(pkgBars, chart.Value{Label: pc.Package, Value: float64(pc.Events)})
	}
	if err := add("packages.png", func(p string) error {
		return s.renderBars(p, "Events by package", pkgBars)
	}); err != nil {
		return out, err
	}

	actorBars := make([]chart.Value, 0, len(rep.TopActors))
	for _, a := range rep.TopActors {
		actorBars = append(actorBars, chart.Value{Label: a.ActorLogin, Value: float64(a.Events)})
	}
	if err := add("top_actors.png", func(p string) error {
		return s.renderBars(p, "Most active users", actorBars)
	}); err != nil {
		return out, err
	}

	if err := add("activity_heatmap.png", func(p string) error {
		return renderHeatmap(p, rep.Heatmap)
	}); err != nil {
		return out, err
	}

	if err := add("report.json", func(p string) error {
		return writeJSON(p, rep)
	}); err != nil {
		return out, err
	}

	logger.C(ctx).Info().Int("artifacts", len(out)).Str("dir", s.Cfg.OutDir).Msg("report: artifacts rendered")
	return out, nil
}

// renderBars writes one vertical bar chart. Empty input renders a
// placeholder bar so the artifact still exists for empty windows
func (s *Svc) renderBars(path, title string, bars []chart.Value) error {
	if len(bars) > s.Cfg.MaxBars {
		bars = bars[:s.Cfg.MaxBars]
	}
	if len(bars) == 0 {
		bars = []chart.Value{{Label: "no data", Value: 0}}
	}

	c := chart.BarChart{
		Title:    title,
		Width:    1024,
		Height:   512,
		BarWidth: 48,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		Bars: bars,
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Render(chart.PNG, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// renderHeatmap draws the weekday x hour grid as a PNG. Rows are ISO
// weekdays Monday first, columns are UTC hours
func renderHeatmap(path string, cells []andom.HeatmapCell) error {
	const (
		cellW  = 36
		cellH  = 36
		border = 2
		cols   = 24
		rows   = 7
	)

	var maxN int64
	grid := [rows][cols]int64{}
	for _, c := range cells {
		if c.Weekday < 1 || c.Weekday > 7 || c.Hour > 23 {
			continue
		}
		grid[c.Weekday-1][c.Hour] = c.Events
		if c.Events > maxN {
			maxN = c.Events
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, cols*(cellW+border)+border, rows*(cellH+border)+border))
	bg := color.RGBA{R: 248, G: 248, B: 248, A: 255}
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			img.Set(x, y, bg)
		}
	}

	for r := range rows {
		for cl := range cols {
			shade := heatColor(grid[r][cl], maxN)
			x0 := border + cl*(cellW+border)
			y0 := border + r*(cellH+border)
			for y := y0; y < y0+cellH; y++ {
				for x := x0; x < x0+cellW; x++ {
					img.Set(x, y, shade)
				}
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// heatColor maps a count to a white-to-indigo ramp
func heatColor(n, maxN int64) color.RGBA {
	if maxN <= 0 || n <= 0 {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	t := float64(n) / float64(maxN)
	lerp := func(a, b float64) uint8 { return uint8(a + (b-a)*t) }
	return color.RGBA{R: lerp(255, 63), G: lerp(255, 81), B: lerp(255, 181), A: 255}
}

func writeJSON(path string, rep andom.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
