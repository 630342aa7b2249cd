// Package module provides the report module implementation
package module

import (
	"pkgpulse/internal/modkit"
	"pkgpulse/internal/services/report/domain"
	"pkgpulse/internal/services/report/service"
)

// Ports defines the report module ports
type Ports struct {
	Renderer domain.RendererPort
}

// Module implements the report module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the report module
func New(deps modkit.Deps) *Module {
	rp := deps.Cfg.Prefix("REPORT_")

	svc := service.New(service.Config{
		OutDir:  rp.MayString("OUT_DIR", "reports"),
		MaxBars: rp.MayInt("MAX_BARS", 15),
	})

	m := &Module{deps: deps}
	m.ports = Ports{Renderer: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "report" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Prefix returns the module prefix (none)
func (m *Module) Prefix() string { return "" }

// MountRoutes is a no-op as report has no routes
func (m *Module) MountRoutes(_ any) {}
