// Package module provides the pipeline module implementation
package module

import (
	"pkgpulse/internal/modkit"
	andom "pkgpulse/internal/services/analytics/domain"
	hdom "pkgpulse/internal/services/harvest/domain"
	"pkgpulse/internal/services/pipeline/domain"
	"pkgpulse/internal/services/pipeline/service"
	rdom "pkgpulse/internal/services/report/domain"
)

// Ports defines the pipeline module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the pipeline module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the pipeline module from the already built stage ports
func New(deps modkit.Deps, harvest hdom.RunnerPort, analyzer andom.ServicePort, renderer rdom.RendererPort) *Module {
	svc := service.New(harvest, analyzer, renderer)

	m := &Module{deps: deps}
	m.ports = Ports{Runner: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "pipeline" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Prefix returns the module prefix (none)
func (m *Module) Prefix() string { return "" }

// MountRoutes is a no-op as pipeline has no routes
func (m *Module) MountRoutes(_ any) {}
