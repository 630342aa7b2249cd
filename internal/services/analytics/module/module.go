// Package module provides the analytics module implementation
package module

import (
	"pkgpulse/internal/modkit"
	"pkgpulse/internal/services/analytics/domain"
	"pkgpulse/internal/services/analytics/repo"
	"pkgpulse/internal/services/analytics/service"
)

// Ports defines the analytics module ports
type Ports struct {
	Reader domain.ServicePort
}

// Module implements the analytics module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the analytics module
func New(deps modkit.Deps) *Module {
	topN := deps.Cfg.Prefix("REPORT_").MayInt("TOP_N", 20)

	svc := service.New(repo.NewCH(deps.CH), service.Config{TopN: topN})

	m := &Module{deps: deps}
	m.ports = Ports{Reader: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "analytics" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Prefix returns the module prefix (none)
func (m *Module) Prefix() string { return "" }

// MountRoutes is a no-op as analytics has no routes
func (m *Module) MountRoutes(_ any) {}
