// Package module wires stats into the API
package module

import (
	"github.com/go-chi/chi/v5"

	"pkgpulse/internal/modkit"
	andom "pkgpulse/internal/services/analytics/domain"
	statshttp "pkgpulse/internal/services/api/stats/http"
)

// Ports defines the stats module ports
type Ports struct {
	Reader andom.ServicePort
}

// Module implements the stats module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the stats module over the analytics service port
func New(deps modkit.Deps, reader andom.ServicePort) *Module {
	m := &Module{deps: deps}
	m.ports = Ports{Reader: reader}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "stats" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return "/v1/stats" }

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r any) {
	mux, ok := r.(chi.Router)
	if !ok {
		return
	}
	mux.Route(m.Prefix(), func(rr chi.Router) {
		statshttp.Register(rr, m.ports.Reader)
	})
}
