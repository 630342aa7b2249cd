// Package module provides the harvest module implementation
package module

import (
	"context"

	"pkgpulse/internal/core/tracked"
	"pkgpulse/internal/modkit"
	"pkgpulse/internal/services/harvest/domain"
	"pkgpulse/internal/services/harvest/guardrails"
	"pkgpulse/internal/services/harvest/ingest"
	"pkgpulse/internal/services/harvest/repo"
	"pkgpulse/internal/services/harvest/service"
)

// Ports defines the harvest module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the harvest module
type Module struct {
	deps   modkit.Deps
	ports  Ports
	events *repo.Events
}

// New constructs the harvest module.
// It wires up all the adapters and the service using config from deps.Cfg
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	ledgerBinder := repo.NewPG()
	events := repo.NewEvents(deps.CH)

	fetch := ingest.NewFetcher(deps) // uses CORE_INGEST_* from deps.Cfg
	reader := ingest.NewReaderFactory()
	set := trackedFromConfig(deps)

	leaseFn := guardrails.MakeAdvisoryLease(deps)

	svc := service.New(
		deps.PG, ledgerBinder, events,
		fetch, reader, set,
		service.Config{
			DelayPerHour:  opts.DelayPerHour,
			Workers:       opts.Workers,
			MaxRetries:    opts.MaxRetries,
			RetryBase:     opts.RetryBase,
			FetchTimeout:  opts.FetchTimeout,
			ReadTimeout:   opts.ReadTimeout,
			MaxRangeHours: opts.MaxRangeHours,
			EnableLeases:  opts.EnableLeases,
			InsertChunk:   opts.InsertChunk,
		},
		leaseFn,
	)

	m := &Module{deps: deps, events: events}
	m.ports = Ports{Runner: svc}
	return m
}

// trackedFromConfig reads the CORE_TRACKED_REPOS override, falling back
// to the built in allowlist
func trackedFromConfig(deps modkit.Deps) *tracked.Set {
	raw := deps.Cfg.Prefix("CORE_").MayString("TRACKED_REPOS", "")
	if raw == "" {
		return tracked.DefaultSet()
	}
	pkgs, err := tracked.ParseList(raw)
	if err != nil {
		deps.Log.Panic().Err(err).Msg("harvest: bad CORE_TRACKED_REPOS")
	}
	return tracked.NewSet(pkgs)
}

// Migrate creates the ledger and event tables when missing
func (m *Module) Migrate(ctx context.Context) error {
	if err := repo.EnsureLedger(ctx, m.deps.PG); err != nil {
		return err
	}
	return m.events.EnsureTables(ctx)
}

// Name returns the module name
func (m *Module) Name() string { return "harvest" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Prefix returns the module prefix (none)
func (m *Module) Prefix() string { return "" }

// MountRoutes is a no-op as harvest has no routes
func (m *Module) MountRoutes(_ any) {}
