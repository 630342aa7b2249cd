// Package modkit provides module wiring and core deps
package modkit

import (
	"pkgpulse/internal/modkit/repokit"
	"pkgpulse/internal/platform/config"
	"pkgpulse/internal/platform/logger"
	"pkgpulse/internal/platform/store"
)

// Deps holds core dependencies passed to modules.
// This is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}
