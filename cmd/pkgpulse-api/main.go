// Command pkgpulse-api serves the stats API over the analytical store
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"pkgpulse/internal/core/version"
	"pkgpulse/internal/modkit"
	"pkgpulse/internal/modkit/module"
	"pkgpulse/internal/platform/config"
	"pkgpulse/internal/platform/logger"
	phttp "pkgpulse/internal/platform/net/http"
	"pkgpulse/internal/platform/net/middleware"
	"pkgpulse/internal/platform/store"

	analyticsmod "pkgpulse/internal/services/analytics/module"
	statsmod "pkgpulse/internal/services/api/stats/module"

	stdhttp "net/http"
)

func main() {
	_ = godotenv.Load()

	root := config.New()
	logger.Init(logger.FromEnv())
	l := logger.Get()

	bi := version.Info("pkgpulse-api")
	l.Info().Str("version", bi.Version).Str("commit", bi.Commit).Msg("pkgpulse-api starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	st, err := store.Open(ctx, store.Config{
		AppName: "pkgpulse-api",
		CH: store.CHConfig{
			Enabled:    true,
			URL:        chCfg.MustString("DBURL"),
			LogSQL:     chCfg.MayBool("LOG_SQL", false),
			ClientName: "pkgpulse",
			ClientTag:  "api",
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{
		Cfg: root,
		CH:  st.CH,
		Log: *l,
	}

	an := analyticsmod.New(deps)
	stats := statsmod.New(deps, an.Ports().(analyticsmod.Ports).Reader)
	module.Register(an.Name(), an.Ports())
	module.Register(stats.Name(), stats.Ports())

	apiCfg := root.Prefix("API_")
	addr := ":" + apiCfg.MayString("PORT", "8080")
	slow := apiCfg.MayDuration("SLOW", 500*time.Millisecond)

	srv := phttp.NewServer(addr, func(mux *chi.Mux) {
		mux.Use(middleware.RequestID)
		mux.Use(middleware.RecoverJSON)
		mux.Use(middleware.AccessLog(middleware.AccessLogOptions{Slow: slow}))
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	})

	srv.Mux().Get("/healthz", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		phttp.RespondOK(w, r, bi)
	})
	stats.MountRoutes(chi.Router(srv.Mux()))

	l.Info().Str("addr", addr).Msg("pkgpulse-api listening")
	if err := srv.Run(ctx); err != nil {
		l.Fatal().Err(err).Msg("server exited")
	}
}
