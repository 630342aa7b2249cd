// Command pkgpulse runs the harvest, analytics, and report pipeline
// over a range of GH Archive hours
package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"

	"pkgpulse/internal/core/version"
	"pkgpulse/internal/modkit"
	"pkgpulse/internal/modkit/module"
	"pkgpulse/internal/platform/config"
	"pkgpulse/internal/platform/logger"
	"pkgpulse/internal/platform/store"

	analyticsmod "pkgpulse/internal/services/analytics/module"
	harvestmod "pkgpulse/internal/services/harvest/module"
	pipedom "pkgpulse/internal/services/pipeline/domain"
	pipelinemod "pkgpulse/internal/services/pipeline/module"
	reportmod "pkgpulse/internal/services/report/module"
)

func main() {
	_ = godotenv.Load()

	root := config.New()
	logger.Init(logger.FromEnv())
	l := logger.Get()

	bi := version.Info("pkgpulse")
	l.Info().Str("version", bi.Version).Str("commit", bi.Commit).Msg("pkgpulse starting")

	var (
		fStart      = flag.String("start", "", "UTC start hour YYYY-MM-DDTHH")
		fEnd        = flag.String("end", "", "UTC end hour YYYY-MM-DDTHH inclusive")
		fPlanOnly   = flag.Bool("plan-only", false, "seed harvest_hours for the range and exit without processing")
		fResume     = flag.Bool("resume", false, "ignore -start/-end and drain any pending/error hours")
		fSkipReport = flag.Bool("skip-report", false, "stop after aggregates, render no artifacts")
	)
	flag.Parse()

	if *fPlanOnly && *fResume {
		l.Panic().Msg("-plan-only and -resume are mutually exclusive")
	}
	if !*fResume && (*fStart == "" || *fEnd == "") {
		l.Panic().Msg("must provide -start and -end (unless -resume)")
	}

	var start, end time.Time
	if *fStart != "" {
		t, err := time.Parse("2006-01-02T15", *fStart)
		if err != nil {
			l.Panic().Err(err).Msg("bad -start")
		}
		start = t.UTC()
	}
	if *fEnd != "" {
		t, err := time.Parse("2006-01-02T15", *fEnd)
		if err != nil {
			l.Panic().Err(err).Msg("bad -end")
		}
		end = t.UTC()
		if end.Before(start) {
			l.Panic().Str("start", start.String()).Str("end", end.String()).Msg("-end before -start")
		}
	}

	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{
		AppName: "pkgpulse",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:    true,
			URL:        chCfg.MustString("DBURL"),
			LogSQL:     chCfg.MayBool("LOG_SQL", false),
			ClientName: "pkgpulse",
			ClientTag:  "pipeline",
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(ctx); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		CH:  st.CH,
		Log: *l,
	}

	hv := harvestmod.New(deps)
	an := analyticsmod.New(deps)
	rp := reportmod.New(deps)
	pl := pipelinemod.New(
		deps,
		hv.Ports().(harvestmod.Ports).Runner,
		an.Ports().(analyticsmod.Ports).Reader,
		rp.Ports().(reportmod.Ports).Renderer,
	)

	module.Register(hv.Name(), hv.Ports())
	module.Register(an.Name(), an.Ports())
	module.Register(rp.Name(), rp.Ports())
	module.Register(pl.Name(), pl.Ports())

	if err := hv.Migrate(ctx); err != nil {
		l.Panic().Err(err).Msg("migrate failed")
	}

	runner := pl.Ports().(pipelinemod.Ports).Runner
	res, err := runner.Run(ctx, start, end, pipedom.Options{
		PlanOnly:   *fPlanOnly,
		Resume:     *fResume,
		SkipReport: *fSkipReport,
	})
	if err != nil {
		l.Fatal().Str("run_id", res.RunID).Err(err).Msg("pipeline failed")
	}

	for _, a := range res.Artifacts {
		l.Info().Str("artifact", a.Name).Str("path", a.Path).Msg("artifact written")
	}
	l.Info().
		Str("run_id", res.RunID).
		Int64("events", res.Report.Overview.TotalEvents).
		Int("steps", len(res.Steps)).
		Msg("pipeline finished")
}
