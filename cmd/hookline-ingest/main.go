package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"hookline/internal/modkit"
	"hookline/internal/modkit/httpkit"
	"hookline/internal/modkit/module"
	"hookline/internal/modkit/repokit"
	"hookline/internal/platform/config"
	"hookline/internal/platform/logger"
	phttp "hookline/internal/platform/net/http"
	"hookline/internal/platform/store"

	evmodule "hookline/internal/services/events/module"
	ingmodule "hookline/internal/services/ingest/module"
)

func main() {
	root := config.New()
	httpCfg := root.Prefix("CORE_INGEST_")
	dbCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		AppName: "hookline",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         dbCfg.MustString("DBURL"),
			MaxConns:    int32(dbCfg.MayInt("MAX_CONNS", 8)),
			SlowQueryMs: dbCfg.MayInt("SLOW_MS", 500),
			LogSQL:      dbCfg.MayBool("LOG_SQL", false),
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
	repokit.MustGuard(ctx, st)

	pg := repokit.WithBeginHooks(st.PG,
		repokit.StatementTimeout(dbCfg.MayInt("STMT_TIMEOUT_MS", 5000)),
	)

	deps := modkit.Deps{
		Cfg: root,
		PG:  pg,
		Log: *l,
	}

	ev := evmodule.New(deps)
	module.Register(ev.Name(), ev.Ports())

	ing := ingmodule.New(deps, modkit.WithPorts(module.MustPortsOf[evmodule.Ports](ev)))
	module.Register(ing.Name(), ing.Ports())

	srv := phttp.NewServer(httpCfg)
	r := srv.Router()
	r.Use(httpkit.CommonStack()...)
	ing.MountRoutes(r)

	// dedup sweeper lives for the whole process
	go func() {
		if err := ing.Run(ctx); err != nil && err != context.Canceled {
			l.Error().Err(err).Msg("dedup sweeper stopped")
		}
	}()

	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()

	select {
	case err := <-errc:
		if err != nil {
			l.Panic().Err(err).Msg("http server stopped")
		}
	case <-ctx.Done():
		l.Info().Msg("shutting down")

		shCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		// stop accepting deliveries, then flush whatever the queue holds
		if err := srv.Shutdown(shCtx); err != nil {
			l.Error().Err(err).Msg("http shutdown failed")
		}
		if err := ing.Drain(shCtx); err != nil {
			l.Error().Err(err).Msg("queue drain failed")
		}
	}
}
