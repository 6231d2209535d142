package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"hookline/internal/modkit"
	"hookline/internal/modkit/module"
	"hookline/internal/modkit/repokit"
	"hookline/internal/platform/config"
	"hookline/internal/platform/logger"
	"hookline/internal/platform/store"

	evmodule "hookline/internal/services/events/module"
	retrymod "hookline/internal/services/retry/module"
)

func main() {
	root := config.New()
	dbCfg := root.Prefix("SERVICE_PGSQL_")
	retryCfg := root.Prefix("CORE_RETRY_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		AppName: "hookline",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         dbCfg.MustString("DBURL"),
			MaxConns:    int32(dbCfg.MayInt("MAX_CONNS", 4)),
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

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		Log: *l,
	}

	ev := evmodule.New(deps)
	module.Register(ev.Name(), ev.Ports())
	evPorts := module.MustPortsOf[evmodule.Ports](ev)

	mod := retrymod.New(deps, modkit.WithPorts(evPorts))
	module.Register(mod.Name(), mod.Ports())

	// optional housekeeping: drop stored events older than the window
	if keep := retryCfg.MayDuration("ARCHIVE_AFTER", 0); keep > 0 {
		every := retryCfg.MayDuration("ARCHIVE_EVERY", time.Hour)
		go func() {
			t := time.NewTicker(every)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					n, err := evPorts.Writer.ArchiveBefore(ctx, time.Now().UTC().Add(-keep))
					if err != nil {
						l.Error().Err(err).Msg("archive pass failed")
						continue
					}
					if n > 0 {
						l.Info().Int64("rows", n).Msg("archived old events")
					}
				}
			}
		}()
	}

	if err := mod.Run(ctx); err != nil && err != context.Canceled {
		l.Fatal().Err(err).Msg("retry scheduler failed")
	}
}
