package main

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"OrderPlus/internal/auth"
	"OrderPlus/internal/config"
	"OrderPlus/pkg/kit"
)

const service = "auth"

func main() {
	cfg, err := config.LoadAuth()
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var cleanup []func(context.Context) error

	var store auth.Store = auth.NewMemStore()
	if cfg.DatabaseURL != "" {
		db, err := kit.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("open postgres", zap.Error(err))
		}
		cleanup = append(cleanup, func(context.Context) error { return db.Close() })

		pg := auth.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
		store = pg
	} else {
		log.Warn("DATABASE_URL not set, accounts kept in memory")
	}

	lim := auth.DefaultLimiters()
	if cfg.RedisURL != "" {
		rdb, err := kit.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("open redis", zap.Error(err))
		}
		cleanup = append(cleanup, func(context.Context) error { return rdb.Close() })

		lim = auth.RedisLimiters(rdb)
	}

	tracing := false
	if cfg.Tracing {
		shutdown, err := kit.SetupTracing(service, os.Stdout)
		if err != nil {
			log.Fatal("tracing", zap.Error(err))
		}
		cleanup = append(cleanup, shutdown)
		tracing = true
	}

	s := &auth.Server{
		Log:   log,
		Store: store,
		JWT:   auth.NewTokenMaker(cfg.JWTSecret),
	}

	h := auth.NewHandler(s, lim, kit.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
		Tracing:        tracing,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, cleanup...); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
