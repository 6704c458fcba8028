package main

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"OrderPlus/internal/catalog"
	"OrderPlus/internal/config"
	"OrderPlus/internal/notify"
	"OrderPlus/pkg/kit"
)

const service = "catalog"

func main() {
	cfg, err := config.LoadCatalog()
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var cleanup []func(context.Context) error

	var store catalog.Store = catalog.NewMemStore()
	if cfg.DatabaseURL != "" {
		db, err := kit.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("open postgres", zap.Error(err))
		}
		cleanup = append(cleanup, func(context.Context) error { return db.Close() })

		pg := catalog.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
		store = pg
	} else {
		log.Warn("DATABASE_URL not set, products kept in memory")
	}

	var (
		sink notify.Sink
		feed notify.Feed
	)
	if cfg.RedisURL != "" {
		rdb, err := kit.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("open redis", zap.Error(err))
		}
		cleanup = append(cleanup, func(context.Context) error { return rdb.Close() })

		rs := notify.NewRedisSink(rdb, "orderplus:notify", log)
		sink, feed = rs, rs
	} else {
		mf := notify.NewMemFeed()
		sink, feed = mf, mf
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

	reg := prometheus.NewRegistry()
	cat := catalog.New(store, notify.Logged(sink, log), log, catalog.WithMetrics(catalog.NewMetrics(reg)))

	h := catalog.NewHandler(&catalog.Server{Catalog: cat, Feed: feed, Log: log}, kit.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
		Tracing:        tracing,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, cleanup...); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
