package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"OrderPlus/internal/config"
	"OrderPlus/internal/gateway"
	"OrderPlus/pkg/kit"
)

const service = "gateway"

func main() {
	cfg, err := config.LoadGateway()
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	var cleanup []func(context.Context) error

	tracing := false
	if cfg.Tracing {
		shutdown, err := kit.SetupTracing(service, os.Stdout)
		if err != nil {
			log.Fatal("tracing", zap.Error(err))
		}
		cleanup = append(cleanup, shutdown)
		tracing = true
	}

	h, err := gateway.NewHandler(gateway.Deps{
		JWTSecret:  cfg.JWTSecret,
		AuthURL:    cfg.AuthURL,
		CatalogURL: cfg.CatalogURL,
	}, kit.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
		Tracing:        tracing,
	})
	if err != nil {
		log.Fatal("init gateway handler failed", zap.Error(err))
	}

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, cleanup...); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
