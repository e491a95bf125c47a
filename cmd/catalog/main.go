package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ProductStore/internal/catalog"
	"ProductStore/internal/config"
	"ProductStore/internal/seed"
	"ProductStore/pkg/kit"
)

func main() {
	service := "catalog"

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := kit.NewLogger(service, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rows, err := loadSeed(ctx, cfg.Seed)
	if err != nil {
		log.Fatal("load seed failed", zap.Error(err))
	}

	store := catalog.NewStore()
	store.Seed(rows)
	log.Info("store seeded", zap.Int("products", store.Len()))

	s := &catalog.Server{Store: store, Log: log}
	if cfg.RateLimit.Max > 0 {
		s.MutationLimiter = kit.NewIPRateLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})

	if err := kit.RunHTTPServer(ctx, cfg.Addr, h, log, kit.ServerOptions{
		ShutdownTimeout: cfg.Shutdown.Timeout,
	}); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func loadSeed(ctx context.Context, cfg config.SeedConfig) ([]catalog.Product, error) {
	switch {
	case cfg.DatabaseURL != "":
		return seed.LoadPostgres(ctx, cfg.DatabaseURL, cfg.Table)
	case cfg.File != "":
		return seed.LoadFile(cfg.File)
	default:
		return seed.Default()
	}
}
