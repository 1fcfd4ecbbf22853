package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/utafrali/Planto/internal/app"
	"github.com/utafrali/Planto/internal/config"
	"github.com/utafrali/Planto/internal/event"
	"github.com/utafrali/Planto/internal/seed"
	"github.com/utafrali/Planto/internal/service"
	"github.com/utafrali/Planto/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("planto-seed", cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("Seeded")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 2*time.Minute)
	defer cancelTimeout()

	backend, err := app.OpenBackend(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close(context.Background()) }()

	catalogCache, rdb, err := app.OpenCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	producer := app.OpenProducer(cfg, log)
	if producer != nil {
		defer func() { _ = producer.Close() }()
	}
	events := event.NewProducer(producer, log)

	_, err = seed.Run(ctx,
		service.NewCatalogService(backend.Store.Plants, catalogCache, events, log),
		service.NewReviewService(backend.Store.Reviews, catalogCache, events, log),
		log,
	)
	return err
}
