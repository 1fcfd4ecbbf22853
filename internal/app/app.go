package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/Planto/internal/auth"
	"github.com/utafrali/Planto/internal/config"
	"github.com/utafrali/Planto/internal/event"
	handler "github.com/utafrali/Planto/internal/handler/http"
	"github.com/utafrali/Planto/internal/service"
	"github.com/utafrali/Planto/internal/session"
	"github.com/utafrali/Planto/pkg/health"
	pkgkafka "github.com/utafrali/Planto/pkg/kafka"
	"github.com/utafrali/Planto/pkg/middleware"
	"github.com/utafrali/Planto/pkg/tracing"
)

// App wires together all dependencies and runs the storefront API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	backend        *Backend
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	sessions       *session.Registry
	authLimiter    *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    handler.ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       !cfg.IsProduction(),
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	backend, err := OpenBackend(ctx, cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}

	catalogCache, rdb, err := OpenCache(ctx, cfg, logger)
	if err != nil {
		_ = backend.Close(context.Background())
		return nil, err
	}

	producer := OpenProducer(cfg, logger)

	sessions, err := session.NewRegistry(session.Config{
		IdleTTL:              cfg.SessionIdleTTL,
		NotificationDuration: cfg.NotificationDuration,
	}, logger, prometheus.DefaultRegisterer)
	if err != nil {
		_ = backend.Close(context.Background())
		return nil, fmt.Errorf("create session registry: %w", err)
	}

	// Build the dependency graph.
	events := event.NewProducer(producer, logger)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)
	services := handler.Services{
		Catalog:    service.NewCatalogService(backend.Store.Plants, catalogCache, events, logger),
		Reviews:    service.NewReviewService(backend.Store.Reviews, catalogCache, events, logger),
		Users:      service.NewUserService(backend.Store.Users, jwtManager, sessions, events, logger),
		Storefront: service.NewStorefrontService(sessions, events, cfg.NotificationDuration, logger),
	}

	// Health checks.
	healthHandler := health.NewHandler()
	backend.RegisterHealth(healthHandler)
	if rdb != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
	}

	// HTTP router.
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateBurst, 0)
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowCredentials = true

	router := handler.NewRouter(services, jwtManager.Validator(), authLimiter, healthHandler, logger, handler.RouterConfig{
		CORS:              corsConfig,
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
		CatalogMaxAge:     cfg.CatalogCacheTTL,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		backend:        backend,
		rdb:            rdb,
		producer:       producer,
		sessions:       sessions,
		authLimiter:    authLimiter,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and background sweepers, and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	bgCtx, stopBackground := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.sessions.Run(bgCtx)
	}()
	go func() {
		defer wg.Done()
		a.authLimiter.Run(bgCtx)
	}()
	defer func() {
		stopBackground()
		wg.Wait()
	}()

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("store", a.backend.Driver),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server, tracer,
// Kafka producer, Redis, then the store.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	storeCtx, storeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer storeCancel()
	if err := a.backend.Close(storeCtx); err != nil {
		a.logger.Error("store close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
