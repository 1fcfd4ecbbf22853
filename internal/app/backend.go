package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/Planto/internal/cache"
	"github.com/utafrali/Planto/internal/config"
	"github.com/utafrali/Planto/internal/repository"
	"github.com/utafrali/Planto/internal/repository/memory"
	mongorepo "github.com/utafrali/Planto/internal/repository/mongo"
	"github.com/utafrali/Planto/internal/repository/postgres"
	"github.com/utafrali/Planto/pkg/database"
	"github.com/utafrali/Planto/pkg/health"
	pkgkafka "github.com/utafrali/Planto/pkg/kafka"
)

// Backend is an open storage backend and the repositories over it.
type Backend struct {
	Store  repository.Store
	Driver string

	checks map[string]health.Checker
	close  func(context.Context) error
}

// OpenBackend connects to the store selected by cfg.StoreDriver, preparing
// its schema or indexes.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*Backend, error) {
	if cfg.SlowQueryThreshold > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
	}

	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return &Backend{
			Store:  memory.NewStore(),
			Driver: config.StoreMemory,
			checks: map[string]health.Checker{},
			close:  func(context.Context) error { return nil },
		}, nil

	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.PostgresConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)
		if reg != nil {
			if err := database.RegisterPoolMetrics(reg, pool, "planto"); err != nil {
				logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
			}
		}
		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")

		return &Backend{
			Store:  postgres.NewStore(pool),
			Driver: config.StorePostgres,
			checks: map[string]health.Checker{"postgres": pool.Ping},
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case config.StoreMongo:
		client, err := database.NewMongoClient(ctx, cfg.MongoConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("connect to mongo: %w", err)
		}
		logger.Info("connected to MongoDB", slog.String("database", cfg.MongoDB))

		db := client.Database(cfg.MongoDB)
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}

		return &Backend{
			Store:  mongorepo.NewStore(db),
			Driver: config.StoreMongo,
			checks: map[string]health.Checker{"mongo": database.PingMongo(client)},
			close:  client.Disconnect,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// RegisterHealth adds the backend's readiness checks to h.
func (b *Backend) RegisterHealth(h *health.Handler) {
	for name, check := range b.checks {
		h.RegisterCritical(name, check)
	}
}

// Close releases the backend's connections.
func (b *Backend) Close(ctx context.Context) error {
	return b.close(ctx)
}

// OpenCache connects the catalog cache. Both results are nil when no Redis
// address is configured.
func OpenCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*cache.Cache, *redis.Client, error) {
	if cfg.RedisAddr == "" {
		logger.Info("catalog cache disabled")
		return nil, nil, nil
	}

	rdb, err := database.NewRedisClient(ctx, cfg.RedisConfig(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)
	return cache.New(rdb, cfg.CatalogCacheTTL, logger), rdb, nil
}

// OpenProducer creates the Kafka producer, or returns nil when no brokers are
// configured and events are dropped.
func OpenProducer(cfg *config.Config, logger *slog.Logger) *pkgkafka.Producer {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("event publishing disabled")
		return nil
	}
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	return producer
}
