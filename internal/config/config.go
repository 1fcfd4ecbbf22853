package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/utafrali/Planto/pkg/config"
	"github.com/utafrali/Planto/pkg/database"
)

// Storage drivers.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

const defaultJWTSecret = "planto-dev-secret-change-me"

// Config holds all configuration for the storefront API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"PORT" envDefault:"4000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Storage
	StoreDriver string `env:"STORE_DRIVER" envDefault:"mongo"`

	// MongoDB
	MongoURI            string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB             string        `env:"MONGO_DB" envDefault:"planto"`
	MongoConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"10s"`
	MongoMaxPoolSize    uint64        `env:"MONGO_MAX_POOL_SIZE" envDefault:"50"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"planto"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"planto_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"planto"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns        int32         `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"60m"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`

	// Redis catalog cache; an empty address disables caching.
	RedisAddr       string        `env:"REDIS_ADDR" envDefault:""`
	RedisPass       string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"60s"`

	// Kafka; no brokers disables event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Auth
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"planto-dev-secret-change-me"`
	JWTExpiry        time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	AuthRateLimitRPS float64       `env:"AUTH_RATE_LIMIT_RPS" envDefault:"1"`
	AuthRateBurst    int           `env:"AUTH_RATE_LIMIT_BURST" envDefault:"5"`

	// Storefront sessions
	SessionIdleTTL       time.Duration `env:"SESSION_IDLE_TTL" envDefault:"24h"`
	NotificationDuration time.Duration `env:"NOTIFICATION_DURATION" envDefault:"4s"`

	// CORS
	CORSAllowedOrigins []string `env:"CLIENT_URL" envDefault:"http://localhost:5173" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThreshold time.Duration `env:"LOG_SLOW_QUERY" envDefault:"500ms"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load planto config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo store")
		}
	case StorePostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required for the postgres store")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of mongo, postgres, memory; got %q", c.StoreDriver)
	}

	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}
	if c.IsProduction() && (c.JWTSecret == defaultJWTSecret || len(c.JWTSecret) < 32) {
		return fmt.Errorf("JWT_SECRET must be set to at least 32 characters in production")
	}
	if c.AuthRateLimitRPS <= 0 || c.AuthRateBurst < 1 {
		return fmt.Errorf("AUTH_RATE_LIMIT_RPS must be positive and AUTH_RATE_LIMIT_BURST at least 1")
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}
	if c.NotificationDuration <= 0 {
		return fmt.Errorf("NOTIFICATION_DURATION must be positive")
	}
	if c.CatalogCacheTTL < 0 {
		return fmt.Errorf("CATALOG_CACHE_TTL must not be negative")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// PostgresConfig returns the connection settings for pkg/database.
func (c *Config) PostgresConfig() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: c.DBMaxConnLifetime,
		MaxConnIdleTime: c.DBMaxConnIdleTime,
	}
}

// MongoConfig returns the connection settings for pkg/database.
func (c *Config) MongoConfig() database.MongoConfig {
	return database.MongoConfig{
		URI:            c.MongoURI,
		Database:       c.MongoDB,
		ConnectTimeout: c.MongoConnectTimeout,
		MaxPoolSize:    c.MongoMaxPoolSize,
		AppName:        "planto-api",
	}
}

// RedisConfig returns the connection settings for pkg/database.
func (c *Config) RedisConfig() database.RedisConfig {
	return database.RedisConfig{
		Addr:     c.RedisAddr,
		Password: c.RedisPass,
		DB:       c.RedisDB,
	}
}
