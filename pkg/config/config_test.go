package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeConfig struct {
	Driver   string        `env:"STORE_DRIVER" envDefault:"memory"`
	CacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"60s"`
	Brokers  []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg storeConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "memory", cfg.Driver)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("CATALOG_CACHE_TTL", "5m")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	var cfg storeConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "mongo", cfg.Driver)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("CATALOG_CACHE_TTL", "soon")

	var cfg storeConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

type clientConfig struct {
	APIURL string `env:"API_URL,required"`
}

func TestLoadWithPrefix(t *testing.T) {
	t.Setenv("PLANTO_API_URL", "http://localhost:5000")
	t.Setenv("API_URL", "http://ignored")

	var cfg clientConfig
	require.NoError(t, LoadWithPrefix(&cfg, "PLANTO_"))
	assert.Equal(t, "http://localhost:5000", cfg.APIURL)
}

func TestLoadWithPrefix_RequiredMissing(t *testing.T) {
	var cfg clientConfig
	err := LoadWithPrefix(&cfg, "PLANTO_TEST_MISSING_")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLANTO_TEST_MISSING_")
}
