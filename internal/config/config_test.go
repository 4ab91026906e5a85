package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("STORE_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "mysql", cfg.Store.Driver)
	assert.Equal(t, 4, cfg.Catalog.FeaturedLimit)
	assert.Equal(t, "catalog:popularity", cfg.Ranking.Key)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, "storefront.activity", cfg.RabbitMQ.Exchange)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("REDIS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("APP_PORT", "not-a-port")
	t.Setenv("CACHE_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad store driver", mutate: func(c *Config) { c.Store.Driver = "sqlite" }, wantErr: true},
		{name: "bad ranking driver", mutate: func(c *Config) { c.Ranking.Driver = "random" }, wantErr: true},
		{name: "minio without endpoint", mutate: func(c *Config) { c.Storage.Driver = "minio" }, wantErr: true},
		{name: "prod without secret", mutate: func(c *Config) { c.App.Env = "prod" }, wantErr: true},
		{name: "rabbitmq without url", mutate: func(c *Config) { c.RabbitMQ = RabbitMQConfig{Enabled: true, Exchange: "x"} }, wantErr: true},
		{name: "rate limit window too small", mutate: func(c *Config) { c.RateLimit.Window = time.Millisecond }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		App:       AppConfig{Env: "dev", Port: 8080, RequestTimeout: time.Second},
		Store:     StoreConfig{Driver: "memory"},
		Ranking:   RankingConfig{Driver: "memory"},
		Storage:   StorageConfig{Driver: "static"},
		RateLimit: RateLimitConfig{Enabled: true, Rate: 10, Window: time.Minute},
		Catalog:   CatalogConfig{FeaturedLimit: 4},
	}
}
