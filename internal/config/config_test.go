package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultSourceTimeout, cfg.Collector.SourceTimeout)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 60*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 200, cfg.Cache.Capacity)
	assert.True(t, cfg.Sources.DexScreener.Enabled)
	assert.Equal(t, "https://api.dexscreener.com", cfg.Sources.DexScreener.BaseURL)
	assert.Equal(t, "https://tokens.jup.ag", cfg.Sources.Jupiter.TokensURL)
	assert.Equal(t, "https://api.jup.ag", cfg.Sources.Jupiter.BaseURL)
	assert.Equal(t, uint(DefaultMaxRetries), cfg.Sources.Birdeye.MaxRetries)
	assert.Equal(t, DefaultAPIAddr, cfg.API.Addr)
	assert.Equal(t, "logs/collector.log", cfg.Logging.LogFile)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collector.yaml")
	content := `
collector:
  source_timeout: 3s
  max_sources: 2
cache:
  backend: redis
  ttl: 2m
  redis:
    addr: redis:6379
sources:
  solscan:
    enabled: false
  jupiter:
    tokens_url: http://tokens.local
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Collector.SourceTimeout)
	assert.Equal(t, 2, cfg.Collector.MaxSources)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
	assert.False(t, cfg.Sources.Solscan.Enabled)
	assert.Equal(t, "http://tokens.local", cfg.Sources.Jupiter.TokensURL)
	// Untouched keys keep their defaults.
	assert.Equal(t, 600, cfg.Sources.Jupiter.RatePerMinute)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MARKET_COLLECTOR_SOURCES_BIRDEYE_API_KEY", "secret")
	t.Setenv("MARKET_COLLECTOR_CACHE_CAPACITY", "500")
	t.Setenv("MARKET_COLLECTOR_API_ADDR", ":9090")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Sources.Birdeye.APIKey)
	assert.Equal(t, 500, cfg.Cache.Capacity)
	assert.Equal(t, ":9090", cfg.API.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero timeout", func(c *Config) { c.Collector.SourceTimeout = 0 }, "source_timeout"},
		{"negative max sources", func(c *Config) { c.Collector.MaxSources = -1 }, "max_sources"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"redis without addr", func(c *Config) { c.Cache.Backend = CacheRedis; c.Cache.Redis.Addr = "" }, "redis.addr"},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache.ttl"},
		{"bad url", func(c *Config) { c.Sources.Birdeye.BaseURL = "ftp://birdeye" }, "birdeye"},
		{"empty api addr", func(c *Config) { c.API.Addr = "" }, "api.addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("disabled source skips url check", func(t *testing.T) {
		cfg := valid()
		cfg.Sources.Solscan.Enabled = false
		cfg.Sources.Solscan.BaseURL = ""
		assert.NoError(t, validateConfig(cfg))
	})
}
