// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/rovshanmuradov/solana-market-collector/internal/logger"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// MARKET_COLLECTOR_SOURCES_BIRDEYE_API_KEY.
const EnvPrefix = "MARKET_COLLECTOR"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Collector CollectorConfig `mapstructure:"collector"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	API       APIConfig       `mapstructure:"api"`
	Logging   logger.Config   `mapstructure:"logging"`
}

type CollectorConfig struct {
	SourceTimeout time.Duration `mapstructure:"source_timeout"`
	MaxSources    int           `mapstructure:"max_sources"`
	WatchInterval time.Duration `mapstructure:"watch_interval"`
}

type CacheConfig struct {
	Backend  string        `mapstructure:"backend"`
	TTL      time.Duration `mapstructure:"ttl"`
	Capacity int           `mapstructure:"capacity"`
	Redis    RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// SourceConfig is shared by every provider.
type SourceConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	RatePerMinute int           `mapstructure:"rate_per_minute"`
	MaxRetries    uint          `mapstructure:"max_retries"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// JupiterConfig adds the token-list endpoint, which lives on a separate host.
type JupiterConfig struct {
	SourceConfig `mapstructure:",squash"`
	TokensURL    string `mapstructure:"tokens_url"`
}

type SourcesConfig struct {
	DexScreener SourceConfig  `mapstructure:"dexscreener"`
	Jupiter     JupiterConfig `mapstructure:"jupiter"`
	Birdeye     SourceConfig  `mapstructure:"birdeye"`
	CoinGecko   SourceConfig  `mapstructure:"coingecko"`
	SolanaRPC   SourceConfig  `mapstructure:"solana_rpc"`
	Solscan     SourceConfig  `mapstructure:"solscan"`
}

type APIConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

const (
	DefaultSourceTimeout = 10 * time.Second
	DefaultWatchInterval = 15 * time.Second
	DefaultCacheTTL      = 60 * time.Second
	DefaultCacheCapacity = 200
	DefaultMaxRetries    = 2
	DefaultAPIAddr       = ":8080"
)

func defaults() map[string]interface{} {
	log := logger.DefaultConfig()
	return map[string]interface{}{
		"collector.source_timeout": DefaultSourceTimeout,
		"collector.max_sources":    0,
		"collector.watch_interval": DefaultWatchInterval,

		"cache.backend":          CacheMemory,
		"cache.ttl":              DefaultCacheTTL,
		"cache.capacity":         DefaultCacheCapacity,
		"cache.redis.addr":       "localhost:6379",
		"cache.redis.password":   "",
		"cache.redis.db":         0,
		"cache.redis.key_prefix": "market-collector:",

		"sources.dexscreener.enabled":         true,
		"sources.dexscreener.base_url":        "https://api.dexscreener.com",
		"sources.dexscreener.api_key":         "",
		"sources.dexscreener.rate_per_minute": 300,
		"sources.dexscreener.max_retries":     DefaultMaxRetries,
		"sources.dexscreener.timeout":         8 * time.Second,

		"sources.jupiter.enabled":         true,
		"sources.jupiter.base_url":        "https://api.jup.ag",
		"sources.jupiter.tokens_url":      "https://tokens.jup.ag",
		"sources.jupiter.api_key":         "",
		"sources.jupiter.rate_per_minute": 600,
		"sources.jupiter.max_retries":     DefaultMaxRetries,
		"sources.jupiter.timeout":         8 * time.Second,

		"sources.birdeye.enabled":         true,
		"sources.birdeye.base_url":        "https://public-api.birdeye.so",
		"sources.birdeye.api_key":         "",
		"sources.birdeye.rate_per_minute": 60,
		"sources.birdeye.max_retries":     DefaultMaxRetries,
		"sources.birdeye.timeout":         8 * time.Second,

		"sources.coingecko.enabled":         true,
		"sources.coingecko.base_url":        "https://api.coingecko.com/api/v3",
		"sources.coingecko.api_key":         "",
		"sources.coingecko.rate_per_minute": 30,
		"sources.coingecko.max_retries":     1,
		"sources.coingecko.timeout":         8 * time.Second,

		"sources.solana_rpc.enabled":         true,
		"sources.solana_rpc.base_url":        "https://api.mainnet-beta.solana.com",
		"sources.solana_rpc.api_key":         "",
		"sources.solana_rpc.rate_per_minute": 600,
		"sources.solana_rpc.max_retries":     DefaultMaxRetries,
		"sources.solana_rpc.timeout":         8 * time.Second,

		"sources.solscan.enabled":         true,
		"sources.solscan.base_url":        "https://pro-api.solscan.io/v2.0",
		"sources.solscan.api_key":         "",
		"sources.solscan.rate_per_minute": 60,
		"sources.solscan.max_retries":     DefaultMaxRetries,
		"sources.solscan.timeout":         8 * time.Second,

		"api.addr":          DefaultAPIAddr,
		"api.read_timeout":  5 * time.Second,
		"api.write_timeout": 30 * time.Second,

		"logging.file":        log.LogFile,
		"logging.max_size":    log.MaxSize,
		"logging.max_age":     log.MaxAge,
		"logging.max_backups": log.MaxBackups,
		"logging.compress":    log.Compress,
		"logging.development": log.Development,
		"logging.console":     log.Console,
	}
}

// Load reads configuration from defaults, an optional file at path, a .env
// file in the working directory and MARKET_COLLECTOR_* variables, in
// increasing priority.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.Collector.SourceTimeout <= 0 {
		return errors.New("invalid collector.source_timeout")
	}
	if cfg.Collector.MaxSources < 0 {
		return errors.New("invalid collector.max_sources")
	}
	if cfg.Collector.WatchInterval <= 0 {
		return errors.New("invalid collector.watch_interval")
	}

	switch cfg.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if cfg.Cache.Redis.Addr == "" {
			return errors.New("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL <= 0 {
		return errors.New("invalid cache.ttl")
	}
	if cfg.Cache.Capacity <= 0 {
		return errors.New("invalid cache.capacity")
	}

	sources := map[string]SourceConfig{
		"dexscreener": cfg.Sources.DexScreener,
		"jupiter":     cfg.Sources.Jupiter.SourceConfig,
		"birdeye":     cfg.Sources.Birdeye,
		"coingecko":   cfg.Sources.CoinGecko,
		"solana_rpc":  cfg.Sources.SolanaRPC,
		"solscan":     cfg.Sources.Solscan,
	}
	for name, src := range sources {
		if !src.Enabled {
			continue
		}
		if err := validateURLWithCache(src.BaseURL, "http"); err != nil {
			return fmt.Errorf("sources.%s.base_url: %w", name, err)
		}
		if src.RatePerMinute < 0 {
			return fmt.Errorf("invalid sources.%s.rate_per_minute", name)
		}
	}
	if cfg.Sources.Jupiter.Enabled && cfg.Sources.Jupiter.TokensURL != "" {
		if err := validateURLWithCache(cfg.Sources.Jupiter.TokensURL, "http"); err != nil {
			return fmt.Errorf("sources.jupiter.tokens_url: %w", err)
		}
	}

	if cfg.API.Addr == "" {
		return errors.New("api.addr is empty")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}
