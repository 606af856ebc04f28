// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rovshanmuradov/solana-market-collector/internal/market"
	"go.uber.org/zap"
)

// DefaultKeyPrefix namespaces collector entries in a shared Redis.
const DefaultKeyPrefix = "market-collector:"

// RedisOptions configures a Redis-backed cache.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// Redis shares partial records between collector processes. Expiry is
// delegated to Redis, so there is no local sweep. Redis errors degrade to
// cache misses.
type Redis struct {
	client   redis.Cmdable
	prefix   string
	ttl      time.Duration
	logger   *zap.Logger
	observer Observer
}

// NewRedisClient opens a pooled client with the timeouts used for cache
// traffic.
func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		MaxRetries:      3,
		MinRetryBackoff: 100 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	})
}

// NewRedis wraps an existing client.
func NewRedis(client redis.Cmdable, opts RedisOptions, logger *zap.Logger, observer Observer) *Redis {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Redis{
		client:   client,
		prefix:   opts.KeyPrefix,
		ttl:      opts.TTL,
		logger:   logger.Named("redis-cache"),
		observer: observer,
	}
}

// Get loads and decodes a partial record.
func (r *Redis) Get(ctx context.Context, key Key) (*market.TokenMarketRecord, bool) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis get failed", zap.String("key", key.String()), zap.Error(err))
		}
		r.observer.CacheMiss(key.Source)
		return nil, false
	}

	var record market.TokenMarketRecord
	if err := json.Unmarshal(data, &record); err != nil {
		r.logger.Warn("corrupt cache entry", zap.String("key", key.String()), zap.Error(err))
		r.observer.CacheMiss(key.Source)
		return nil, false
	}

	r.observer.CacheHit(key.Source)
	return &record, true
}

// Set encodes record and stores it with the cache TTL.
func (r *Redis) Set(ctx context.Context, key Key, record *market.TokenMarketRecord) {
	if record == nil {
		return
	}
	data, err := json.Marshal(record)
	if err != nil {
		r.logger.Warn("encode cache entry", zap.String("key", key.String()), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, r.key(key), data, r.ttl).Err(); err != nil {
		r.logger.Warn("redis set failed", zap.String("key", key.String()), zap.Error(err))
	}
}

func (r *Redis) key(k Key) string {
	return r.prefix + k.String()
}
