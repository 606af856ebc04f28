package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/rovshanmuradov/solana-market-collector/internal/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingObserver struct {
	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{hits: map[string]int{}, misses: map[string]int{}}
}

func (o *countingObserver) CacheHit(source string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hits[source]++
}

func (o *countingObserver) CacheMiss(source string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.misses[source]++
}

func partial(source string, price float64) *market.TokenMarketRecord {
	p := market.NewPartial("mint", source)
	p.Price = market.Float(price)
	return p
}

func TestMemoryTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := NewMemory(0, 0, zap.NewNop(), WithClock(clock.Now))
	ctx := context.Background()
	key := Key{Source: "dexscreener", Address: "mint"}

	c.Set(ctx, key, partial("dexscreener", 0.25))

	clock.Advance(59_999 * time.Millisecond)
	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, 0.25, *got.Price)
	assert.Equal(t, []string{"dexscreener"}, got.DataSource)

	clock.Advance(time.Millisecond)
	got, ok = c.Get(ctx, key)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestMemoryMissOnAbsentKey(t *testing.T) {
	obs := newCountingObserver()
	c := NewMemory(time.Minute, 10, zap.NewNop(), WithObserver(obs))

	_, ok := c.Get(context.Background(), Key{Source: "jupiter", Address: "nope"})
	assert.False(t, ok)
	assert.Equal(t, 1, obs.misses["jupiter"])
	assert.Equal(t, 0, obs.hits["jupiter"])
}

func TestMemoryReturnsCopies(t *testing.T) {
	c := NewMemory(time.Minute, 10, zap.NewNop())
	ctx := context.Background()
	key := Key{Source: "birdeye", Address: "mint"}

	stored := partial("birdeye", 1)
	c.Set(ctx, key, stored)
	*stored.Price = 100

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, 1.0, *got.Price)

	*got.Price = 200
	again, _ := c.Get(ctx, key)
	assert.Equal(t, 1.0, *again.Price)
}

func TestMemorySweepRemovesAllStaleEntries(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := NewMemory(time.Minute, 3, zap.NewNop(), WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c.Set(ctx, Key{Source: "s", Address: fmt.Sprintf("old-%d", i)}, partial("s", 1))
	}
	clock.Advance(2 * time.Minute)
	c.Set(ctx, Key{Source: "s", Address: "fresh-1"}, partial("s", 1))

	// Every stale entry goes, not just enough to get back under capacity.
	assert.Equal(t, 1, c.Len())
}

func TestMemoryNoSweepUnderCapacity(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := NewMemory(time.Minute, 5, zap.NewNop(), WithClock(clock.Now))
	ctx := context.Background()

	c.Set(ctx, Key{Source: "s", Address: "a"}, partial("s", 1))
	clock.Advance(2 * time.Minute)
	c.Set(ctx, Key{Source: "s", Address: "b"}, partial("s", 1))

	assert.Equal(t, 2, c.Len())
}

func TestMemoryConcurrentAccess(t *testing.T) {
	c := NewMemory(time.Minute, 50, zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := Key{Source: "s", Address: fmt.Sprintf("%d-%d", id, i%20)}
				c.Set(ctx, key, partial("s", float64(i)))
				c.Get(ctx, key)
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 8*20)
}

func TestRedisGetHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	obs := newCountingObserver()
	c := NewRedis(db, RedisOptions{TTL: time.Minute}, zap.NewNop(), obs)

	data, err := json.Marshal(partial("coingecko", 3.5))
	require.NoError(t, err)
	mock.ExpectGet(DefaultKeyPrefix + "coingecko:mint").SetVal(string(data))

	got, ok := c.Get(context.Background(), Key{Source: "coingecko", Address: "mint"})
	require.True(t, ok)
	assert.Equal(t, 3.5, *got.Price)
	assert.Equal(t, []string{"coingecko"}, got.DataSource)
	assert.Equal(t, 1, obs.hits["coingecko"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisGetMissAndError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	obs := newCountingObserver()
	c := NewRedis(db, RedisOptions{KeyPrefix: "t:"}, zap.NewNop(), obs)
	ctx := context.Background()

	mock.ExpectGet("t:jupiter:mint").RedisNil()
	_, ok := c.Get(ctx, Key{Source: "jupiter", Address: "mint"})
	assert.False(t, ok)

	mock.ExpectGet("t:jupiter:mint").SetErr(errors.New("connection refused"))
	_, ok = c.Get(ctx, Key{Source: "jupiter", Address: "mint"})
	assert.False(t, ok)

	mock.ExpectGet("t:jupiter:mint").SetVal("{not json")
	_, ok = c.Get(ctx, Key{Source: "jupiter", Address: "mint"})
	assert.False(t, ok)

	assert.Equal(t, 3, obs.misses["jupiter"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedis(db, RedisOptions{TTL: time.Minute}, zap.NewNop(), nil)

	record := partial("solscan", 2)
	data, err := json.Marshal(record)
	require.NoError(t, err)
	mock.ExpectSet(DefaultKeyPrefix+"solscan:mint", data, time.Minute).SetVal("OK")

	c.Set(context.Background(), Key{Source: "solscan", Address: "mint"}, record)
	assert.NoError(t, mock.ExpectationsWereMet())
}
