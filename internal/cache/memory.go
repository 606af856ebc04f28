// internal/cache/memory.go
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rovshanmuradov/solana-market-collector/internal/market"
	"go.uber.org/zap"
)

const (
	// DefaultTTL is how long a source's partial record stays fresh.
	DefaultTTL = 60 * time.Second
	// DefaultCapacity is the soft bound after which stale entries are swept.
	DefaultCapacity = 200
)

// Key identifies a cached partial record.
type Key struct {
	Source  string
	Address string
}

func (k Key) String() string {
	return k.Source + ":" + k.Address
}

type entry struct {
	record   *market.TokenMarketRecord
	storedAt time.Time
}

// Memory is an in-process TTL cache of partial records.
type Memory struct {
	mu       sync.RWMutex
	entries  map[Key]entry
	ttl      time.Duration
	capacity int
	now      func() time.Time
	logger   *zap.Logger
	observer Observer
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// WithObserver reports hits and misses.
func WithObserver(o Observer) MemoryOption {
	return func(m *Memory) { m.observer = o }
}

// NewMemory creates a cache. Non-positive ttl or capacity fall back to the
// defaults.
func NewMemory(ttl time.Duration, capacity int, logger *zap.Logger, opts ...MemoryOption) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	m := &Memory{
		entries:  make(map[Key]entry),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
		logger:   logger.Named("memory-cache"),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a copy of the stored partial if it is younger than the TTL.
func (m *Memory) Get(_ context.Context, key Key) (*market.TokenMarketRecord, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || m.now().Sub(e.storedAt) >= m.ttl {
		m.observer.CacheMiss(key.Source)
		return nil, false
	}
	m.observer.CacheHit(key.Source)
	return e.record.Clone(), true
}

// Set stores a copy of record. When the map grows past capacity every
// expired entry is removed.
func (m *Memory) Set(_ context.Context, key Key, record *market.TokenMarketRecord) {
	if record == nil {
		return
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{record: record.Clone(), storedAt: now}
	if len(m.entries) > m.capacity {
		m.sweepLocked(now)
	}
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) sweepLocked(now time.Time) {
	before := len(m.entries)
	for k, e := range m.entries {
		if now.Sub(e.storedAt) >= m.ttl {
			delete(m.entries, k)
		}
	}
	m.logger.Debug("cache sweep",
		zap.Int("before", before),
		zap.Int("after", len(m.entries)))
}
