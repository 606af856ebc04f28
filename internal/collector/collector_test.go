package collector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rovshanmuradov/solana-market-collector/internal/cache"
	"github.com/rovshanmuradov/solana-market-collector/internal/market"
	"github.com/rovshanmuradov/solana-market-collector/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testMint = "So11111111111111111111111111111111111111112"

type fakeSource struct {
	name   string
	kind   Kind
	delay  time.Duration
	build  func(address string) *market.TokenMarketRecord
	err    error
	panics bool
	calls  atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) Kind() Kind   { return f.kind }

func (f *fakeSource) Fetch(ctx context.Context, address string) (*market.TokenMarketRecord, error) {
	f.calls.Add(1)
	if f.panics {
		panic("boom")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.build == nil {
		return nil, nil
	}
	return f.build(address), nil
}

func priced(name string, price float64) func(string) *market.TokenMarketRecord {
	return func(address string) *market.TokenMarketRecord {
		p := market.NewPartial(address, name)
		p.Price = market.Float(price)
		p.Name = name
		return p
	}
}

// mockSource lets a test assert a source was never called.
type mockSource struct{ mock.Mock }

func (m *mockSource) Name() string { return m.Called().String(0) }
func (m *mockSource) Kind() Kind   { return m.Called().Get(0).(Kind) }
func (m *mockSource) Fetch(ctx context.Context, address string) (*market.TokenMarketRecord, error) {
	args := m.Called(ctx, address)
	rec, _ := args.Get(0).(*market.TokenMarketRecord)
	return rec, args.Error(1)
}

func TestCollectAllSourcesFail(t *testing.T) {
	sources := []Source{
		&fakeSource{name: "dexscreener", kind: KindCore, err: errors.New("network down")},
		&fakeSource{name: "jupiter", kind: KindCore, err: errors.New("500")},
		&fakeSource{name: "coingecko", kind: KindSocial},
		&fakeSource{name: "solana-rpc", kind: KindOnChain, panics: true},
	}
	c := New(sources, nil, zap.NewNop())

	var rec *market.TokenMarketRecord
	require.NotPanics(t, func() {
		rec = c.Collect(context.Background(), testMint, DefaultOptions())
	})

	require.NotNil(t, rec)
	assert.Equal(t, testMint, rec.Address)
	assert.Empty(t, rec.DataSource)
	assert.LessOrEqual(t, rec.Confidence, 0.3)
	require.Len(t, rec.Failures, 4)
	assert.Equal(t, "dexscreener", rec.Failures[0].Source)
	assert.Equal(t, "network down", rec.Failures[0].Reason)
	assert.Equal(t, ErrEmptyResult.Error(), rec.Failures[2].Reason)
	assert.Contains(t, rec.Failures[3].Reason, "panicked")
}

func TestCollectMergesInDispatchOrder(t *testing.T) {
	// The first source answers last; its values must still win.
	for run := 0; run < 5; run++ {
		sources := []Source{
			&fakeSource{name: "slow", kind: KindCore, delay: 40 * time.Millisecond, build: priced("slow", 1)},
			&fakeSource{name: "medium", kind: KindCore, delay: 20 * time.Millisecond, build: priced("medium", 2)},
			&fakeSource{name: "fast", kind: KindCore, build: priced("fast", 3)},
		}
		rec := New(sources, nil, zap.NewNop()).Collect(context.Background(), testMint, DefaultOptions())

		require.NotNil(t, rec.Price)
		assert.Equal(t, 1.0, *rec.Price)
		assert.Equal(t, "slow", rec.Name)
		assert.Equal(t, []string{"slow", "medium", "fast"}, rec.DataSource)
	}
}

func TestCollectSourceTimeout(t *testing.T) {
	hung := &fakeSource{name: "hung", kind: KindCore, delay: 5 * time.Second, build: priced("hung", 9)}
	fast := &fakeSource{name: "fast", kind: KindCore, build: priced("fast", 3)}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	c := New([]Source{hung, fast}, nil, zap.NewNop(),
		WithSourceTimeout(50*time.Millisecond), WithMetrics(m))

	start := time.Now()
	rec := c.Collect(context.Background(), testMint, DefaultOptions())

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, []string{"fast"}, rec.DataSource)
	require.Len(t, rec.Failures, 1)
	assert.Equal(t, "hung", rec.Failures[0].Source)
	assert.Contains(t, rec.Failures[0].Reason, "timed out")
}

func TestCollectUsesCache(t *testing.T) {
	mem := cache.NewMemory(cache.DefaultTTL, cache.DefaultCapacity, zap.NewNop())
	cached := priced("dexscreener", 0.5)(testMint)
	mem.Set(context.Background(), cache.Key{Source: "dexscreener", Address: testMint}, cached)

	src := new(mockSource)
	src.On("Name").Return("dexscreener")
	src.On("Kind").Return(KindCore)

	rec := New([]Source{src}, mem, zap.NewNop()).Collect(context.Background(), testMint, DefaultOptions())

	src.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	require.NotNil(t, rec.Price)
	assert.Equal(t, 0.5, *rec.Price)
	assert.Equal(t, []string{"dexscreener"}, rec.DataSource)
}

func TestCollectStoresSuccessfulPartials(t *testing.T) {
	mem := cache.NewMemory(cache.DefaultTTL, cache.DefaultCapacity, zap.NewNop())
	ok := &fakeSource{name: "jupiter", kind: KindCore, build: priced("jupiter", 1)}
	bad := &fakeSource{name: "birdeye", kind: KindCore, err: errors.New("401")}
	c := New([]Source{ok, bad}, mem, zap.NewNop())

	c.Collect(context.Background(), testMint, DefaultOptions())
	c.Collect(context.Background(), testMint, DefaultOptions())

	assert.Equal(t, int32(1), ok.calls.Load())
	assert.Equal(t, int32(2), bad.calls.Load())
	assert.Equal(t, 1, mem.Len())
}

func TestCollectFiltersByKind(t *testing.T) {
	core := &fakeSource{name: "core", kind: KindCore, build: priced("core", 1)}
	chain := &fakeSource{name: "chain", kind: KindOnChain, build: priced("chain", 2)}
	social := &fakeSource{name: "social", kind: KindSocial, build: priced("social", 3)}
	c := New([]Source{core, chain, social}, nil, zap.NewNop())

	rec := c.Collect(context.Background(), testMint, Options{})
	assert.Equal(t, []string{"core"}, rec.DataSource)

	rec = c.Collect(context.Background(), testMint, Options{IncludeHistorical: true})
	assert.Equal(t, []string{"core", "social"}, rec.DataSource)

	rec = c.Collect(context.Background(), testMint, Options{IncludeOnChain: true})
	assert.Equal(t, []string{"core", "chain"}, rec.DataSource)
}

func TestCollectMaxSources(t *testing.T) {
	a := &fakeSource{name: "a", kind: KindCore, build: priced("a", 1)}
	b := &fakeSource{name: "b", kind: KindOnChain, build: priced("b", 2)}
	d := &fakeSource{name: "d", kind: KindSocial, build: priced("d", 3)}
	c := New([]Source{a, b, d}, nil, zap.NewNop())

	opts := DefaultOptions()
	opts.MaxSources = 2
	rec := c.Collect(context.Background(), testMint, opts)

	assert.Equal(t, []string{"a", "b"}, rec.DataSource)
	assert.Equal(t, int32(0), d.calls.Load())
}

func TestCollectRiskOnlyWhenRequested(t *testing.T) {
	src := &fakeSource{name: "dexscreener", kind: KindCore, build: func(address string) *market.TokenMarketRecord {
		p := market.NewPartial(address, "dexscreener")
		p.Liquidity = market.Float(50000)
		return p
	}}
	c := New([]Source{src}, nil, zap.NewNop())

	rec := c.Collect(context.Background(), testMint, Options{})
	assert.Empty(t, rec.LiquidityRisk)

	rec = c.Collect(context.Background(), testMint, Options{IncludeRiskAnalysis: true})
	assert.Equal(t, market.RiskMedium, rec.LiquidityRisk)
}

func TestCollectRecoversFromPanic(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	c := New([]Source{nil}, nil, zap.NewNop(), WithClock(func() time.Time { return now }))

	var rec *market.TokenMarketRecord
	require.NotPanics(t, func() {
		rec = c.Collect(context.Background(), testMint, DefaultOptions())
	})

	assert.Equal(t, testMint, rec.Address)
	assert.Empty(t, rec.DataSource)
	assert.Equal(t, fallbackConfidence, rec.Confidence)
	assert.Equal(t, now, rec.LastUpdated)
}

func TestCollectFallbackWithoutClock(t *testing.T) {
	c := New([]Source{nil}, nil, zap.NewNop())
	c.now = nil

	before := time.Now()
	rec := c.Collect(context.Background(), testMint, DefaultOptions())

	assert.Equal(t, fallbackConfidence, rec.Confidence)
	assert.False(t, rec.LastUpdated.Before(before))
}

func TestCollectRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := New([]Source{
		&fakeSource{name: "ok", kind: KindCore, build: priced("ok", 1)},
		&fakeSource{name: "bad", kind: KindCore, err: errors.New("nope")},
	}, nil, zap.NewNop(), WithMetrics(m))

	c.Collect(context.Background(), testMint, DefaultOptions())

	count, err := testutil.GatherAndCount(reg, "market_collector_source_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSourceNames(t *testing.T) {
	c := New([]Source{
		&fakeSource{name: "dexscreener"},
		nil,
		&fakeSource{name: "jupiter"},
	}, nil, zap.NewNop())
	assert.Equal(t, []string{"dexscreener", "jupiter"}, c.SourceNames())
}
