package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rovshanmuradov/solana-market-collector/internal/config"
	"github.com/rovshanmuradov/solana-market-collector/internal/metrics"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSourceConfig(baseURL string) config.SourceConfig {
	return config.SourceConfig{
		Enabled: true,
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	}
}

func fastTransport(t *testing.T, cfg config.SourceConfig, m *metrics.Metrics) *transport {
	t.Helper()
	tr := newTransport("test", cfg, nil, zap.NewNop(), m)
	tr.backoff = time.Millisecond
	return tr
}

func TestTransportRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"value": 42}`))
	}))
	defer srv.Close()

	cfg := testSourceConfig(srv.URL)
	cfg.MaxRetries = 3
	tr := fastTransport(t, cfg, nil)

	var dst struct {
		Value int `json:"value"`
	}
	require.NoError(t, tr.getJSON(context.Background(), srv.URL, nil, &dst))
	assert.Equal(t, 42, dst.Value)
	assert.Equal(t, int32(3), hits.Load())
}

func TestTransportGivesUpAfterMaxRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := testSourceConfig(srv.URL)
	cfg.MaxRetries = 2
	tr := fastTransport(t, cfg, nil)

	err := tr.getJSON(context.Background(), srv.URL, nil, &struct{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, int32(3), hits.Load())
}

func TestTransportClientErrorsArePermanent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad key"}`))
	}))
	defer srv.Close()

	cfg := testSourceConfig(srv.URL)
	cfg.MaxRetries = 3
	tr := fastTransport(t, cfg, nil)

	err := tr.getJSON(context.Background(), srv.URL, nil, &struct{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), hits.Load())
}

func TestTransportNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	tr := fastTransport(t, testSourceConfig(srv.URL), nil)
	err := tr.getJSON(context.Background(), srv.URL, nil, &struct{}{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransportDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	tr := fastTransport(t, testSourceConfig(srv.URL), nil)
	err := tr.getJSON(context.Background(), srv.URL, nil, &struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestTransportSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tr := fastTransport(t, testSourceConfig(srv.URL), nil)
	header := http.Header{}
	header.Set("X-API-KEY", "abc")
	require.NoError(t, tr.getJSON(context.Background(), srv.URL, header, &struct{}{}))
}

func TestTransportBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	tr := fastTransport(t, testSourceConfig(srv.URL), m)

	for i := 0; i < breakerThreshold; i++ {
		require.Error(t, tr.getJSON(context.Background(), srv.URL, nil, &struct{}{}))
	}
	err := tr.getJSON(context.Background(), srv.URL, nil, &struct{}{})

	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(breakerThreshold), hits.Load())
	assert.Equal(t, float64(gobreaker.StateOpen), gaugeValue(t, reg, "market_collector_source_breaker_state"))
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name && len(f.GetMetric()) > 0 {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestTransportNotFoundKeepsBreakerClosed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	tr := fastTransport(t, testSourceConfig(srv.URL), nil)
	for i := 0; i < breakerThreshold+2; i++ {
		assert.ErrorIs(t, tr.getJSON(context.Background(), srv.URL, nil, &struct{}{}), ErrNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, tr.breaker.State())
}

func TestTransportHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	tr := fastTransport(t, testSourceConfig(srv.URL), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := tr.getJSON(ctx, srv.URL, nil, &struct{}{})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
