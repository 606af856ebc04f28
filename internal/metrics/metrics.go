// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "market_collector"

// Request outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomeCached  = "cached"
)

// Metrics groups the collector's Prometheus instruments. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
	collects     prometheus.Histogram
	confidence   prometheus.Histogram
	sources      prometheus.Histogram
}

// New creates the instruments and registers them with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Source fetches by outcome",
		}, []string{"source", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Time spent fetching one source",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by source and result",
		}, []string{"source", "result"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_breaker_state",
			Help:      "Circuit breaker state per source (0 closed, 1 half-open, 2 open)",
		}, []string{"source"}),
		collects: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collect_duration_seconds",
			Help:      "End-to-end aggregation time",
			Buckets:   prometheus.DefBuckets,
		}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_confidence",
			Help:      "Confidence of returned records",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		sources: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_sources",
			Help:      "Number of contributing sources per record",
			Buckets:   prometheus.LinearBuckets(0, 1, 8),
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.requests,
			m.latency,
			m.cacheLookups,
			m.breakerState,
			m.collects,
			m.confidence,
			m.sources,
		)
	}
	return m
}

// ObserveRequest records one source fetch.
func (m *Metrics) ObserveRequest(source, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(source, outcome).Inc()
	if outcome != OutcomeCached {
		m.latency.WithLabelValues(source).Observe(duration.Seconds())
	}
}

// CacheHit counts a fresh cache entry.
func (m *Metrics) CacheHit(source string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(source, "hit").Inc()
}

// CacheMiss counts an absent or expired cache entry.
func (m *Metrics) CacheMiss(source string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(source, "miss").Inc()
}

// SetBreakerState publishes a circuit breaker transition.
func (m *Metrics) SetBreakerState(source string, state int) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(source).Set(float64(state))
}

// ObserveCollect records a finished aggregation.
func (m *Metrics) ObserveCollect(duration time.Duration, confidence float64, sources int) {
	if m == nil {
		return
	}
	m.collects.Observe(duration.Seconds())
	m.confidence.Observe(confidence)
	m.sources.Observe(float64(sources))
}

// Reset clears all vectors. Useful in tests.
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.requests.Reset()
	m.latency.Reset()
	m.cacheLookups.Reset()
	m.breakerState.Reset()
}
