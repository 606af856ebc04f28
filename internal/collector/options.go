// internal/collector/options.go
package collector

import (
	"time"

	"github.com/rovshanmuradov/solana-market-collector/internal/metrics"
)

// DefaultSourceTimeout bounds each source call.
const DefaultSourceTimeout = 10 * time.Second

// Options selects what a single Collect call gathers.
type Options struct {
	IncludeHistorical   bool
	IncludeOnChain      bool
	IncludeSocial       bool
	IncludeRiskAnalysis bool
	// MaxSources caps how many sources are dispatched, taken in dispatch
	// order. Zero means no cap.
	MaxSources int
}

// DefaultOptions enables everything.
func DefaultOptions() Options {
	return Options{
		IncludeHistorical:   true,
		IncludeOnChain:      true,
		IncludeSocial:       true,
		IncludeRiskAnalysis: true,
	}
}

func (o Options) wants(k Kind) bool {
	switch k {
	case KindCore:
		return true
	case KindOnChain:
		return o.IncludeOnChain
	case KindSocial:
		return o.IncludeSocial || o.IncludeHistorical
	default:
		return false
	}
}

// Option configures a Collector.
type Option func(*Collector)

// WithSourceTimeout overrides DefaultSourceTimeout.
func WithSourceTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Collector) { c.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}
