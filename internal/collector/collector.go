// internal/collector/collector.go
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rovshanmuradov/solana-market-collector/internal/cache"
	"github.com/rovshanmuradov/solana-market-collector/internal/logger"
	"github.com/rovshanmuradov/solana-market-collector/internal/market"
	"github.com/rovshanmuradov/solana-market-collector/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// fallbackConfidence is reported when aggregation itself breaks.
const fallbackConfidence = 0.1

// Collector fans a token lookup out to every enabled source and merges the
// answers into one record.
type Collector struct {
	sources []Source
	cache   Cache
	logger  *zap.Logger
	metrics *metrics.Metrics
	timeout time.Duration
	now     func() time.Time
}

// New creates a Collector. The order of sources is the dispatch order and
// therefore the merge priority. cache may be nil to disable memoization.
func New(sources []Source, c Cache, log *zap.Logger, opts ...Option) *Collector {
	col := &Collector{
		sources: sources,
		cache:   c,
		logger:  log.Named("collector"),
		timeout: DefaultSourceTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(col)
	}
	return col
}

// SourceNames lists the configured sources in dispatch order.
func (c *Collector) SourceNames() []string {
	names := make([]string, 0, len(c.sources))
	for _, s := range c.sources {
		if s != nil {
			names = append(names, s.Name())
		}
	}
	return names
}

// Collect gathers everything known about address. It never fails: sources
// that error or time out only lower the record's completeness and
// confidence, and an unexpected panic yields a minimal record.
func (c *Collector) Collect(ctx context.Context, address string, opts Options) (rec *market.TokenMarketRecord) {
	log := logger.WithOperation(c.logger, "collect").With(zap.String("address", address))

	defer func() {
		if r := recover(); r != nil {
			log.Error("collect aborted", zap.Any("panic", r), zap.Stack("stack"))
			rec = market.NewRecord(address, c.clock())
			rec.Confidence = fallbackConfidence
		}
	}()

	start := c.now()
	rec = market.NewRecord(address, start)

	selected := c.selectSources(opts)
	outcomes := c.dispatch(ctx, address, selected, log)

	// Outcomes are indexed by dispatch position, so the merge order does
	// not depend on which source answered first.
	for _, o := range outcomes {
		if !o.OK() {
			reason := ErrEmptyResult.Error()
			if o.Err != nil {
				reason = o.Err.Error()
			}
			rec.Failures = append(rec.Failures, market.Failure{Source: o.Source, Reason: reason})
			log.Warn("source failed", zap.String("source", o.Source), zap.String("reason", reason))
			continue
		}
		kept := market.Merge(rec, o.Partial)
		log.Debug("merged source",
			zap.String("source", o.Source),
			zap.Bool("cached", o.Cached),
			zap.Strings("fields", kept))
	}

	market.Derive(rec)
	if opts.IncludeRiskAnalysis {
		market.ScoreRisk(rec)
	}
	rec.Confidence = market.Confidence(rec)

	elapsed := c.now().Sub(start)
	c.metrics.ObserveCollect(elapsed, rec.Confidence, len(rec.DataSource))
	log.Info("collect completed",
		zap.Strings("sources", rec.DataSource),
		zap.Int("failed", len(rec.Failures)),
		zap.Float64("confidence", rec.Confidence),
		zap.Duration("duration", elapsed))

	return rec
}

// selectSources filters by kind and applies MaxSources in dispatch order.
func (c *Collector) selectSources(opts Options) []Source {
	selected := make([]Source, 0, len(c.sources))
	for _, s := range c.sources {
		if !opts.wants(s.Kind()) {
			continue
		}
		selected = append(selected, s)
		if opts.MaxSources > 0 && len(selected) == opts.MaxSources {
			break
		}
	}
	return selected
}

func (c *Collector) dispatch(ctx context.Context, address string, sources []Source, log *zap.Logger) []Outcome {
	outcomes := make([]Outcome, len(sources))

	g, gCtx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			outcomes[i] = c.fetch(gCtx, address, src, log)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (c *Collector) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

type fetchResult struct {
	partial *market.TokenMarketRecord
	err     error
}

// fetch runs one source call behind the cache and races it against the
// per-source timeout. The deadline is passed down, so a losing request is
// cancelled rather than left running.
func (c *Collector) fetch(ctx context.Context, address string, src Source, log *zap.Logger) (out Outcome) {
	name := src.Name()
	out.Source = name

	defer func() {
		if r := recover(); r != nil {
			log.Error("source panicked", zap.String("source", name), zap.Any("panic", r))
			out = Outcome{Source: name, Err: fmt.Errorf("source panicked: %v", r)}
		}
	}()

	key := cache.Key{Source: name, Address: address}
	if c.cache != nil {
		if partial, ok := c.cache.Get(ctx, key); ok {
			c.metrics.ObserveRequest(name, metrics.OutcomeCached, 0)
			return Outcome{Source: name, Partial: partial, Cached: true}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult{err: fmt.Errorf("source panicked: %v", r)}
			}
		}()
		partial, err := src.Fetch(callCtx, address)
		done <- fetchResult{partial: partial, err: err}
	}()

	var res fetchResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = fetchResult{err: callCtx.Err()}
	}
	elapsed := time.Since(start)

	switch {
	case res.err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		c.metrics.ObserveRequest(name, metrics.OutcomeTimeout, elapsed)
		out.Err = fmt.Errorf("timed out after %s: %w", c.timeout, res.err)
		return out
	case res.err != nil:
		c.metrics.ObserveRequest(name, metrics.OutcomeError, elapsed)
		out.Err = res.err
		return out
	case res.partial.IsEmpty():
		c.metrics.ObserveRequest(name, metrics.OutcomeError, elapsed)
		out.Err = ErrEmptyResult
		return out
	}

	c.metrics.ObserveRequest(name, metrics.OutcomeSuccess, elapsed)
	if c.cache != nil {
		c.cache.Set(ctx, key, res.partial)
	}
	out.Partial = res.partial
	return out
}
