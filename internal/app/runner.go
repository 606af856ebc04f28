// internal/app/runner.go
package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rovshanmuradov/solana-market-collector/internal/api"
	"github.com/rovshanmuradov/solana-market-collector/internal/cache"
	"github.com/rovshanmuradov/solana-market-collector/internal/collector"
	"github.com/rovshanmuradov/solana-market-collector/internal/config"
	"github.com/rovshanmuradov/solana-market-collector/internal/logger"
	"github.com/rovshanmuradov/solana-market-collector/internal/market"
	"github.com/rovshanmuradov/solana-market-collector/internal/metrics"
	"github.com/rovshanmuradov/solana-market-collector/internal/sources"
	"github.com/rovshanmuradov/solana-market-collector/internal/ui"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// batchWorkers bounds concurrent Collect calls in CollectMany.
const batchWorkers = 4

// Runner owns the wired collector and everything it needs.
type Runner struct {
	logger    *zap.Logger
	config    *config.Config
	registry  *prometheus.Registry
	collector *collector.Collector
	shutdown  *ShutdownHandler
}

// NewRunner builds the cache, sources and collector described by cfg.
func NewRunner(cfg *config.Config, log *zap.Logger) (*Runner, error) {
	r := &Runner{
		logger:   log.Named("runner"),
		config:   cfg,
		registry: prometheus.NewRegistry(),
		shutdown: NewShutdownHandler(log, 0),
	}
	// Registered first so it is flushed after every other service.
	r.shutdown.AddFunc("logger", logger.SyncFunc(log))
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(r.registry)

	store, err := r.buildCache(m)
	if err != nil {
		return nil, err
	}

	list := sources.Build(cfg.Sources, sources.NewHTTPClient(0), log, m)
	r.collector = collector.New(list, store, log,
		collector.WithSourceTimeout(cfg.Collector.SourceTimeout),
		collector.WithMetrics(m),
	)

	r.logger.Info("collector ready",
		zap.Strings("sources", r.collector.SourceNames()),
		zap.String("cache", cfg.Cache.Backend))
	return r, nil
}

func (r *Runner) buildCache(m *metrics.Metrics) (collector.Cache, error) {
	c := r.config.Cache
	switch c.Backend {
	case config.CacheRedis:
		opts := cache.RedisOptions{
			Addr:      c.Redis.Addr,
			Password:  c.Redis.Password,
			DB:        c.Redis.DB,
			KeyPrefix: c.Redis.KeyPrefix,
			TTL:       c.TTL,
		}
		client := cache.NewRedisClient(opts)
		r.shutdown.Add("redis", client)
		return cache.NewRedis(client, opts, r.logger, m), nil
	case config.CacheMemory, "":
		return cache.NewMemory(c.TTL, c.Capacity, r.logger, cache.WithObserver(m)), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.Backend)
	}
}

// Options returns the configured defaults for a Collect call.
func (r *Runner) Options() collector.Options {
	opts := collector.DefaultOptions()
	opts.MaxSources = r.config.Collector.MaxSources
	return opts
}

// Collect aggregates one token.
func (r *Runner) Collect(ctx context.Context, address string, opts collector.Options) *market.TokenMarketRecord {
	return r.collector.Collect(ctx, address, opts)
}

// CollectMany aggregates several tokens with bounded concurrency. The
// result order matches addresses.
func (r *Runner) CollectMany(ctx context.Context, addresses []string, opts collector.Options) []*market.TokenMarketRecord {
	defer logger.TrackPerformance(r.logger, "collect_many")()

	records := make([]*market.TokenMarketRecord, len(addresses))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(batchWorkers)
	for i, addr := range addresses {
		i, addr := i, addr
		g.Go(func() error {
			records[i] = r.collector.Collect(gCtx, addr, opts)
			return nil
		})
	}
	_ = g.Wait()
	return records
}

// Serve runs the HTTP API until ctx is cancelled.
func (r *Runner) Serve(ctx context.Context) error {
	srv := api.NewServer(r.config.API, r.collector, r.registry, r.config.Collector.MaxSources, r.logger)
	return srv.Run(ctx)
}

// Watch runs the terminal view for one token.
func (r *Runner) Watch(ctx context.Context, address string, interval time.Duration, opts collector.Options) error {
	if interval <= 0 {
		interval = r.config.Collector.WatchInterval
	}
	model := ui.NewWatchModel(ctx, func(ctx context.Context) *market.TokenMarketRecord {
		return r.collector.Collect(ctx, address, opts)
	}, interval)

	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// Close releases the cache connection and other resources, then flushes
// the logger.
func (r *Runner) Close(ctx context.Context) error {
	return r.shutdown.Shutdown(ctx)
}
