// internal/sources/transport.go
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rovshanmuradov/solana-market-collector/internal/config"
	"github.com/rovshanmuradov/solana-market-collector/internal/metrics"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultRequestTimeout = 8 * time.Second
	defaultBackoff        = 250 * time.Millisecond
	maxBodySize           = 4 << 20
	// breakerThreshold consecutive failed calls open the breaker.
	breakerThreshold = 5
	breakerOpenFor   = 30 * time.Second
)

// NewHTTPClient returns the client shared by all HTTP sources.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
		},
	}
}

// transport wraps one provider's calls with rate limiting, retries and a
// circuit breaker.
type transport struct {
	name    string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	retries uint
	backoff time.Duration
	logger  *zap.Logger
}

func newTransport(name string, cfg config.SourceConfig, client *http.Client, logger *zap.Logger, m *metrics.Metrics) *transport {
	if client == nil {
		client = NewHTTPClient(cfg.Timeout)
	}

	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Limit(float64(cfg.RatePerMinute) / 60)
	}

	t := &transport{
		name:    name,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		retries: cfg.MaxRetries,
		backoff: defaultBackoff,
		logger:  logger.Named(name),
	}

	t.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     breakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerThreshold
		},
		IsSuccessful: func(err error) bool {
			// An unknown token or a caller giving up says nothing about
			// the provider's health.
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			t.logger.Warn("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			m.SetBreakerState(name, int(to))
		},
	})

	return t
}

// call runs op behind the breaker, retrying transient failures. op marks
// failures that must not be retried with backoff.Permanent.
func (t *transport) call(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := t.breaker.Execute(func() (interface{}, error) {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = t.backoff

		_, err := backoff.Retry(ctx, func() (struct{}, error) {
			if err := t.limiter.Wait(ctx); err != nil {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, op(ctx)
		},
			backoff.WithBackOff(b),
			backoff.WithMaxTries(t.retries+1),
			backoff.WithNotify(func(err error, next time.Duration) {
				t.logger.Debug("retrying request", zap.Error(err), zap.Duration("next", next))
			}),
		)
		return nil, err
	})
	return err
}

// getJSON fetches url and decodes the body into dst.
func (t *transport) getJSON(ctx context.Context, url string, header http.Header, dst interface{}) error {
	return t.call(ctx, func(ctx context.Context) error {
		return t.do(ctx, url, header, dst)
	})
}

func (t *transport) do(ctx context.Context, url string, header http.Header, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch code := resp.StatusCode; {
	case code == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return backoff.Permanent(ErrNotFound)
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return statusError(resp)
	case code < 200 || code >= 300:
		return backoff.Permanent(statusError(resp))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(dst); err != nil {
		return backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: %d, body: %s", ErrUnexpectedStatus, resp.StatusCode, string(body))
}
