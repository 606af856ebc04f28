// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rovshanmuradov/solana-market-collector/internal/collector"
	"github.com/rovshanmuradov/solana-market-collector/internal/config"
	"github.com/rovshanmuradov/solana-market-collector/internal/market"
	"go.uber.org/zap"
)

// Collector is the part of collector.Collector the API needs.
type Collector interface {
	Collect(ctx context.Context, address string, opts collector.Options) *market.TokenMarketRecord
	SourceNames() []string
}

type ctxKey struct{}

// RequestID returns the id assigned by the request middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Server is the read-only HTTP front of the collector.
type Server struct {
	router     *mux.Router
	server     *http.Server
	collector  Collector
	gatherer   prometheus.Gatherer
	maxSources int
	logger     *zap.Logger
}

// NewServer wires routes. gatherer backs /metrics; maxSources is the
// default cap applied when a request does not set one.
func NewServer(cfg config.APIConfig, c Collector, gatherer prometheus.Gatherer, maxSources int, logger *zap.Logger) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		collector:  c,
		gatherer:   gatherer,
		maxSources: maxSources,
		logger:     logger.Named("api"),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(jsonContentTypeMiddleware)
	api.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	api.HandleFunc("/v1/tokens/{address}", s.token).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.server.Addr))
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"sources": s.collector.SourceNames(),
	})
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	opts, err := s.parseOptions(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	rec := s.collector.Collect(r.Context(), address, opts)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) parseOptions(r *http.Request) (collector.Options, error) {
	opts := collector.DefaultOptions()
	opts.MaxSources = s.maxSources
	q := r.URL.Query()

	flags := []struct {
		name string
		dst  *bool
	}{
		{"historical", &opts.IncludeHistorical},
		{"onchain", &opts.IncludeOnChain},
		{"social", &opts.IncludeSocial},
		{"risk", &opts.IncludeRiskAnalysis},
	}
	for _, f := range flags {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, fmt.Errorf("invalid %s: %q", f.name, raw)
		}
		*f.dst = v
	}

	if raw := q.Get("maxSources"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid maxSources: %q", raw)
		}
		opts.MaxSources = n
	}
	return opts, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), ctxKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		s.logger.Info("request",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapper.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr))
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
