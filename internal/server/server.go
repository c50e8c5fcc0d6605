// Package server exposes cpcompare over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/codeGROOVE-dev/cpcompare/internal/metrics"
	"github.com/codeGROOVE-dev/cpcompare/pkg/cpcompare"
	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
	"github.com/codeGROOVE-dev/cpcompare/pkg/session"
)

// Profiles is the part of cpcompare.Client the HTTP layer needs.
type Profiles interface {
	Fetch(ctx context.Context, platform profile.Platform, username string) profile.Result
	Summarize(ctx context.Context, platform profile.Platform, username string) (cpcompare.Summary, error)
	Compare(ctx context.Context, user1, user2 profile.Handles) (*cpcompare.Comparison, error)
}

// Server routes HTTP requests to profile fetching, comparison and the
// saved-pair service.
//
//nolint:govet // fieldalignment: grouped by concern
type Server struct {
	profiles Profiles
	sessions *session.Service
	metrics  *metrics.Metrics
	limiter  *RateLimiter
	logger   *slog.Logger
	origins  []string

	trustProxy bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics records request and fetch metrics and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRateLimit caps each client at perMinute API requests per minute.
// Zero disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		if perMinute > 0 {
			s.limiter = NewRateLimiter(perMinute, time.Minute)
		} else {
			s.limiter = nil
		}
	}
}

// WithAllowedOrigins sets the CORS origins allowed to call the API.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithProxyHeaders takes the caller address from X-Forwarded-For and
// X-Real-IP. Enable it only behind a proxy that overwrites those headers.
func WithProxyHeaders(trust bool) Option {
	return func(s *Server) { s.trustProxy = trust }
}

// New creates a Server.
func New(profiles Profiles, sessions *session.Service, opts ...Option) *Server {
	s := &Server{
		profiles: profiles,
		sessions: sessions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.NewRoute().Subrouter()
	if s.limiter != nil {
		api.Use(s.rateLimit)
	}
	api.HandleFunc("/compare", s.handleCompare).Methods(http.MethodPost)
	api.HandleFunc("/saved", s.handleListSaved).Methods(http.MethodGet)
	api.HandleFunc("/saved", s.handleSave).Methods(http.MethodPost)
	api.HandleFunc("/saved/{index:[0-9]+}", s.handleDeleteSaved).Methods(http.MethodDelete)
	api.HandleFunc("/{platform}/{username}", s.handleProfile).Methods(http.MethodGet)
	api.HandleFunc("/{platform}/{username}/metrics", s.handleProfileMetrics).Methods(http.MethodGet)

	errLog := slog.NewLogLogger(s.logger.Handler(), slog.LevelError)
	accessLog := slog.NewLogLogger(s.logger.Handler(), slog.LevelInfo).Writer()

	var h http.Handler = r
	h = handlers.CORS(
		handlers.AllowedOrigins(s.origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type", clientHeader}),
		handlers.ExposedHeaders([]string{clientHeader}),
		handlers.AllowCredentials(),
	)(h)
	h = handlers.CompressHandler(h)
	h = handlers.CombinedLoggingHandler(accessLog, h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(errLog), handlers.PrintRecoveryStack(true))(h)
	if s.trustProxy {
		h = handlers.ProxyHeaders(h)
	}
	return h
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	s.logger.InfoContext(ctx, "shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.metrics.ObserveRequest(route, rec.status, time.Since(start))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, info := s.limiter.Allow(limitKey(r))
		info.setHeaders(w)
		if !ok {
			s.metrics.RateLimited()
			w.Header().Set("Retry-After", info.retryAfter())
			writeError(w, http.StatusTooManyRequests, errors.New("too many requests, please try again later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
