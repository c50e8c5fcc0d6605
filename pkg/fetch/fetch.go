// Package fetch fans profile requests out to platform adapters concurrently
// and collects exactly one Result per request.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

// Adapter fetches one user's profile from one platform.
type Adapter interface {
	Platform() profile.Platform
	Fetch(ctx context.Context, username string) (*profile.Profile, error)
}

// Request identifies one profile to fetch.
type Request struct {
	Platform profile.Platform `json:"platform"`
	Username string           `json:"username"`
}

func (r Request) String() string { return string(r.Platform) + ":" + r.Username }

// Observer is notified after every completed request. kind is empty on success.
type Observer func(platform profile.Platform, kind profile.ErrorKind, elapsed time.Duration)

// Fetcher dispatches requests to registered adapters.
type Fetcher struct {
	adapters map[profile.Platform]Adapter
	logger   *slog.Logger
	observer Observer
	timeout  time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// WithTimeout bounds each individual request. Zero means no bound beyond
// the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithObserver installs a completion callback, typically for metrics.
func WithObserver(o Observer) Option {
	return func(f *Fetcher) { f.observer = o }
}

// New creates a Fetcher over the given adapters. A later adapter for the
// same platform replaces an earlier one.
func New(adapters []Adapter, opts ...Option) *Fetcher {
	f := &Fetcher{
		adapters: make(map[profile.Platform]Adapter, len(adapters)),
		logger:   slog.Default(),
	}
	for _, a := range adapters {
		f.adapters[a.Platform()] = a
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchMany fetches every distinct request concurrently. One request failing
// never cancels or affects the others; each failure is captured in its own
// Result. The returned map has exactly one entry per distinct request.
func (f *Fetcher) FetchMany(ctx context.Context, reqs []Request) map[Request]profile.Result {
	results := make(map[Request]profile.Result, len(reqs))
	var mu sync.Mutex
	var wg sync.WaitGroup

	seen := make(map[Request]bool, len(reqs))
	for _, req := range reqs {
		if seen[req] {
			continue
		}
		seen[req] = true

		wg.Add(1)
		go func(req Request) {
			defer wg.Done()
			r := f.fetchOne(ctx, req)
			mu.Lock()
			results[req] = r
			mu.Unlock()
		}(req)
	}

	wg.Wait()
	return results
}

// FetchUser fetches every non-blank handle of one person.
func (f *Fetcher) FetchUser(ctx context.Context, h profile.Handles) map[profile.Platform]profile.Result {
	var reqs []Request
	for _, p := range h.Active() {
		reqs = append(reqs, Request{Platform: p, Username: h.Get(p)})
	}
	out := make(map[profile.Platform]profile.Result, len(reqs))
	for req, r := range f.FetchMany(ctx, reqs) {
		out[req.Platform] = r
	}
	return out
}

func (f *Fetcher) fetchOne(ctx context.Context, req Request) (result profile.Result) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			f.logger.ErrorContext(ctx, "adapter panicked", "platform", req.Platform, "username", req.Username, "panic", rec)
			result = profile.Fail(&profile.FetchError{
				Platform: req.Platform,
				Username: req.Username,
				Kind:     profile.KindUpstreamUnavailable,
				Err:      fmt.Errorf("adapter panic: %v", rec),
			})
		}
		if f.observer != nil {
			var kind profile.ErrorKind
			if fe := result.Err(); fe != nil {
				kind = fe.Kind
			}
			f.observer(req.Platform, kind, time.Since(start))
		}
	}()

	adapter, ok := f.adapters[req.Platform]
	if !ok {
		return profile.Fail(&profile.FetchError{
			Platform: req.Platform,
			Username: req.Username,
			Kind:     profile.KindValidation,
			Err:      fmt.Errorf("unsupported platform %q", req.Platform),
		})
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	p, err := adapter.Fetch(ctx, req.Username)
	result = profile.Settle(req.Platform, req.Username, p, err)

	if fe := result.Err(); fe != nil {
		level := slog.LevelWarn
		if errors.Is(err, profile.ErrProfileNotFound) || errors.Is(err, profile.ErrInvalidUsername) {
			level = slog.LevelInfo
		}
		f.logger.Log(ctx, level, "profile fetch failed",
			"platform", req.Platform, "username", req.Username, "kind", fe.Kind, "error", err)
	}
	return result
}
