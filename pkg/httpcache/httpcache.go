// Package httpcache provides upstream HTTP response caching with thundering herd
// prevention, retries of transient failures, and per-domain rate limiting.
package httpcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/codeGROOVE-dev/sfcache"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/localfs"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/null"
)

// UserAgent is the browser User-Agent string sent by all adapters.
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:146.0) Gecko/20100101 Firefox/146.0"

// maxRetryWindow bounds the total time spent on one request including retries.
const maxRetryWindow = 20 * time.Second

// Stats tracks cache hit/miss statistics.
type Stats struct {
	Hits   int64
	Misses int64
}

var (
	hits   atomic.Int64
	misses atomic.Int64
)

// CacheStats returns the current cache statistics.
func CacheStats() Stats {
	return Stats{Hits: hits.Load(), Misses: misses.Load()}
}

// ResetStats resets the cache statistics.
func ResetStats() {
	hits.Store(0)
	misses.Store(0)
}

// Cacher allows external cache implementations for sharing across packages.
type Cacher interface {
	GetSet(ctx context.Context, key string, fetch func(context.Context) ([]byte, error), ttl ...time.Duration) ([]byte, error)
	TTL() time.Duration
}

// DefaultNegativeTTL caps how long a permanent 4xx answer is remembered.
const DefaultNegativeTTL = time.Minute

// Cache wraps sfcache for HTTP response caching.
type Cache struct {
	*sfcache.TieredCache[string, []byte]

	ttl    time.Duration
	negTTL time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithNegativeTTL sets how long 4xx answers are cached. Zero or a negative
// value disables caching them.
func WithNegativeTTL(d time.Duration) Option {
	return func(c *Cache) { c.negTTL = d }
}

func newCache(tc *sfcache.TieredCache[string, []byte], ttl time.Duration, opts []Option) *Cache {
	c := &Cache{TieredCache: tc, ttl: ttl, negTTL: DefaultNegativeTTL}
	if ttl > 0 {
		c.negTTL = min(DefaultNegativeTTL, ttl)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New creates a new Cache with disk persistence at ~/.cache/cpcompare.
func New(ttl time.Duration, opts ...Option) (*Cache, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return NewWithPath(ttl, filepath.Join(cacheDir, "cpcompare"), opts...)
}

// NewMemory creates a Cache that holds entries in memory only.
func NewMemory(ttl time.Duration, opts ...Option) *Cache {
	tc, err := sfcache.NewTiered[string, []byte](null.New[string, []byte](), sfcache.TTL(ttl))
	if err != nil {
		panic("sfcache.NewTiered with null store: " + err.Error())
	}
	return newCache(tc, ttl, opts)
}

// NewWithPath creates a new Cache with disk persistence at the specified path.
func NewWithPath(ttl time.Duration, cachePath string, opts ...Option) (*Cache, error) {
	if err := os.MkdirAll(cachePath, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	store, err := localfs.New[string, []byte]("cpcompare", cachePath)
	if err != nil {
		return nil, fmt.Errorf("create persistence layer: %w", err)
	}

	tc, err := sfcache.NewTiered[string, []byte](store, sfcache.TTL(ttl))
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return newCache(tc, ttl, opts), nil
}

// TTL returns the default TTL for cache entries.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// NegativeTTL returns how long 4xx answers are cached.
func (c *Cache) NegativeTTL() time.Duration {
	return c.negTTL
}

// negativeCacher stores 4xx markers under their own TTL.
type negativeCacher interface {
	setNegative(ctx context.Context, key string, code int) error
}

func (c *Cache) setNegative(ctx context.Context, key string, code int) error {
	if c.negTTL <= 0 {
		return nil
	}
	return c.Set(ctx, key, fmt.Appendf(nil, "ERROR:%d", code), c.negTTL)
}

// URLToKey converts a URL to a cache key using SHA256 hash.
func URLToKey(rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(hash[:])
}

// HTTPError represents an HTTP error response.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}

// IsStatus reports whether err is an HTTPError with one of the given codes.
func IsStatus(err error, codes ...int) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	for _, c := range codes {
		if httpErr.StatusCode == c {
			return true
		}
	}
	return false
}

// ResponseValidator validates a response body. Returns true if cacheable.
type ResponseValidator func(body []byte) bool

// FetchURL fetches a URL with caching and thundering herd prevention.
// If cache is non-nil, uses GetSet to ensure only one request is made for concurrent calls.
func FetchURL(ctx context.Context, cache Cacher, client *http.Client, req *http.Request, logger *slog.Logger) ([]byte, error) {
	return FetchURLWithValidator(ctx, cache, client, req, logger, nil)
}

// FetchURLWithValidator fetches a URL with caching and optional response validation.
// If validator returns false, the response is returned but NOT cached.
func FetchURLWithValidator(
	ctx context.Context,
	cache Cacher,
	client *http.Client,
	req *http.Request,
	logger *slog.Logger,
	validator ResponseValidator,
) ([]byte, error) {
	if cache == nil {
		misses.Add(1)
		return doFetch(ctx, client, req, logger)
	}

	cacheKey, err := requestKey(req)
	if err != nil {
		return nil, err
	}

	key := URLToKey(cacheKey)
	var wasFetched bool
	data, err := cache.GetSet(ctx, key, func(ctx context.Context) ([]byte, error) {
		wasFetched = true
		misses.Add(1)
		if logger != nil {
			logger.DebugContext(ctx, "cache miss", "url", req.URL.String())
		}
		body, fetchErr := doFetch(ctx, client, req, logger)
		if fetchErr != nil {
			// Permanent client errors are cached briefly below; transient
			// failures are not cached at all.
			var httpErr *HTTPError
			if errors.As(fetchErr, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 &&
				httpErr.StatusCode != http.StatusTooManyRequests {
				return nil, &negativeError{httpErr: httpErr}
			}
			return nil, fetchErr
		}
		if validator != nil && !validator(body) {
			if logger != nil {
				logger.DebugContext(ctx, "skipping cache due to validation failure", "url", req.URL.String())
			}
			return nil, &validationError{data: body}
		}
		return body, nil
	}, cache.TTL())

	if !wasFetched {
		hits.Add(1)
		if logger != nil {
			logger.DebugContext(ctx, "cache hit", "url", req.URL.String())
		}
	}

	var validErr *validationError
	if errors.As(err, &validErr) {
		return validErr.data, nil
	}
	var negErr *negativeError
	if errors.As(err, &negErr) {
		if nc, ok := cache.(negativeCacher); ok {
			if setErr := nc.setNegative(ctx, key, negErr.httpErr.StatusCode); setErr != nil && logger != nil {
				logger.WarnContext(ctx, "failed to cache error response", "url", req.URL.String(), "error", setErr)
			}
		}
		return nil, negErr.httpErr
	}
	if err != nil {
		return nil, err
	}

	if errCode, found := strings.CutPrefix(string(data), "ERROR:"); found {
		code, _ := strconv.Atoi(errCode) //nolint:errcheck // 0 is acceptable default
		return nil, &HTTPError{StatusCode: code, URL: req.URL.String()}
	}

	return data, nil
}

type validationError struct{ data []byte }

func (*validationError) Error() string { return "validation failed" }

// negativeError carries a permanent 4xx out of GetSet so it is stored with
// the negative TTL instead of the response TTL.
type negativeError struct{ httpErr *HTTPError }

func (e *negativeError) Error() string { return e.httpErr.Error() }

// requestKey builds the cache key. Requests with a body (GraphQL POSTs share
// one URL across users) include a digest of the body.
func requestKey(req *http.Request) (string, error) {
	key := req.Method + " " + req.URL.String()
	if req.GetBody == nil {
		return key, nil
	}
	rc, err := req.GetBody()
	if err != nil {
		return "", fmt.Errorf("read request body: %w", err)
	}
	defer rc.Close() //nolint:errcheck // in-memory body
	body, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read request body: %w", err)
	}
	sum := sha256.Sum256(body)
	return key + "|" + hex.EncodeToString(sum[:]), nil
}

func doFetch(ctx context.Context, client *http.Client, req *http.Request, logger *slog.Logger) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, maxRetryWindow)
	defer cancel()

	return retry.DoWithData(
		func() ([]byte, error) {
			globalRateLimiter.Wait(req.URL.String(), logger)

			attempt := req.Clone(ctx)
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, retry.Unrecoverable(err)
				}
				attempt.Body = body
			}

			resp, err := client.Do(attempt)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close() //nolint:errcheck // intentional

			if resp.StatusCode != http.StatusOK {
				return nil, &HTTPError{StatusCode: resp.StatusCode, URL: req.URL.String()}
			}

			return io.ReadAll(resp.Body)
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(200*time.Millisecond),
		retry.MaxJitter(100*time.Millisecond),
		retry.RetryIf(isRetryableError),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if logger != nil {
				logger.DebugContext(ctx, "retrying HTTP request", "attempt", n+1, "url", req.URL.String(), "error", err)
			}
		}),
	)
}

// isRetryableError returns true for transient errors that should be retried.
func isRetryableError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}
	return !errors.Is(err, context.Canceled)
}

// NewJSONRequest builds a request carrying a JSON body that can be replayed
// on retry.
func NewJSONRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	return req, nil
}
