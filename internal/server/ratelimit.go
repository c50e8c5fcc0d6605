package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitInfo is the limiter state reported to the caller.
type RateLimitInfo struct {
	ResetAt   time.Time
	Limit     int
	Remaining int
}

func (i RateLimitInfo) setHeaders(w http.ResponseWriter) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(i.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(i.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(i.ResetAt.Unix(), 10))
}

func (i RateLimitInfo) retryAfter() string {
	secs := int(time.Until(i.ResetAt).Seconds() + 1)
	return strconv.Itoa(max(secs, 1))
}

type window struct {
	start time.Time
	count int
}

// RateLimiter allows a fixed number of requests per key in each window.
type RateLimiter struct {
	windows map[string]*window
	now     func() time.Time
	limit   int
	period  time.Duration
	mu      sync.Mutex
}

// NewRateLimiter creates a RateLimiter allowing limit requests per period.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
		limit:   limit,
		period:  period,
	}
}

// Allow counts one request for key and reports whether it is within the limit.
func (l *RateLimiter) Allow(key string) (bool, RateLimitInfo) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		if len(l.windows) > 10_000 {
			l.sweep(now)
		}
		w = &window{start: now}
		l.windows[key] = w
	}

	info := RateLimitInfo{Limit: l.limit, ResetAt: w.start.Add(l.period)}
	if w.count >= l.limit {
		return false, info
	}
	w.count++
	info.Remaining = l.limit - w.count
	return true, info
}

// sweep drops expired windows. Callers hold l.mu.
func (l *RateLimiter) sweep(now time.Time) {
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.period {
			delete(l.windows, k)
		}
	}
}
