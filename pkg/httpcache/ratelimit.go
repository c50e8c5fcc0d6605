package httpcache

import (
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// globalRateLimiter enforces a minimum delay between requests to the same
// domain, even when many goroutines fetch concurrently.
var globalRateLimiter = NewDomainRateLimiter(250 * time.Millisecond)

func init() {
	// Codeforces asks API clients to stay well below a handful of calls per second.
	globalRateLimiter.SetDomainDelay("codeforces.com", 500*time.Millisecond)
}

// SetRateLimit replaces the process-wide default per-domain delay.
func SetRateLimit(minDelay time.Duration) {
	globalRateLimiter.setMinDelay(minDelay)
}

// SetDomainDelay overrides the process-wide delay for one domain.
func SetDomainDelay(domain string, delay time.Duration) {
	globalRateLimiter.SetDomainDelay(domain, delay)
}

// DomainRateLimiter enforces a minimum delay between requests to the same domain.
// It is safe for concurrent use from multiple goroutines.
type DomainRateLimiter struct {
	overrides   map[string]time.Duration
	lastRequest sync.Map // map[string]time.Time
	mu          sync.Map // map[string]*sync.Mutex
	cfgMu       sync.RWMutex
	minDelay    time.Duration
}

// NewDomainRateLimiter creates a rate limiter that enforces minDelay between
// requests to the same domain.
func NewDomainRateLimiter(minDelay time.Duration) *DomainRateLimiter {
	return &DomainRateLimiter{
		minDelay:  minDelay,
		overrides: make(map[string]time.Duration),
	}
}

// SetDomainDelay sets a custom minimum delay for a specific domain.
func (r *DomainRateLimiter) SetDomainDelay(domain string, delay time.Duration) {
	r.cfgMu.Lock()
	defer r.cfgMu.Unlock()
	r.overrides[domain] = delay
}

func (r *DomainRateLimiter) setMinDelay(d time.Duration) {
	r.cfgMu.Lock()
	defer r.cfgMu.Unlock()
	r.minDelay = d
}

func (r *DomainRateLimiter) delayFor(domain string) time.Duration {
	r.cfgMu.RLock()
	defer r.cfgMu.RUnlock()
	if d, ok := r.overrides[domain]; ok {
		return d
	}
	return r.minDelay
}

// Wait blocks until it's safe to make a request to the given URL's domain.
func (r *DomainRateLimiter) Wait(rawURL string, logger *slog.Logger) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return
	}
	domain := u.Hostname()

	muI, _ := r.mu.LoadOrStore(domain, &sync.Mutex{})
	mu, ok := muI.(*sync.Mutex)
	if !ok {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	delay := r.delayFor(domain)
	if lastI, ok := r.lastRequest.Load(domain); ok {
		if last, ok := lastI.(time.Time); ok {
			if elapsed := time.Since(last); elapsed < delay {
				waitTime := delay - elapsed
				if logger != nil {
					logger.Debug("rate limit pause", "domain", domain, "wait", waitTime)
				}
				time.Sleep(waitTime)
			}
		}
	}

	r.lastRequest.Store(domain, time.Now())
}
