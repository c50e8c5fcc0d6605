package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/cpcompare/pkg/httpcache"
	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

// DefaultProfileTTL is how long a fetched profile is reused.
const DefaultProfileTTL = 5 * time.Minute

type cachedAdapter struct {
	next  Adapter
	cache httpcache.Cacher
}

// Cached memoizes successful profiles from next, keyed by platform and
// username. Failures and partial profiles are never stored. Concurrent
// misses for the same key share a single upstream fetch.
func Cached(next Adapter, cache httpcache.Cacher) Adapter {
	if cache == nil {
		return next
	}
	return &cachedAdapter{next: next, cache: cache}
}

// NewProfileCache returns an in-memory cache suitable for Cached.
func NewProfileCache(ttl time.Duration) httpcache.Cacher {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return httpcache.NewMemory(ttl)
}

func (c *cachedAdapter) Platform() profile.Platform { return c.next.Platform() }

func (c *cachedAdapter) Fetch(ctx context.Context, username string) (*profile.Profile, error) {
	key := "profile:" + string(c.next.Platform()) + ":" + strings.TrimSpace(username)

	data, err := c.cache.GetSet(ctx, key, func(ctx context.Context) ([]byte, error) {
		p, err := c.next.Fetch(ctx, username)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%s adapter returned no profile", c.next.Platform())
		}
		if p.Partial {
			return nil, &uncachedProfile{p: p}
		}
		return json.Marshal(p)
	}, c.cache.TTL())
	var uncached *uncachedProfile
	if errors.As(err, &uncached) {
		return uncached.p, nil
	}
	if err != nil {
		return nil, err
	}

	var p profile.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode cached profile: %w", err)
	}
	return &p, nil
}

// uncachedProfile carries a partial profile out of GetSet without storing it.
type uncachedProfile struct{ p *profile.Profile }

func (*uncachedProfile) Error() string { return "partial profile" }
