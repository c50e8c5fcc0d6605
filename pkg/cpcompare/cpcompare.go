// Package cpcompare provides a unified API for fetching competitive
// programming profiles and comparing two users across platforms.
//
// Basic usage:
//
//	client, err := cpcompare.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cmp, err := client.Compare(ctx,
//	    profile.Handles{LeetCode: "alice", Codeforces: "alice_cf"},
//	    profile.Handles{LeetCode: "bob"})
//	fmt.Println(cmp.Report.Overall.Winner)
//
// Or fetch a single profile by URL:
//
//	p, err := cpcompare.Fetch(ctx, "https://codeforces.com/profile/tourist")
package cpcompare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/cpcompare/pkg/atcoder"
	"github.com/codeGROOVE-dev/cpcompare/pkg/codeforces"
	"github.com/codeGROOVE-dev/cpcompare/pkg/compare"
	"github.com/codeGROOVE-dev/cpcompare/pkg/fetch"
	"github.com/codeGROOVE-dev/cpcompare/pkg/geeksforgeeks"
	"github.com/codeGROOVE-dev/cpcompare/pkg/httpcache"
	"github.com/codeGROOVE-dev/cpcompare/pkg/leetcode"
	"github.com/codeGROOVE-dev/cpcompare/pkg/metric"
	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

// Re-export common errors.
var (
	ErrInvalidUsername = profile.ErrInvalidUsername
	ErrProfileNotFound = profile.ErrProfileNotFound
	ErrNoUsernames     = errors.New("at least one username is required")
	ErrUnsupportedURL  = errors.New("URL does not match a supported platform")
)

// Option configures a Client.
type Option func(*config)

//nolint:govet // fieldalignment: intentional layout for readability
type config struct {
	httpCache    httpcache.Cacher
	logger       *slog.Logger
	profileTTL   time.Duration
	noProfiles   bool
	fetchTimeout time.Duration
	observer     fetch.Observer
	adapters     []fetch.Adapter
}

// WithHTTPCache sets the HTTP cache for upstream responses.
func WithHTTPCache(httpCache httpcache.Cacher) Option {
	return func(c *config) { c.httpCache = httpCache }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithProfileTTL sets how long normalized profiles are reused. Zero or a
// negative value disables profile caching.
func WithProfileTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.profileTTL = ttl
		c.noProfiles = ttl <= 0
	}
}

// WithFetchTimeout bounds each platform fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *config) { c.fetchTimeout = d }
}

// WithObserver receives one callback per completed platform fetch.
func WithObserver(o fetch.Observer) Option {
	return func(c *config) { c.observer = o }
}

// WithAdapters replaces the built-in adapter for each given platform.
func WithAdapters(adapters ...fetch.Adapter) Option {
	return func(c *config) { c.adapters = append(c.adapters, adapters...) }
}

// Client fetches, normalizes, and compares profiles.
type Client struct {
	fetcher *fetch.Fetcher
	logger  *slog.Logger
}

// New creates a Client with adapters for every supported platform.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &config{logger: slog.Default(), profileTTL: fetch.DefaultProfileTTL, fetchTimeout: 30 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	lc, err := leetcode.New(ctx, leetcode.WithHTTPCache(cfg.httpCache), leetcode.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("leetcode client: %w", err)
	}
	cf, err := codeforces.New(ctx, codeforces.WithHTTPCache(cfg.httpCache), codeforces.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("codeforces client: %w", err)
	}
	ac, err := atcoder.New(ctx, atcoder.WithHTTPCache(cfg.httpCache), atcoder.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("atcoder client: %w", err)
	}
	gfg, err := geeksforgeeks.New(ctx, geeksforgeeks.WithHTTPCache(cfg.httpCache), geeksforgeeks.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("geeksforgeeks client: %w", err)
	}

	adapters := append([]fetch.Adapter{lc, cf, ac, gfg}, cfg.adapters...)
	if !cfg.noProfiles {
		cache := fetch.NewProfileCache(cfg.profileTTL)
		for i, a := range adapters {
			adapters[i] = fetch.Cached(a, cache)
		}
	}

	fopts := []fetch.Option{fetch.WithLogger(cfg.logger), fetch.WithTimeout(cfg.fetchTimeout)}
	if cfg.observer != nil {
		fopts = append(fopts, fetch.WithObserver(cfg.observer))
	}

	return &Client{
		fetcher: fetch.New(adapters, fopts...),
		logger:  cfg.logger,
	}, nil
}

// Fetch retrieves a profile by URL. The platform is detected from the URL.
func Fetch(ctx context.Context, url string, opts ...Option) (*profile.Profile, error) {
	c, err := New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	r := c.FetchURL(ctx, url)
	if p, ok := r.Profile(); ok {
		return p, nil
	}
	return nil, r.Err()
}

// Fetch retrieves one user's profile on one platform.
func (c *Client) Fetch(ctx context.Context, platform profile.Platform, username string) profile.Result {
	req := fetch.Request{Platform: platform, Username: username}
	return c.fetcher.FetchMany(ctx, []fetch.Request{req})[req]
}

// FetchURL retrieves the profile a platform URL points to.
func (c *Client) FetchURL(ctx context.Context, url string) profile.Result {
	info := profile.MatchURL(url)
	if info == nil {
		return profile.Fail(&profile.FetchError{
			Kind: profile.KindValidation,
			Err:  fmt.Errorf("%w: %s", ErrUnsupportedURL, url),
		})
	}
	return c.Fetch(ctx, info.Name(), url)
}

// FetchUser retrieves every platform a person has a handle for.
func (c *Client) FetchUser(ctx context.Context, h profile.Handles) map[profile.Platform]profile.Result {
	return c.fetcher.FetchUser(ctx, h)
}

// Summary is one profile with its derived figures.
type Summary struct {
	Result   profile.Result  `json:"profile"`
	Metrics  metric.Set      `json:"metrics,omitempty"`
	Insights metric.Insights `json:"insights"`
}

// Summarize fetches one profile and derives its metrics.
func (c *Client) Summarize(ctx context.Context, platform profile.Platform, username string) (Summary, error) {
	r := c.Fetch(ctx, platform, username)
	s := Summary{Result: r}
	p, ok := r.Profile()
	if !ok {
		return s, r.Err()
	}
	set, err := metric.Extract(p)
	if err != nil {
		return s, err
	}
	s.Metrics = set
	s.Insights = metric.Analyze(p)
	return s, nil
}

// UserReport holds one side of a comparison.
type UserReport struct {
	Handles  profile.Handles                      `json:"handles"`
	Profiles map[profile.Platform]profile.Result  `json:"profiles"`
	Metrics  metric.Set                           `json:"metrics"`
	Insights map[profile.Platform]metric.Insights `json:"insights,omitempty"`
}

// Comparison is the full outcome of comparing two users.
type Comparison struct {
	User1  UserReport     `json:"user1"`
	User2  UserReport     `json:"user2"`
	Report compare.Report `json:"comparison"`
}

// Compare fetches both users on every platform they have a handle for,
// in one concurrent round, and compares the metrics that succeeded. Failed
// platforms appear as errors in the report and never fail the comparison.
func (c *Client) Compare(ctx context.Context, user1, user2 profile.Handles) (*Comparison, error) {
	if user1.Empty() && user2.Empty() {
		return nil, ErrNoUsernames
	}

	var reqs []fetch.Request
	for _, h := range []profile.Handles{user1, user2} {
		for _, p := range h.Active() {
			reqs = append(reqs, fetch.Request{Platform: p, Username: h.Get(p)})
		}
	}
	results := c.fetcher.FetchMany(ctx, reqs)

	r1, err := c.report(user1, results)
	if err != nil {
		return nil, err
	}
	r2, err := c.report(user2, results)
	if err != nil {
		return nil, err
	}

	report := compare.Build(r1.Metrics, r2.Metrics)
	c.logger.DebugContext(ctx, "comparison complete",
		"fetches", len(results), "platforms", len(report.Platforms), "winner", report.Overall.Winner)

	return &Comparison{User1: r1, User2: r2, Report: report}, nil
}

func (*Client) report(h profile.Handles, results map[fetch.Request]profile.Result) (UserReport, error) {
	rep := UserReport{
		Handles:  h,
		Profiles: make(map[profile.Platform]profile.Result),
		Insights: make(map[profile.Platform]metric.Insights),
	}
	ok := make(map[profile.Platform]profile.Result)
	for _, p := range h.Active() {
		r := results[fetch.Request{Platform: p, Username: h.Get(p)}]
		rep.Profiles[p] = r
		if prof, good := r.Profile(); good {
			ok[p] = r
			if in := metric.Analyze(prof); in.RatingTrend != nil {
				rep.Insights[p] = in
			}
		}
	}
	set, err := metric.FromResults(ok)
	if err != nil {
		return rep, err
	}
	rep.Metrics = set
	return rep, nil
}
