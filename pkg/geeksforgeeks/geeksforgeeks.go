// Package geeksforgeeks fetches GeeksforGeeks user profile data.
package geeksforgeeks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/cpcompare/pkg/httpcache"
	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

const (
	platform       = profile.GeeksforGeeks
	defaultBaseURL = "https://geeks-for-geeks-api.vercel.app"
)

// strippedFields are removed from the upstream document at every depth.
var strippedFields = []string{"maxStreak"}

type platformInfo struct{}

func (platformInfo) Name() profile.Platform      { return platform }
func (platformInfo) Match(url string) bool       { return Match(url) }
func (platformInfo) ValidUsername(s string) bool { return handlePattern.MatchString(s) }

func init() { profile.Register(platformInfo{}) }

var (
	usernamePattern = regexp.MustCompile(`(?i)(?:geeksforgeeks\.org|gfg\.dev)/(?:user|profile)/([a-zA-Z0-9_]+)`)
	handlePattern   = regexp.MustCompile(`^[a-zA-Z0-9_]{1,64}$`)
)

// Match returns true if the URL is a GeeksforGeeks profile URL.
func Match(urlStr string) bool {
	lower := strings.ToLower(urlStr)
	if !strings.Contains(lower, "geeksforgeeks.org") && !strings.Contains(lower, "gfg.dev") {
		return false
	}
	return usernamePattern.MatchString(urlStr)
}

// Client handles GeeksforGeeks requests.
type Client struct {
	httpClient *http.Client
	cache      httpcache.Cacher
	logger     *slog.Logger
	baseURL    string
}

// Option configures a Client.
type Option func(*config)

type config struct {
	cache   httpcache.Cacher
	logger  *slog.Logger
	baseURL string
	timeout time.Duration
}

// WithHTTPCache sets the HTTP cache.
func WithHTTPCache(httpCache httpcache.Cacher) Option {
	return func(c *config) { c.cache = httpCache }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithBaseURL overrides the profile API origin.
func WithBaseURL(u string) Option {
	return func(c *config) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New creates a GeeksforGeeks client.
func New(_ context.Context, opts ...Option) (*Client, error) {
	cfg := &config{logger: slog.Default(), baseURL: defaultBaseURL, timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.timeout},
		cache:      cfg.cache,
		logger:     cfg.logger,
		baseURL:    cfg.baseURL,
	}, nil
}

// Platform returns the platform this client serves.
func (*Client) Platform() profile.Platform { return platform }

// Fetch retrieves a GeeksforGeeks profile. input is a username or a profile URL.
// The upstream document is passed through unchanged apart from stripped fields.
func (c *Client) Fetch(ctx context.Context, input string) (*profile.Profile, error) {
	username, err := resolveUsername(input)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "fetching geeksforgeeks profile", "username", username)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+username, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", httpcache.UserAgent)

	body, err := httpcache.FetchURLWithValidator(ctx, c.cache, c.httpClient, req, c.logger, cacheable)
	if err != nil {
		if httpcache.IsStatus(err, http.StatusNotFound) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse geeksforgeeks response: %w", err)
	}
	if len(doc) == 0 {
		return nil, profile.ErrProfileNotFound
	}
	if msg, ok := doc["error"]; ok {
		return nil, fmt.Errorf("%w: %v", profile.ErrProfileNotFound, msg)
	}

	for _, f := range strippedFields {
		strip(doc, f)
	}

	return &profile.Profile{
		Platform:      platform,
		Username:      username,
		GeeksforGeeks: &profile.GeeksforGeeksProfile{Fields: doc},
	}, nil
}

// cacheable rejects error documents so a transient upstream miss is retried
// on the next request.
func cacheable(body []byte) bool {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return false
	}
	_, failed := doc["error"]
	return len(doc) > 0 && !failed
}

// strip deletes key from v and from every nested object or array element.
func strip(v any, key string) {
	switch t := v.(type) {
	case map[string]any:
		delete(t, key)
		for _, child := range t {
			strip(child, key)
		}
	case []any:
		for _, child := range t {
			strip(child, key)
		}
	}
}

// resolveUsername accepts a bare handle or a profile URL.
func resolveUsername(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", fmt.Errorf("%w: empty", profile.ErrInvalidUsername)
	}
	if Match(s) {
		s = extractUsername(s)
	}
	if !handlePattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", profile.ErrInvalidUsername, input)
	}
	return s, nil
}

func extractUsername(urlStr string) string {
	matches := usernamePattern.FindStringSubmatch(urlStr)
	if len(matches) > 1 {
		return matches[1]
	}
	return ""
}
