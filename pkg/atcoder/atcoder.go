// Package atcoder fetches AtCoder user profile data.
package atcoder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/cpcompare/pkg/htmlutil"
	"github.com/codeGROOVE-dev/cpcompare/pkg/httpcache"
	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

const (
	platform       = profile.AtCoder
	defaultBaseURL = "https://atcoder.jp"
)

type platformInfo struct{}

func (platformInfo) Name() profile.Platform      { return platform }
func (platformInfo) Match(url string) bool       { return Match(url) }
func (platformInfo) ValidUsername(s string) bool { return handlePattern.MatchString(s) }

func init() { profile.Register(platformInfo{}) }

var (
	usernamePattern = regexp.MustCompile(`(?i)atcoder\.jp/users/([a-zA-Z0-9_]+)`)
	handlePattern   = regexp.MustCompile(`^[a-zA-Z0-9_]{1,32}$`)
)

// Match returns true if the URL is an AtCoder profile URL.
func Match(urlStr string) bool {
	lower := strings.ToLower(urlStr)
	if !strings.Contains(lower, "atcoder.jp") {
		return false
	}
	return usernamePattern.MatchString(urlStr)
}

// Client handles AtCoder requests.
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

// WithBaseURL overrides the AtCoder origin.
func WithBaseURL(u string) Option {
	return func(c *config) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New creates an AtCoder client.
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

var (
	gradePattern   = regexp.MustCompile(`(?i)<b[^>]*>\s*(\d+\s+(?:Kyu|Dan)|Legend|King)\s*</b>`)
	countryPattern = regexp.MustCompile(`(?i)<img[^>]+flag-([a-z]{2})[^>]*>`)
	avatarPattern  = regexp.MustCompile(`(?i)<img[^>]+class="avatar"[^>]+src="([^"]+)"`)
)

//nolint:govet // fieldalignment: struct ordering for JSON readability
type apiHistoryEntry struct {
	IsRated           bool   `json:"IsRated"`
	Place             int    `json:"Place"`
	OldRating         int    `json:"OldRating"`
	NewRating         int    `json:"NewRating"`
	Performance       int    `json:"Performance"`
	ContestName       string `json:"ContestName"`
	ContestScreenName string `json:"ContestScreenName"`
	EndTime           string `json:"EndTime"`
}

// Fetch retrieves an AtCoder profile. input is a username or a profile URL.
// The profile page supplies rating and rank; the history endpoint supplies
// per-contest results.
func (c *Client) Fetch(ctx context.Context, input string) (*profile.Profile, error) {
	username, err := resolveUsername(input)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "fetching atcoder profile", "username", username)

	page, err := c.get(ctx, c.baseURL+"/users/"+username)
	if err != nil {
		return nil, err
	}
	content := string(page)
	if htmlutil.IsNotFound(content) {
		return nil, profile.ErrProfileNotFound
	}

	history, err := c.get(ctx, c.baseURL+"/users/"+username+"/history/json")
	if err != nil {
		return nil, err
	}
	var entries []apiHistoryEntry
	if err := json.Unmarshal(history, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse atcoder history: %w", err)
	}

	ac := parseProfile(content, c.baseURL)
	ac.Contests = parseHistory(entries)
	if ac.ContestCount == nil {
		ac.ContestCount = profile.IntPtr(len(ac.Contests))
	}

	return &profile.Profile{
		Platform: platform,
		Username: username,
		AtCoder:  ac,
	}, nil
}

func (c *Client) get(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", httpcache.UserAgent)

	body, err := httpcache.FetchURL(ctx, c.cache, c.httpClient, req, c.logger)
	if err != nil {
		if httpcache.IsStatus(err, http.StatusNotFound) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, err
	}
	return body, nil
}

func parseProfile(html, baseURL string) *profile.AtCoderProfile {
	p := &profile.AtCoderProfile{}

	if m := avatarPattern.FindStringSubmatch(html); len(m) > 1 {
		avatarURL := m[1]
		if strings.HasPrefix(avatarURL, "//") {
			avatarURL = "https:" + avatarURL
		} else if !strings.HasPrefix(avatarURL, "http") {
			avatarURL = baseURL + avatarURL
		}
		if !strings.Contains(avatarURL, "icon_default_user") {
			p.Avatar = avatarURL
		}
	}

	if m := countryPattern.FindStringSubmatch(html); len(m) > 1 {
		p.Country = strings.ToUpper(m[1])
	}
	p.Affiliation = htmlutil.TableCell(html, "Affiliation")
	if m := gradePattern.FindStringSubmatch(html); len(m) > 1 {
		p.CurrentRank = strings.Join(strings.Fields(m[1]), " ")
	}
	p.LastCompeted = htmlutil.TableCell(html, "Last Competed")

	p.UserRating = htmlutil.TableInt(html, "Rating")
	p.UserMaxRating = htmlutil.TableInt(html, "Highest Rating")
	p.UserRank = htmlutil.TableInt(html, "Rank")
	p.ContestCount = htmlutil.TableInt(html, "Rated Matches")

	return p
}

// parseHistory keeps rated entries only, in chronological order.
func parseHistory(entries []apiHistoryEntry) []profile.AtCoderContest {
	out := make([]profile.AtCoderContest, 0, len(entries))
	for _, e := range entries {
		if !e.IsRated {
			continue
		}
		screen, _, _ := strings.Cut(e.ContestScreenName, ".")
		out = append(out, profile.AtCoderContest{
			ContestName:       e.ContestName,
			ContestScreenName: screen,
			ContestURL:        "https://atcoder.jp/contests/" + screen,
			Rank:              e.Place,
			Performance:       e.Performance,
			OldRating:         e.OldRating,
			NewRating:         e.NewRating,
		})
	}
	return out
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
