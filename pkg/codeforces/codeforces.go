// Package codeforces fetches Codeforces user profile data.
package codeforces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/cpcompare/pkg/httpcache"
	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

const (
	platform       = profile.Codeforces
	defaultBaseURL = "https://codeforces.com"
	recentCount    = 10
)

type platformInfo struct{}

func (platformInfo) Name() profile.Platform      { return platform }
func (platformInfo) Match(url string) bool       { return Match(url) }
func (platformInfo) ValidUsername(s string) bool { return handlePattern.MatchString(s) }

func init() { profile.Register(platformInfo{}) }

var (
	usernamePattern = regexp.MustCompile(`(?i)codeforces\.com/profile/([a-zA-Z0-9_.-]+)`)
	handlePattern   = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,48}$`)
)

// Match returns true if the URL is a Codeforces profile URL.
func Match(urlStr string) bool {
	lower := strings.ToLower(urlStr)
	if !strings.Contains(lower, "codeforces.com") {
		return false
	}
	return usernamePattern.MatchString(urlStr)
}

// Client handles Codeforces requests.
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

// WithBaseURL overrides the API origin.
func WithBaseURL(u string) Option {
	return func(c *config) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New creates a Codeforces client.
func New(_ context.Context, opts ...Option) (*Client, error) {
	cfg := &config{logger: slog.Default(), baseURL: defaultBaseURL, timeout: 15 * time.Second}
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

type apiResponse[T any] struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
	Result  []T    `json:"result"`
}

//nolint:govet // fieldalignment: struct ordering for JSON readability
type apiUser struct {
	Handle           string `json:"handle"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Country          string `json:"country"`
	City             string `json:"city"`
	Organization     string `json:"organization"`
	Rank             string `json:"rank"`
	MaxRank          string `json:"maxRank"`
	TitlePhoto       string `json:"titlePhoto"`
	RegistrationTime int64  `json:"registrationTimeSeconds"`
	Rating           *int   `json:"rating"`
	MaxRating        *int   `json:"maxRating"`
	Contribution     int    `json:"contribution"`
}

//nolint:govet // fieldalignment: struct ordering for JSON readability
type apiRatingChange struct {
	ContestID   int    `json:"contestId"`
	ContestName string `json:"contestName"`
	Rank        int    `json:"rank"`
	OldRating   int    `json:"oldRating"`
	NewRating   int    `json:"newRating"`
}

//nolint:govet // fieldalignment: struct ordering for JSON readability
type apiSubmission struct {
	ID                  int64  `json:"id"`
	ContestID           int    `json:"contestId"`
	CreationTimeSeconds int64  `json:"creationTimeSeconds"`
	ProgrammingLanguage string `json:"programmingLanguage"`
	Verdict             string `json:"verdict"`
	TimeConsumedMillis  int    `json:"timeConsumedMillis"`
	MemoryConsumedBytes int64  `json:"memoryConsumedBytes"`
	Problem             struct {
		ContestID int    `json:"contestId"`
		Index     string `json:"index"`
		Name      string `json:"name"`
	} `json:"problem"`
}

// Fetch retrieves a Codeforces profile. input is a handle or a profile URL.
//
// It issues four API calls in order: user.info, user.rating, the most recent
// submissions, and the full submission list used to count solved problems.
func (c *Client) Fetch(ctx context.Context, input string) (*profile.Profile, error) {
	handle, err := resolveUsername(input)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "fetching codeforces profile", "handle", handle)

	q := url.Values{"handles": {handle}}
	users, err := call[apiUser](ctx, c, "user.info", q)
	if err != nil {
		if errors.Is(err, errAPIFailed) || httpcache.IsStatus(err, http.StatusBadRequest, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %v", profile.ErrProfileNotFound, err)
		}
		return nil, err
	}
	if len(users) == 0 {
		return nil, profile.ErrProfileNotFound
	}

	ratings, err := call[apiRatingChange](ctx, c, "user.rating", url.Values{"handle": {handle}})
	if err != nil && !errors.Is(err, errAPIFailed) {
		return nil, err
	}

	recent, err := call[apiSubmission](ctx, c, "user.status", url.Values{
		"handle": {handle}, "from": {"1"}, "count": {strconv.Itoa(recentCount)},
	})
	if err != nil && !errors.Is(err, errAPIFailed) {
		return nil, err
	}

	// A missing solved count degrades to zero rather than failing the profile.
	solved, partial := 0, false
	all, err := call[apiSubmission](ctx, c, "user.status", url.Values{"handle": {handle}})
	if err != nil {
		partial = true
		c.logger.WarnContext(ctx, "codeforces submission history unavailable", "handle", handle,
			"error", fmt.Errorf("%w: solved count: %w", profile.ErrPartialDerivation, err))
	} else {
		solved = countSolved(all)
	}

	cf := parseUser(&users[0])
	cf.SolvedCount = solved
	cf.RatingHistory = parseRatings(ratings)
	cf.RecentSubmissions = parseSubmissions(recent)

	return &profile.Profile{
		Platform:   platform,
		Username:   users[0].Handle,
		Partial:    partial,
		Codeforces: cf,
	}, nil
}

var errAPIFailed = errors.New("codeforces API returned non-OK status")

func call[T any](ctx context.Context, c *Client, method string, q url.Values) ([]T, error) {
	apiURL := c.baseURL + "/api/" + method + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", httpcache.UserAgent)

	body, err := httpcache.FetchURL(ctx, c.cache, c.httpClient, req, c.logger)
	if err != nil {
		return nil, err
	}

	var resp apiResponse[T]
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse codeforces %s response: %w", method, err)
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("%w: %s: %s", errAPIFailed, method, resp.Comment)
	}
	return resp.Result, nil
}

func parseUser(u *apiUser) *profile.CodeforcesProfile {
	p := &profile.CodeforcesProfile{
		DisplayName:  strings.TrimSpace(u.FirstName + " " + u.LastName),
		Avatar:       u.TitlePhoto,
		Rank:         orDefault(u.Rank, "unrated"),
		MaxRank:      orDefault(u.MaxRank, "unrated"),
		Organization: u.Organization,
		Country:      u.Country,
		City:         u.City,
		Contribution: u.Contribution,
	}
	// Unrated users either omit the rating or report zero.
	if u.Rating != nil && *u.Rating != 0 {
		p.Rating = u.Rating
	}
	if u.MaxRating != nil && *u.MaxRating != 0 {
		p.MaxRating = u.MaxRating
	}
	if u.RegistrationTime > 0 {
		p.RegisteredAt = time.Unix(u.RegistrationTime, 0).UTC().Format(time.RFC3339)
	}
	return p
}

func parseRatings(in []apiRatingChange) []profile.CodeforcesContest {
	out := make([]profile.CodeforcesContest, 0, len(in))
	for _, r := range in {
		out = append(out, profile.CodeforcesContest{
			ContestName:  r.ContestName,
			ContestID:    r.ContestID,
			Rank:         r.Rank,
			OldRating:    r.OldRating,
			NewRating:    r.NewRating,
			RatingChange: r.NewRating - r.OldRating,
			ContestURL:   fmt.Sprintf("https://codeforces.com/contest/%d", r.ContestID),
		})
	}
	return out
}

func parseSubmissions(in []apiSubmission) []profile.CodeforcesSubmission {
	out := make([]profile.CodeforcesSubmission, 0, len(in))
	for i := range in {
		s := &in[i]
		out = append(out, profile.CodeforcesSubmission{
			ProblemName:         s.Problem.Name,
			ContestID:           s.ContestID,
			Index:               s.Problem.Index,
			Language:            s.ProgrammingLanguage,
			Verdict:             s.Verdict,
			TimeConsumedMs:      s.TimeConsumedMillis,
			MemoryConsumedBytes: s.MemoryConsumedBytes,
			SubmissionTime:      s.CreationTimeSeconds,
			SubmissionURL:       fmt.Sprintf("https://codeforces.com/contest/%d/submission/%d", s.ContestID, s.ID),
		})
	}
	return out
}

// countSolved counts distinct problems with at least one accepted submission.
func countSolved(subs []apiSubmission) int {
	seen := make(map[string]struct{})
	for i := range subs {
		if subs[i].Verdict != "OK" {
			continue
		}
		key := fmt.Sprintf("%d-%s", subs[i].Problem.ContestID, subs[i].Problem.Index)
		seen[key] = struct{}{}
	}
	return len(seen)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
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
