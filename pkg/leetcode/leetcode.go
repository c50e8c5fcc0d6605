// Package leetcode fetches LeetCode user statistics.
package leetcode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/cpcompare/pkg/httpcache"
	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

const (
	platform       = profile.LeetCode
	defaultBaseURL = "https://leetcode.com"
)

type platformInfo struct{}

func (platformInfo) Name() profile.Platform      { return platform }
func (platformInfo) Match(url string) bool       { return Match(url) }
func (platformInfo) ValidUsername(s string) bool { return handlePattern.MatchString(s) }

func init() { profile.Register(platformInfo{}) }

var (
	usernamePattern = regexp.MustCompile(`(?i)leetcode\.com/(?:u/)?([a-zA-Z0-9_-]+)`)
	handlePattern   = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,64}$`)
)

// Match returns true if the URL is a LeetCode profile URL.
func Match(urlStr string) bool {
	lower := strings.ToLower(urlStr)
	if !strings.Contains(lower, "leetcode.com/") {
		return false
	}
	excluded := []string{"/problems/", "/contest/", "/discuss/", "/playground/", "/explore/", "/study-plan/", "/graphql"}
	for _, ex := range excluded {
		if strings.Contains(lower, ex) {
			return false
		}
	}
	return usernamePattern.MatchString(urlStr)
}

// Client handles LeetCode requests.
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

// WithBaseURL overrides the LeetCode origin.
func WithBaseURL(u string) Option {
	return func(c *config) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New creates a LeetCode client.
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

const combinedQuery = `query getUserData($username: String!) {
  userContestRankingHistory(username: $username) {
    rating
    ranking
    trendDirection
    problemsSolved
    totalProblems
    finishTimeInSeconds
    contest { title titleSlug startTime duration }
  }
  userContestRanking(username: $username) {
    rating
    globalRanking
    totalParticipants
    topPercentage
  }
  matchedUser(username: $username) {
    profile { ranking userAvatar }
    submitStats {
      acSubmissionNum { difficulty count submissions }
      totalSubmissionNum { difficulty count submissions }
    }
  }
  allQuestionsCount { difficulty count }
  recentSubmissionList(username: $username) {
    title
    titleSlug
    timestamp
    statusDisplay
    lang
  }
}`

//nolint:govet // fieldalignment: struct ordering for JSON readability
type graphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

type graphQLResponse struct {
	Data   *apiData `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

//nolint:govet // fieldalignment: struct ordering for JSON readability
type apiData struct {
	History        []apiContestHistory `json:"userContestRankingHistory"`
	ContestRanking *apiContestRanking  `json:"userContestRanking"`
	MatchedUser    *apiUser            `json:"matchedUser"`
	QuestionCounts []apiDifficulty     `json:"allQuestionsCount"`
	Recent         []apiSubmission     `json:"recentSubmissionList"`
}

//nolint:govet // fieldalignment: struct ordering for JSON readability
type apiContestHistory struct {
	Rating         *float64 `json:"rating"`
	Ranking        *int     `json:"ranking"`
	TrendDirection string   `json:"trendDirection"`
	ProblemsSolved int      `json:"problemsSolved"`
	TotalProblems  int      `json:"totalProblems"`
	Contest        struct {
		Title     string `json:"title"`
		TitleSlug string `json:"titleSlug"`
	} `json:"contest"`
}

type apiContestRanking struct {
	Rating            *float64 `json:"rating"`
	GlobalRanking     *int     `json:"globalRanking"`
	TotalParticipants *int     `json:"totalParticipants"`
	TopPercentage     *float64 `json:"topPercentage"`
}

type apiUser struct {
	Profile *struct {
		Ranking    *int   `json:"ranking"`
		UserAvatar string `json:"userAvatar"`
	} `json:"profile"`
	SubmitStats *struct {
		AC    []apiDifficulty `json:"acSubmissionNum"`
		Total []apiDifficulty `json:"totalSubmissionNum"`
	} `json:"submitStats"`
}

type apiDifficulty struct {
	Difficulty  string `json:"difficulty"`
	Count       int    `json:"count"`
	Submissions int    `json:"submissions"`
}

//nolint:govet // fieldalignment: struct ordering for JSON readability
type apiSubmission struct {
	Title         string `json:"title"`
	TitleSlug     string `json:"titleSlug"`
	Timestamp     string `json:"timestamp"`
	StatusDisplay string `json:"statusDisplay"`
	Lang          string `json:"lang"`
}

// Fetch retrieves a LeetCode profile. input is a username or a profile URL.
func (c *Client) Fetch(ctx context.Context, input string) (*profile.Profile, error) {
	username, err := resolveUsername(input)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "fetching leetcode profile", "username", username)

	reqBody, err := json.Marshal(graphQLRequest{
		Query:         combinedQuery,
		Variables:     map[string]any{"username": username},
		OperationName: "getUserData",
	})
	if err != nil {
		return nil, err
	}

	req, err := httpcache.NewJSONRequest(ctx, http.MethodPost, c.baseURL+"/graphql", reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", c.baseURL)

	body, err := httpcache.FetchURL(ctx, c.cache, c.httpClient, req, c.logger)
	if err != nil {
		if httpcache.IsStatus(err, http.StatusNotFound) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, err
	}

	var resp graphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse leetcode response: %w", err)
	}

	if len(resp.Errors) > 0 {
		msg := resp.Errors[0].Message
		if isMissingUser(msg) {
			return nil, fmt.Errorf("%w: %s", profile.ErrProfileNotFound, msg)
		}
		return nil, fmt.Errorf("leetcode API error: %s", msg)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("leetcode response has no data")
	}

	return &profile.Profile{
		Platform: platform,
		Username: username,
		LeetCode: parseProfile(resp.Data),
	}, nil
}

func isMissingUser(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "does not exist") || strings.Contains(lower, "not found")
}

func parseProfile(data *apiData) *profile.LeetCodeProfile {
	history := parseContestHistory(data.History)

	p := &profile.LeetCodeProfile{
		ContestHistory:    history,
		RecentSubmissions: parseRecent(data.Recent),
		QuestionCounts:    make(map[profile.Tier]int),
	}

	contest := &profile.LeetCodeContestRanking{AttendedContests: len(history)}
	if cr := data.ContestRanking; cr != nil {
		contest.Rating = cr.Rating
		contest.GlobalRanking = cr.GlobalRanking
		contest.TotalParticipants = cr.TotalParticipants
		contest.TopPercentage = cr.TopPercentage
	}
	p.Contest = contest

	// Missing matchedUser or submitStats leaves Problems without tiers; the
	// metric extractor resolves those to zero.
	p.Problems = &profile.LeetCodeProblemStats{}
	if mu := data.MatchedUser; mu != nil {
		if mu.Profile != nil {
			p.Ranking = mu.Profile.Ranking
			p.Avatar = mu.Profile.UserAvatar
		}
		if mu.SubmitStats != nil {
			p.Problems.Accepted = tierCounts(mu.SubmitStats.AC)
			p.Problems.Total = tierCounts(mu.SubmitStats.Total)
		}
	}

	for _, q := range data.QuestionCounts {
		p.QuestionCounts[profile.Tier(strings.ToLower(q.Difficulty))] = q.Count
	}

	return p
}

func tierCounts(in []apiDifficulty) map[profile.Tier]profile.TierCount {
	out := make(map[profile.Tier]profile.TierCount, len(in))
	for _, d := range in {
		out[profile.Tier(strings.ToLower(d.Difficulty))] = profile.TierCount{Count: d.Count, Submissions: d.Submissions}
	}
	return out
}

// parseContestHistory drops contests the user registered for but did not
// attend (ranking null or 0).
func parseContestHistory(in []apiContestHistory) []profile.LeetCodeContest {
	var out []profile.LeetCodeContest
	for _, h := range in {
		if h.Ranking == nil || *h.Ranking == 0 {
			continue
		}
		rating := 0
		if h.Rating != nil {
			rating = int(math.Round(*h.Rating))
		}
		out = append(out, profile.LeetCodeContest{
			Title:          h.Contest.Title,
			Rating:         rating,
			Ranking:        *h.Ranking,
			Trend:          h.TrendDirection,
			ProblemsSolved: h.ProblemsSolved,
			TotalProblems:  h.TotalProblems,
			ContestURL:     "https://leetcode.com/contest/" + h.Contest.TitleSlug,
		})
	}
	return out
}

func parseRecent(in []apiSubmission) []profile.LeetCodeSubmission {
	out := make([]profile.LeetCodeSubmission, 0, len(in))
	for _, s := range in {
		var ts int64
		_, _ = fmt.Sscan(s.Timestamp, &ts) //nolint:errcheck // 0 is acceptable default
		out = append(out, profile.LeetCodeSubmission{
			Title:     s.Title,
			TitleSlug: s.TitleSlug,
			Timestamp: ts,
			Status:    s.StatusDisplay,
			Language:  s.Lang,
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
