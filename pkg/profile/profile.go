// Package profile defines the normalized per-platform profile schema shared by
// every platform adapter, plus the Result and FetchError types that carry a
// fetch outcome.
package profile

import (
	"errors"
	"strings"
)

// Common errors returned by platform packages.
var (
	ErrInvalidUsername   = errors.New("invalid username")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrPartialDerivation = errors.New("partial derivation failure")
)

// Platform identifies a supported competitive-programming site.
type Platform string

// Supported platforms.
const (
	LeetCode      Platform = "leetcode"
	Codeforces    Platform = "codeforces"
	AtCoder       Platform = "atcoder"
	GeeksforGeeks Platform = "geeksforgeeks"
)

// AllPlatforms lists platforms in display order.
var AllPlatforms = []Platform{LeetCode, Codeforces, AtCoder, GeeksforGeeks}

// ParsePlatform converts a case-insensitive name into a Platform.
func ParsePlatform(s string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case LeetCode, Codeforces, AtCoder, GeeksforGeeks:
		return p, true
	case "gfg":
		return GeeksforGeeks, true
	default:
		return "", false
	}
}

// Profile is the normalized profile of one user on one platform.
// Exactly one of the platform sections is set, matching Platform.
//
//nolint:govet // fieldalignment: intentional layout for readability
type Profile struct {
	Platform Platform `json:"platform"`
	Username string   `json:"username"`

	// Partial marks a profile missing a derived field after an upstream
	// failure, e.g. a Codeforces solved count that fell back to 0.
	Partial bool `json:"partial,omitempty"`

	LeetCode      *LeetCodeProfile      `json:"leetcode,omitempty"`
	Codeforces    *CodeforcesProfile    `json:"codeforces,omitempty"`
	AtCoder       *AtCoderProfile       `json:"atcoder,omitempty"`
	GeeksforGeeks *GeeksforGeeksProfile `json:"geeksforgeeks,omitempty"`
}

// Tier is a LeetCode difficulty bucket.
type Tier string

// LeetCode difficulty tiers.
const (
	TierAll    Tier = "all"
	TierEasy   Tier = "easy"
	TierMedium Tier = "medium"
	TierHard   Tier = "hard"
)

// Tiers lists every LeetCode tier.
var Tiers = []Tier{TierAll, TierEasy, TierMedium, TierHard}

// TierCount is the number of distinct problems and the number of
// submissions recorded for one tier.
type TierCount struct {
	Count       int `json:"count"`
	Submissions int `json:"submissions"`
}

// LeetCodeProfile holds LeetCode data. Pointer fields are nil when the
// upstream omitted them (for example, users with no contest history).
//
//nolint:govet // fieldalignment: struct ordering for JSON readability
type LeetCodeProfile struct {
	Avatar            string                  `json:"avatar,omitempty"`
	Ranking           *int                    `json:"ranking,omitempty"`
	Contest           *LeetCodeContestRanking `json:"contestRanking,omitempty"`
	Problems          *LeetCodeProblemStats   `json:"problemStats,omitempty"`
	QuestionCounts    map[Tier]int            `json:"globalProblemCounts,omitempty"`
	RecentSubmissions []LeetCodeSubmission    `json:"recentSubmissions,omitempty"`
	ContestHistory    []LeetCodeContest       `json:"contestHistory,omitempty"`
}

// LeetCodeContestRanking is the user's current contest standing.
type LeetCodeContestRanking struct {
	Rating            *float64 `json:"rating,omitempty"`
	GlobalRanking     *int     `json:"globalRanking,omitempty"`
	TotalParticipants *int     `json:"totalParticipants,omitempty"`
	TopPercentage     *float64 `json:"topPercentage,omitempty"`
	AttendedContests  int      `json:"attendedContests"`
}

// LeetCodeProblemStats holds accepted and total counts keyed by tier.
// A missing tier means the upstream did not report it.
type LeetCodeProblemStats struct {
	Accepted map[Tier]TierCount `json:"acceptedSubmissions,omitempty"`
	Total    map[Tier]TierCount `json:"totalSubmissions,omitempty"`
}

// LeetCodeSubmission is one entry of the recent submission list.
//
//nolint:govet // fieldalignment: struct ordering for JSON readability
type LeetCodeSubmission struct {
	Title     string `json:"title"`
	TitleSlug string `json:"titleSlug"`
	Timestamp int64  `json:"timestamp"`
	Status    string `json:"status"`
	Language  string `json:"language,omitempty"`
}

// LeetCodeContest is one attended contest.
//
//nolint:govet // fieldalignment: struct ordering for JSON readability
type LeetCodeContest struct {
	Title          string `json:"title"`
	Rating         int    `json:"rating"`
	Ranking        int    `json:"ranking"`
	Trend          string `json:"trend,omitempty"`
	ProblemsSolved int    `json:"problemsSolved"`
	TotalProblems  int    `json:"totalProblems"`
	ContestURL     string `json:"contestUrl"`
}

// CodeforcesProfile holds Codeforces data.
//
//nolint:govet // fieldalignment: struct ordering for JSON readability
type CodeforcesProfile struct {
	DisplayName       string                 `json:"displayName,omitempty"`
	Avatar            string                 `json:"avatar,omitempty"`
	Rank              string                 `json:"rank"`
	MaxRank           string                 `json:"maxRank"`
	Rating            *int                   `json:"rating,omitempty"`
	MaxRating         *int                   `json:"maxRating,omitempty"`
	Organization      string                 `json:"organization,omitempty"`
	Country           string                 `json:"country,omitempty"`
	City              string                 `json:"city,omitempty"`
	Contribution      int                    `json:"contribution,omitempty"`
	RegisteredAt      string                 `json:"registeredAt,omitempty"`
	SolvedCount       int                    `json:"solvedCount"`
	RatingHistory     []CodeforcesContest    `json:"ratingHistory,omitempty"`
	RecentSubmissions []CodeforcesSubmission `json:"recentSubmissions,omitempty"`
}

// CodeforcesContest is one rated contest result.
//
//nolint:govet // fieldalignment: struct ordering for JSON readability
type CodeforcesContest struct {
	ContestName  string `json:"contestName"`
	ContestID    int    `json:"contestId"`
	Rank         int    `json:"rank"`
	OldRating    int    `json:"oldRating"`
	NewRating    int    `json:"newRating"`
	RatingChange int    `json:"ratingChange"`
	ContestURL   string `json:"contestUrl"`
}

// CodeforcesSubmission is one recent submission.
//
//nolint:govet // fieldalignment: struct ordering for JSON readability
type CodeforcesSubmission struct {
	ProblemName         string `json:"problemName"`
	ContestID           int    `json:"contestId"`
	Index               string `json:"index"`
	Language            string `json:"language"`
	Verdict             string `json:"verdict"`
	TimeConsumedMs      int    `json:"timeConsumedMs"`
	MemoryConsumedBytes int64  `json:"memoryConsumedBytes"`
	SubmissionTime      int64  `json:"submissionTime"`
	SubmissionURL       string `json:"submissionUrl"`
}

// AtCoderProfile holds AtCoder data.
//
//nolint:govet // fieldalignment: struct ordering for JSON readability
type AtCoderProfile struct {
	CurrentRank   string           `json:"currentRank,omitempty"`
	Avatar        string           `json:"avatar,omitempty"`
	UserRank      *int             `json:"userRank,omitempty"`
	UserRating    *int             `json:"userRating,omitempty"`
	UserMaxRating *int             `json:"userMaxRating,omitempty"`
	LastCompeted  string           `json:"userLastCompeted,omitempty"`
	ContestCount  *int             `json:"userContestCount,omitempty"`
	Country       string           `json:"country,omitempty"`
	Affiliation   string           `json:"affiliation,omitempty"`
	Contests      []AtCoderContest `json:"contests,omitempty"`
}

// AtCoderContest is one rated contest result.
//
//nolint:govet // fieldalignment: struct ordering for JSON readability
type AtCoderContest struct {
	ContestName       string `json:"contestName"`
	ContestScreenName string `json:"contestScreenName"`
	ContestURL        string `json:"contestUrl"`
	Rank              int    `json:"rank"`
	Performance       int    `json:"performance"`
	OldRating         int    `json:"oldRating"`
	NewRating         int    `json:"newRating"`
}

// GeeksforGeeksProfile is the upstream document passed through as-is,
// minus the fields stripped during normalization.
type GeeksforGeeksProfile struct {
	Fields map[string]any `json:"fields"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }
