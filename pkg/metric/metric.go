// Package metric derives named, comparable scalars from normalized profiles.
//
// Extraction is pure: it performs no I/O and resolves every absent upstream
// value to zero. A key missing from a Set means the platform was not fetched
// for that user, which is different from a value of zero.
package metric

import (
	"errors"
	"fmt"
	"math"

	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

var (
	// ErrNilProfile is returned when Extract is handed no profile.
	ErrNilProfile = errors.New("metric: nil profile")
	// ErrUnknownPlatform is returned for a platform with no metric definitions.
	ErrUnknownPlatform = errors.New("metric: unknown platform")
	// ErrFailedResult is returned when a failed fetch is passed for extraction.
	ErrFailedResult = errors.New("metric: cannot extract from a failed fetch")
)

// Key names a metric.
type Key string

// Metric keys.
const (
	LeetCodeGlobalRanking Key = "leetcodeGlobalRanking"
	LeetCodeContestRating Key = "leetcodeContestRating"
	LeetCodeSolved        Key = "leetcodeSolved"
	LeetCodeEasySolved    Key = "leetcodeEasySolved"
	LeetCodeMediumSolved  Key = "leetcodeMediumSolved"
	LeetCodeHardSolved    Key = "leetcodeHardSolved"

	CodeforcesRating           Key = "codeforcesRating"
	CodeforcesMaxRating        Key = "codeforcesMaxRating"
	CodeforcesContests         Key = "codeforcesContests"
	CodeforcesSolved           Key = "codeforcesSolved"
	CodeforcesAvgContestRating Key = "codeforcesAvgContestRating"

	AtCoderUserRank        Key = "atcoderUserRank"
	AtCoderRating          Key = "atcoderRating"
	AtCoderTotalContests   Key = "atcoderTotalContests"
	AtCoderBestPerformance Key = "atcoderBestPerformance"
	AtCoderAvgPerformance  Key = "atcoderAvgPerformance"
)

type definition struct {
	key           Key
	label         string
	lowerIsBetter bool
}

// definitions lists each platform's metrics in display order.
var definitions = map[profile.Platform][]definition{
	profile.LeetCode: {
		{LeetCodeGlobalRanking, "Global Rank", true},
		{LeetCodeContestRating, "Contest Rating", false},
		{LeetCodeSolved, "Total Solved", false},
		{LeetCodeEasySolved, "Easy Solved", false},
		{LeetCodeMediumSolved, "Medium Solved", false},
		{LeetCodeHardSolved, "Hard Solved", false},
	},
	profile.Codeforces: {
		{CodeforcesRating, "Current Rating", false},
		{CodeforcesMaxRating, "Max Rating", false},
		{CodeforcesContests, "Total Contests", false},
		{CodeforcesSolved, "Problems Solved", false},
		{CodeforcesAvgContestRating, "Avg Contest Rating", false},
	},
	profile.AtCoder: {
		{AtCoderUserRank, "Global Rank", true},
		{AtCoderRating, "Current Rating", false},
		{AtCoderTotalContests, "Total Contests", false},
		{AtCoderBestPerformance, "Best Performance", false},
		{AtCoderAvgPerformance, "Avg Performance", false},
	},
	profile.GeeksforGeeks: nil,
}

var byKey = func() map[Key]definition {
	m := make(map[Key]definition)
	for _, defs := range definitions {
		for _, d := range defs {
			m[d.key] = d
		}
	}
	return m
}()

// Metric is one named value for one user.
type Metric struct {
	Key           Key     `json:"key"`
	Label         string  `json:"label"`
	Value         float64 `json:"value"`
	LowerIsBetter bool    `json:"lowerIsBetter"`
}

// Set maps keys to metrics for a single user.
type Set map[Key]Metric

// Value returns the value for k and whether k is present.
func (s Set) Value(k Key) (float64, bool) {
	m, ok := s[k]
	return m.Value, ok
}

func (s Set) put(k Key, v float64) {
	d := byKey[k]
	s[k] = Metric{Key: k, Label: d.label, Value: v, LowerIsBetter: d.lowerIsBetter}
}

// Keys returns the metric keys defined for platform p, in display order.
// GeeksforGeeks has none.
func Keys(p profile.Platform) []Key {
	defs := definitions[p]
	keys := make([]Key, 0, len(defs))
	for _, d := range defs {
		keys = append(keys, d.key)
	}
	return keys
}

// AllKeys returns every metric key across all platforms in display order.
func AllKeys() []Key {
	var keys []Key
	for _, p := range profile.AllPlatforms {
		keys = append(keys, Keys(p)...)
	}
	return keys
}

// LowerIsBetter reports whether smaller positive values of k win.
func LowerIsBetter(k Key) bool { return byKey[k].lowerIsBetter }

// Label returns the human-readable name of k.
func Label(k Key) string { return byKey[k].label }

// Extract derives the metric set for one profile.
func Extract(p *profile.Profile) (Set, error) {
	if p == nil {
		return nil, ErrNilProfile
	}
	s := make(Set)
	switch p.Platform {
	case profile.LeetCode:
		extractLeetCode(s, p.LeetCode)
	case profile.Codeforces:
		extractCodeforces(s, p.Codeforces)
	case profile.AtCoder:
		extractAtCoder(s, p.AtCoder)
	case profile.GeeksforGeeks:
		// No comparable metrics.
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, p.Platform)
	}
	return s, nil
}

// FromResults merges the metric sets of one user's successful fetches.
// Passing a failed Result is a caller error.
func FromResults(results map[profile.Platform]profile.Result) (Set, error) {
	s := make(Set)
	for platform, r := range results {
		p, ok := r.Profile()
		if !ok {
			return nil, fmt.Errorf("%w: %s: %v", ErrFailedResult, platform, r.Err())
		}
		ps, err := Extract(p)
		if err != nil {
			return nil, err
		}
		for k, m := range ps {
			s[k] = m
		}
	}
	return s, nil
}

func extractLeetCode(s Set, lc *profile.LeetCodeProfile) {
	if lc == nil {
		lc = &profile.LeetCodeProfile{}
	}
	var accepted map[profile.Tier]profile.TierCount
	if lc.Problems != nil {
		accepted = lc.Problems.Accepted
	}
	var rating float64
	if lc.Contest != nil {
		rating = deref(lc.Contest.Rating)
	}

	s.put(LeetCodeGlobalRanking, float64(derefInt(lc.Ranking)))
	s.put(LeetCodeContestRating, rating)
	s.put(LeetCodeSolved, float64(accepted[profile.TierAll].Count))
	s.put(LeetCodeEasySolved, float64(accepted[profile.TierEasy].Count))
	s.put(LeetCodeMediumSolved, float64(accepted[profile.TierMedium].Count))
	s.put(LeetCodeHardSolved, float64(accepted[profile.TierHard].Count))
}

func extractCodeforces(s Set, cf *profile.CodeforcesProfile) {
	if cf == nil {
		cf = &profile.CodeforcesProfile{}
	}
	ratings := make([]int, len(cf.RatingHistory))
	for i, c := range cf.RatingHistory {
		ratings[i] = c.NewRating
	}

	s.put(CodeforcesRating, float64(derefInt(cf.Rating)))
	s.put(CodeforcesMaxRating, float64(derefInt(cf.MaxRating)))
	s.put(CodeforcesContests, float64(len(cf.RatingHistory)))
	s.put(CodeforcesSolved, float64(cf.SolvedCount))
	s.put(CodeforcesAvgContestRating, float64(roundedMean(ratings)))
}

func extractAtCoder(s Set, ac *profile.AtCoderProfile) {
	if ac == nil {
		ac = &profile.AtCoderProfile{}
	}
	perf := make([]int, len(ac.Contests))
	best := 0
	for i, c := range ac.Contests {
		perf[i] = c.Performance
		if i == 0 || c.Performance > best {
			best = c.Performance
		}
	}

	s.put(AtCoderUserRank, float64(derefInt(ac.UserRank)))
	s.put(AtCoderRating, float64(derefInt(ac.UserRating)))
	s.put(AtCoderTotalContests, float64(derefInt(ac.ContestCount)))
	s.put(AtCoderBestPerformance, float64(best))
	s.put(AtCoderAvgPerformance, float64(roundedMean(perf)))
}

// roundedMean is the arithmetic mean rounded half away from zero; 0 when empty.
func roundedMean(vals []int) int {
	if len(vals) == 0 {
		return 0
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(vals))))
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
