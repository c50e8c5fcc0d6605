package metric

import "github.com/codeGROOVE-dev/cpcompare/pkg/profile"

// trendWindow is how many recent contests the trend helpers look at.
const trendWindow = 5

// Insights are informational figures shown next to a profile. They are
// never compared between users.
type Insights struct {
	RatingTrend      *int `json:"ratingTrend,omitempty"`
	WorstPerformance *int `json:"worstPerformance,omitempty"`
	ContestsWindow   int  `json:"contestsWindow,omitempty"`
}

// Analyze returns the insights available for p's platform.
func Analyze(p *profile.Profile) Insights {
	var in Insights
	if p == nil {
		return in
	}
	switch {
	case p.AtCoder != nil:
		trend := AtCoderRatingTrend(p.AtCoder)
		worst := AtCoderWorstPerformance(p.AtCoder)
		in.RatingTrend, in.WorstPerformance = &trend, &worst
		in.ContestsWindow = min(len(p.AtCoder.Contests), trendWindow)
	case p.Codeforces != nil:
		trend := CodeforcesRatingTrend(p.Codeforces)
		in.RatingTrend = &trend
		in.ContestsWindow = min(len(p.Codeforces.RatingHistory), trendWindow)
	}
	return in
}

// AtCoderRatingTrend is the rating change across the last five contests:
// the newest contest's new rating minus the oldest window contest's old
// rating. Fewer than two contests yield 0. Unlike CodeforcesAvgContestRating,
// which spans the full history, only the window is considered.
func AtCoderRatingTrend(ac *profile.AtCoderProfile) int {
	if ac == nil {
		return 0
	}
	c := lastN(ac.Contests, trendWindow)
	if len(c) < 2 {
		return 0
	}
	return c[len(c)-1].NewRating - c[0].OldRating
}

// AtCoderWorstPerformance is the lowest performance in the history, or 0.
func AtCoderWorstPerformance(ac *profile.AtCoderProfile) int {
	if ac == nil || len(ac.Contests) == 0 {
		return 0
	}
	worst := ac.Contests[0].Performance
	for _, c := range ac.Contests[1:] {
		worst = min(worst, c.Performance)
	}
	return worst
}

// CodeforcesRatingTrend applies the AtCoder trend rule to Codeforces history.
func CodeforcesRatingTrend(cf *profile.CodeforcesProfile) int {
	if cf == nil {
		return 0
	}
	c := lastN(cf.RatingHistory, trendWindow)
	if len(c) < 2 {
		return 0
	}
	return c[len(c)-1].NewRating - c[0].OldRating
}

func lastN[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
