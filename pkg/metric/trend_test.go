package metric

import (
	"testing"

	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

func atcoderHistory(pairs ...[2]int) *profile.AtCoderProfile {
	ac := &profile.AtCoderProfile{}
	for _, p := range pairs {
		ac.Contests = append(ac.Contests, profile.AtCoderContest{OldRating: p[0], NewRating: p[1], Performance: p[1]})
	}
	return ac
}

func TestAtCoderRatingTrend(t *testing.T) {
	tests := []struct {
		name string
		ac   *profile.AtCoderProfile
		want int
	}{
		{"nil", nil, 0},
		{"empty", atcoderHistory(), 0},
		{"single contest", atcoderHistory([2]int{0, 800}), 0},
		{"two contests", atcoderHistory([2]int{0, 800}, [2]int{800, 950}), 950},
		{
			"window of last five",
			atcoderHistory(
				[2]int{0, 400}, [2]int{400, 700},
				[2]int{700, 900}, [2]int{900, 1000}, [2]int{1000, 1100}, [2]int{1100, 1050}, [2]int{1050, 1200},
			),
			1200 - 700,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AtCoderRatingTrend(tt.ac); got != tt.want {
				t.Errorf("AtCoderRatingTrend() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCodeforcesRatingTrend(t *testing.T) {
	cf := &profile.CodeforcesProfile{RatingHistory: []profile.CodeforcesContest{
		{OldRating: 1500, NewRating: 1450},
		{OldRating: 1450, NewRating: 1600},
	}}
	if got := CodeforcesRatingTrend(cf); got != 100 {
		t.Errorf("CodeforcesRatingTrend() = %d, want 100", got)
	}
	if got := CodeforcesRatingTrend(&profile.CodeforcesProfile{}); got != 0 {
		t.Errorf("CodeforcesRatingTrend(empty) = %d, want 0", got)
	}
}

func TestAnalyze(t *testing.T) {
	in := Analyze(&profile.Profile{
		Platform: profile.AtCoder,
		AtCoder:  atcoderHistory([2]int{0, 800}, [2]int{800, 600}, [2]int{600, 1000}),
	})
	if in.RatingTrend == nil || *in.RatingTrend != 1000 {
		t.Errorf("RatingTrend = %v, want 1000", in.RatingTrend)
	}
	if in.WorstPerformance == nil || *in.WorstPerformance != 600 {
		t.Errorf("WorstPerformance = %v, want 600", in.WorstPerformance)
	}
	if in.ContestsWindow != 3 {
		t.Errorf("ContestsWindow = %d, want 3", in.ContestsWindow)
	}

	if got := Analyze(&profile.Profile{Platform: profile.LeetCode, LeetCode: &profile.LeetCodeProfile{}}); got.RatingTrend != nil {
		t.Errorf("Analyze(leetcode) = %+v, want no trend", got)
	}
}
