package metric

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

func values(s Set) map[Key]float64 {
	out := make(map[Key]float64, len(s))
	for k, m := range s {
		out[k] = m.Value
	}
	return out
}

func TestExtract_LeetCode(t *testing.T) {
	p := &profile.Profile{
		Platform: profile.LeetCode,
		Username: "alice",
		LeetCode: &profile.LeetCodeProfile{
			Ranking: profile.IntPtr(1200),
			Contest: &profile.LeetCodeContestRanking{Rating: profile.FloatPtr(1850.5)},
			Problems: &profile.LeetCodeProblemStats{
				Accepted: map[profile.Tier]profile.TierCount{
					profile.TierAll:    {Count: 300},
					profile.TierEasy:   {Count: 100},
					profile.TierMedium: {Count: 150},
					profile.TierHard:   {Count: 50},
				},
			},
		},
	}

	s, err := Extract(p)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := map[Key]float64{
		LeetCodeGlobalRanking: 1200,
		LeetCodeContestRating: 1850.5,
		LeetCodeSolved:        300,
		LeetCodeEasySolved:    100,
		LeetCodeMediumSolved:  150,
		LeetCodeHardSolved:    50,
	}
	if diff := cmp.Diff(want, values(s)); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
	if !s[LeetCodeGlobalRanking].LowerIsBetter || s[LeetCodeSolved].LowerIsBetter {
		t.Error("polarity flags wrong")
	}
	if s[LeetCodeHardSolved].Label != "Hard Solved" {
		t.Errorf("label = %q", s[LeetCodeHardSolved].Label)
	}
}

func TestExtract_AbsentNestedFieldsDefaultToZero(t *testing.T) {
	tests := []struct {
		name string
		p    *profile.Profile
	}{
		{"leetcode section missing", &profile.Profile{Platform: profile.LeetCode}},
		{"leetcode stats missing", &profile.Profile{Platform: profile.LeetCode, LeetCode: &profile.LeetCodeProfile{
			Contest: &profile.LeetCodeContestRanking{}, Problems: &profile.LeetCodeProblemStats{},
		}}},
		{"codeforces unrated", &profile.Profile{Platform: profile.Codeforces, Codeforces: &profile.CodeforcesProfile{Rank: "unrated"}}},
		{"atcoder empty", &profile.Profile{Platform: profile.AtCoder, AtCoder: &profile.AtCoderProfile{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Extract(tt.p)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			keys := Keys(tt.p.Platform)
			if len(s) != len(keys) {
				t.Errorf("got %d metrics, want %d", len(s), len(keys))
			}
			for _, k := range keys {
				v, ok := s.Value(k)
				if !ok {
					t.Errorf("key %s missing", k)
				}
				if v != 0 {
					t.Errorf("%s = %v, want 0", k, v)
				}
			}
		})
	}
}

func TestExtract_Codeforces(t *testing.T) {
	p := &profile.Profile{
		Platform: profile.Codeforces,
		Codeforces: &profile.CodeforcesProfile{
			Rating:      profile.IntPtr(1900),
			MaxRating:   profile.IntPtr(2100),
			SolvedCount: 512,
			RatingHistory: []profile.CodeforcesContest{
				{NewRating: 1500}, {NewRating: 1600}, {NewRating: 1601},
			},
		},
	}
	s, err := Extract(p)
	if err != nil {
		t.Fatal(err)
	}
	want := map[Key]float64{
		CodeforcesRating:           1900,
		CodeforcesMaxRating:        2100,
		CodeforcesContests:         3,
		CodeforcesSolved:           512,
		CodeforcesAvgContestRating: 1567, // 4701 / 3 = 1567.0
	}
	if diff := cmp.Diff(want, values(s)); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_AtCoder(t *testing.T) {
	p := &profile.Profile{
		Platform: profile.AtCoder,
		AtCoder: &profile.AtCoderProfile{
			UserRank:     profile.IntPtr(4321),
			UserRating:   profile.IntPtr(1650),
			ContestCount: profile.IntPtr(12),
			Contests: []profile.AtCoderContest{
				{Performance: 1200}, {Performance: 2001}, {Performance: 1500}, {Performance: 1800},
			},
		},
	}
	s, err := Extract(p)
	if err != nil {
		t.Fatal(err)
	}
	want := map[Key]float64{
		AtCoderUserRank:        4321,
		AtCoderRating:          1650,
		AtCoderTotalContests:   12,
		AtCoderBestPerformance: 2001,
		AtCoderAvgPerformance:  1625, // 6501 / 4 = 1625.25
	}
	if diff := cmp.Diff(want, values(s)); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_GeeksforGeeksHasNoMetrics(t *testing.T) {
	s, err := Extract(&profile.Profile{
		Platform:      profile.GeeksforGeeks,
		GeeksforGeeks: &profile.GeeksforGeeksProfile{Fields: map[string]any{"codingScore": 10.0}},
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(s) != 0 {
		t.Errorf("Extract() = %v, want empty", s)
	}
}

func TestExtract_Errors(t *testing.T) {
	if _, err := Extract(nil); !errors.Is(err, ErrNilProfile) {
		t.Errorf("Extract(nil) error = %v, want ErrNilProfile", err)
	}
	if _, err := Extract(&profile.Profile{Platform: "topcoder"}); !errors.Is(err, ErrUnknownPlatform) {
		t.Errorf("Extract(topcoder) error = %v, want ErrUnknownPlatform", err)
	}
}

func TestRoundedMean(t *testing.T) {
	tests := []struct {
		in   []int
		want int
	}{
		{nil, 0},
		{[]int{5}, 5},
		{[]int{1, 2}, 2}, // 1.5 rounds away from zero
		{[]int{1, 2, 2}, 2},
		{[]int{-1, -2}, -2},
	}
	for _, tt := range tests {
		if got := roundedMean(tt.in); got != tt.want {
			t.Errorf("roundedMean(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFromResults(t *testing.T) {
	lc := profile.OK(&profile.Profile{Platform: profile.LeetCode, LeetCode: &profile.LeetCodeProfile{Ranking: profile.IntPtr(9)}})
	cf := profile.OK(&profile.Profile{Platform: profile.Codeforces, Codeforces: &profile.CodeforcesProfile{SolvedCount: 3}})

	s, err := FromResults(map[profile.Platform]profile.Result{profile.LeetCode: lc, profile.Codeforces: cf})
	if err != nil {
		t.Fatalf("FromResults() error = %v", err)
	}
	if len(s) != len(Keys(profile.LeetCode))+len(Keys(profile.Codeforces)) {
		t.Errorf("FromResults() has %d keys", len(s))
	}
	if _, ok := s[AtCoderRating]; ok {
		t.Error("atcoder key present without an atcoder result")
	}

	failed := profile.Fail(&profile.FetchError{Platform: profile.AtCoder, Kind: profile.KindNotFound, Err: profile.ErrProfileNotFound})
	_, err = FromResults(map[profile.Platform]profile.Result{profile.AtCoder: failed})
	if !errors.Is(err, ErrFailedResult) {
		t.Errorf("FromResults(failed) error = %v, want ErrFailedResult", err)
	}
}

func TestKeys(t *testing.T) {
	want := []Key{AtCoderUserRank, AtCoderRating, AtCoderTotalContests, AtCoderBestPerformance, AtCoderAvgPerformance}
	if diff := cmp.Diff(want, Keys(profile.AtCoder)); diff != "" {
		t.Errorf("Keys(atcoder) mismatch (-want +got):\n%s", diff)
	}
	if len(Keys(profile.GeeksforGeeks)) != 0 {
		t.Error("Keys(geeksforgeeks) should be empty")
	}
	if len(AllKeys()) != 16 {
		t.Errorf("AllKeys() = %d keys, want 16", len(AllKeys()))
	}
	lower := 0
	for _, k := range AllKeys() {
		if LowerIsBetter(k) {
			lower++
		}
	}
	if lower != 2 {
		t.Errorf("lower-is-better keys = %d, want 2", lower)
	}
}
