package compare

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/codeGROOVE-dev/cpcompare/pkg/metric"
	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

func set(vals map[metric.Key]float64) metric.Set {
	s := make(metric.Set, len(vals))
	for k, v := range vals {
		s[k] = metric.Metric{Key: k, Value: v, LowerIsBetter: metric.LowerIsBetter(k)}
	}
	return s
}

func TestCompare(t *testing.T) {
	convey.Convey("Given a lower-is-better ranking metric", t, func() {
		k := metric.LeetCodeGlobalRanking

		convey.Convey("Both unranked is a tie", func() {
			convey.So(Compare(k, 0, 0), convey.ShouldEqual, Tie)
		})
		convey.Convey("An unranked user loses to a ranked one", func() {
			convey.So(Compare(k, 0, 5), convey.ShouldEqual, User2)
			convey.So(Compare(k, 5, 0), convey.ShouldEqual, User1)
		})
		convey.Convey("The smaller positive rank wins", func() {
			convey.So(Compare(k, 3, 7), convey.ShouldEqual, User1)
			convey.So(Compare(k, 20000, 50000), convey.ShouldEqual, User1)
			convey.So(Compare(metric.AtCoderUserRank, 900, 12), convey.ShouldEqual, User2)
		})
		convey.Convey("Equal positive ranks tie", func() {
			convey.So(Compare(k, 42, 42), convey.ShouldEqual, Tie)
		})
	})

	convey.Convey("Given a higher-is-better metric", t, func() {
		k := metric.CodeforcesRating

		convey.Convey("The larger value wins", func() {
			convey.So(Compare(k, 7, 3), convey.ShouldEqual, User1)
			convey.So(Compare(k, 3, 7), convey.ShouldEqual, User2)
		})
		convey.Convey("Equal values tie, including zero", func() {
			convey.So(Compare(k, 4, 4), convey.ShouldEqual, Tie)
			convey.So(Compare(k, 0, 0), convey.ShouldEqual, Tie)
		})
		convey.Convey("Fractional ratings are compared exactly", func() {
			convey.So(Compare(metric.LeetCodeContestRating, 1612.6, 1612.5), convey.ShouldEqual, User1)
		})
	})
}

func TestCompareAll(t *testing.T) {
	convey.Convey("Given two metric sets", t, func() {
		convey.Convey("Keys missing on either side do not vote", func() {
			s1 := set(map[metric.Key]float64{"a": 5})
			s2 := set(map[metric.Key]float64{"a": 5, "b": 9})
			convey.So(CompareAll(s1, s2, []metric.Key{"a", "b"}), convey.ShouldEqual, Tie)
		})

		convey.Convey("The majority of per-key wins decides", func() {
			s1 := set(map[metric.Key]float64{metric.CodeforcesRating: 2000, metric.CodeforcesSolved: 10, metric.CodeforcesContests: 9})
			s2 := set(map[metric.Key]float64{metric.CodeforcesRating: 1500, metric.CodeforcesSolved: 50, metric.CodeforcesContests: 3})
			convey.So(CompareAll(s1, s2, metric.Keys(profile.Codeforces)), convey.ShouldEqual, User1)
		})

		convey.Convey("No shared keys is a tie", func() {
			convey.So(CompareAll(metric.Set{}, metric.Set{}, metric.AllKeys()), convey.ShouldEqual, Tie)
		})
	})
}

func TestLeetCodeScenario(t *testing.T) {
	convey.Convey("Given user A and user B on LeetCode", t, func() {
		a := set(map[metric.Key]float64{metric.LeetCodeSolved: 120, metric.LeetCodeGlobalRanking: 50000})
		b := set(map[metric.Key]float64{metric.LeetCodeSolved: 80, metric.LeetCodeGlobalRanking: 20000})

		v := Platform(a, b, profile.LeetCode)

		convey.Convey("More solved problems wins for A", func() {
			convey.So(v.PerKey[metric.LeetCodeSolved], convey.ShouldEqual, User1)
		})
		convey.Convey("The better global ranking wins for B", func() {
			convey.So(v.PerKey[metric.LeetCodeGlobalRanking], convey.ShouldEqual, User2)
		})
		convey.Convey("The platform aggregate is a tie", func() {
			convey.So(v.Wins1, convey.ShouldEqual, 1)
			convey.So(v.Wins2, convey.ShouldEqual, 1)
			convey.So(v.Winner, convey.ShouldEqual, Tie)
			convey.So(len(v.PerKey), convey.ShouldEqual, 2)
		})
	})
}

func TestBuild(t *testing.T) {
	convey.Convey("Given users compared across platforms", t, func() {
		a := set(map[metric.Key]float64{
			metric.LeetCodeSolved:   300,
			metric.CodeforcesRating: 1800,
			metric.AtCoderRating:    1200,
		})
		b := set(map[metric.Key]float64{
			metric.LeetCodeSolved:   100,
			metric.CodeforcesRating: 1900,
		})

		r := Build(a, b)

		convey.Convey("Only platforms with shared metrics are reported", func() {
			convey.So(r.Platforms, convey.ShouldContainKey, profile.LeetCode)
			convey.So(r.Platforms, convey.ShouldContainKey, profile.Codeforces)
			convey.So(r.Platforms, convey.ShouldNotContainKey, profile.AtCoder)
		})
		convey.Convey("The overall verdict counts every shared key", func() {
			convey.So(r.Overall.Wins1, convey.ShouldEqual, 1)
			convey.So(r.Overall.Wins2, convey.ShouldEqual, 1)
			convey.So(r.Overall.Winner, convey.ShouldEqual, Tie)
		})
	})
}
