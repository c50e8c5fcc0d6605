// Package compare decides winners between two users' metric sets.
package compare

import (
	"github.com/codeGROOVE-dev/cpcompare/pkg/metric"
	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

// Winner is the outcome of a comparison.
type Winner string

// Possible outcomes.
const (
	User1 Winner = "user1"
	User2 Winner = "user2"
	Tie   Winner = "tie"
)

// Verdict is the outcome over a group of metrics.
type Verdict struct {
	PerKey map[metric.Key]Winner `json:"perKey"`
	Winner Winner                `json:"winner"`
	Wins1  int                   `json:"user1Wins"`
	Wins2  int                   `json:"user2Wins"`
}

// Compare decides one metric. For lower-is-better keys a value of 0 means
// "unranked": an unranked user loses to any ranked one, and two unranked
// users tie. Otherwise the larger value wins.
func Compare(key metric.Key, v1, v2 float64) Winner {
	if metric.LowerIsBetter(key) {
		switch {
		case v1 > 0 && (v2 <= 0 || v1 < v2):
			return User1
		case v2 > 0 && (v1 <= 0 || v2 < v1):
			return User2
		default:
			return Tie
		}
	}
	switch {
	case v1 > v2:
		return User1
	case v2 > v1:
		return User2
	default:
		return Tie
	}
}

// CompareAll decides a group of metrics by majority. Only keys present in
// both sets vote.
func CompareAll(s1, s2 metric.Set, keys []metric.Key) Winner {
	return tally(s1, s2, keys).Winner
}

// Platform compares the metrics defined for one platform.
func Platform(s1, s2 metric.Set, p profile.Platform) Verdict {
	return tally(s1, s2, metric.Keys(p))
}

// Overall compares every metric on every platform.
func Overall(s1, s2 metric.Set) Verdict {
	return tally(s1, s2, metric.AllKeys())
}

// Report is a full comparison between two users.
type Report struct {
	Platforms map[profile.Platform]Verdict `json:"platforms"`
	Overall   Verdict                      `json:"overall"`
}

// Build produces per-platform and overall verdicts. Platforms where neither
// user shares a metric are omitted.
func Build(s1, s2 metric.Set) Report {
	r := Report{Platforms: make(map[profile.Platform]Verdict), Overall: Overall(s1, s2)}
	for _, p := range profile.AllPlatforms {
		v := Platform(s1, s2, p)
		if len(v.PerKey) == 0 {
			continue
		}
		r.Platforms[p] = v
	}
	return r
}

func tally(s1, s2 metric.Set, keys []metric.Key) Verdict {
	v := Verdict{PerKey: make(map[metric.Key]Winner), Winner: Tie}
	for _, k := range keys {
		a, ok1 := s1.Value(k)
		b, ok2 := s2.Value(k)
		if !ok1 || !ok2 {
			continue
		}
		w := Compare(k, a, b)
		v.PerKey[k] = w
		switch w {
		case User1:
			v.Wins1++
		case User2:
			v.Wins2++
		}
	}
	switch {
	case v.Wins1 > v.Wins2:
		v.Winner = User1
	case v.Wins2 > v.Wins1:
		v.Winner = User2
	}
	return v
}
