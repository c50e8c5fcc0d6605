package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

func TestCached_ReusesSuccess(t *testing.T) {
	a := &fakeAdapter{platform: profile.Codeforces, fn: func(_ context.Context, u string) (*profile.Profile, error) {
		return &profile.Profile{
			Platform: profile.Codeforces,
			Username: u,
			Codeforces: &profile.CodeforcesProfile{
				Rank:        "expert",
				MaxRank:     "master",
				Rating:      profile.IntPtr(1900),
				SolvedCount: 400,
			},
		}, nil
	}}
	c := Cached(a, NewProfileCache(time.Minute))

	ctx := context.Background()
	first, err := c.Fetch(ctx, "tourist")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	second, err := c.Fetch(ctx, " tourist ")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if a.calls.Load() != 1 {
		t.Errorf("adapter calls = %d, want 1", a.calls.Load())
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached profile differs (-first +second):\n%s", diff)
	}
	if c.Platform() != profile.Codeforces {
		t.Errorf("Platform() = %s", c.Platform())
	}
}

func TestCached_FailuresNotStored(t *testing.T) {
	a := failAdapter(profile.AtCoder, errors.New("503"))
	c := Cached(a, NewProfileCache(time.Minute))

	for range 2 {
		if _, err := c.Fetch(context.Background(), "chokudai"); err == nil {
			t.Fatal("Fetch() expected error")
		}
	}
	if a.calls.Load() != 2 {
		t.Errorf("adapter calls = %d, want 2", a.calls.Load())
	}
}

func TestCached_PartialProfilesNotStored(t *testing.T) {
	a := &fakeAdapter{platform: profile.Codeforces}
	a.fn = func(_ context.Context, u string) (*profile.Profile, error) {
		p := &profile.Profile{Platform: profile.Codeforces, Username: u, Codeforces: &profile.CodeforcesProfile{SolvedCount: 400}}
		if a.calls.Load() == 1 {
			p.Partial = true
			p.Codeforces.SolvedCount = 0
		}
		return p, nil
	}
	c := Cached(a, NewProfileCache(time.Minute))
	ctx := context.Background()

	first, err := c.Fetch(ctx, "tourist")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !first.Partial || first.Codeforces.SolvedCount != 0 {
		t.Fatalf("first = %+v, want the partial profile", first.Codeforces)
	}
	for range 2 {
		p, err := c.Fetch(ctx, "tourist")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if p.Partial || p.Codeforces.SolvedCount != 400 {
			t.Errorf("Fetch() = %+v (partial=%v), want the complete profile", p.Codeforces, p.Partial)
		}
	}
	if a.calls.Load() != 2 {
		t.Errorf("adapter calls = %d, want 2 (complete profile cached)", a.calls.Load())
	}
}

func TestCached_PreservesErrorIdentity(t *testing.T) {
	c := Cached(failAdapter(profile.LeetCode, profile.ErrProfileNotFound), NewProfileCache(time.Minute))
	_, err := c.Fetch(context.Background(), "ghost")
	if !errors.Is(err, profile.ErrProfileNotFound) {
		t.Errorf("Fetch() error = %v, want ErrProfileNotFound", err)
	}
}

func TestCached_ConcurrentMissesShareFetch(t *testing.T) {
	release := make(chan struct{})
	a := &fakeAdapter{platform: profile.LeetCode, fn: func(_ context.Context, u string) (*profile.Profile, error) {
		<-release
		return &profile.Profile{Platform: profile.LeetCode, Username: u}, nil
	}}
	c := Cached(a, NewProfileCache(time.Minute))

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Fetch(context.Background(), "alice"); err != nil {
				t.Errorf("Fetch() error = %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if a.calls.Load() != 1 {
		t.Errorf("adapter calls = %d, want 1", a.calls.Load())
	}
}

func TestCached_NilCachePassesThrough(t *testing.T) {
	a := okAdapter(profile.LeetCode)
	if got := Cached(a, nil); got != Adapter(a) {
		t.Error("Cached(a, nil) should return a unchanged")
	}
}
