package cpcompare_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeGROOVE-dev/cpcompare/pkg/cpcompare"
	"github.com/codeGROOVE-dev/cpcompare/pkg/httpcache"
	"github.com/codeGROOVE-dev/cpcompare/pkg/metric"
	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

// getTestCache returns a disk cache that survives across runs so repeated
// live runs do not hammer the upstream sites.
func getTestCache(t *testing.T) *httpcache.Cache {
	t.Helper()
	dir := filepath.Join(os.TempDir(), "cpcompare-test-cache") //nolint:usetesting // cache must persist across runs
	cache, err := httpcache.NewWithPath(24*time.Hour, dir)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() }) //nolint:errcheck // test cleanup
	return cache
}

// TestIntegrationLiveFetch hits the real platforms. It runs only when
// CPCOMPARE_LIVE=1 and not in short mode.
func TestIntegrationLiveFetch(t *testing.T) {
	if testing.Short() || os.Getenv("CPCOMPARE_LIVE") != "1" {
		t.Skip("set CPCOMPARE_LIVE=1 to run live integration tests")
	}

	ctx := context.Background()
	client, err := cpcompare.New(ctx, cpcompare.WithHTTPCache(getTestCache(t)))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		platform profile.Platform
		username string
		key      metric.Key
	}{
		{profile.Codeforces, "tourist", metric.CodeforcesMaxRating},
		{profile.AtCoder, "tourist", metric.AtCoderRating},
		{profile.LeetCode, "lee215", metric.LeetCodeSolved},
	}
	for _, tt := range tests {
		t.Run(string(tt.platform)+"/"+tt.username, func(t *testing.T) {
			s, err := client.Summarize(ctx, tt.platform, tt.username)
			if err != nil {
				t.Fatalf("Summarize() error = %v", err)
			}
			if v, ok := s.Metrics.Value(tt.key); !ok || v <= 0 {
				t.Errorf("%s = %v, want a positive value", tt.key, v)
			}
		})
	}

	t.Run("missing user", func(t *testing.T) {
		r := client.Fetch(ctx, profile.Codeforces, "this_handle_should_not_exist_42x")
		if fe := r.Err(); fe == nil || fe.Kind != profile.KindNotFound {
			t.Errorf("Fetch() = %+v, want not_found", fe)
		}
	})
}
