package session

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smartystreets/goconvey/convey"

	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

func pair(lc1, lc2 string) Pair {
	return Pair{User1: profile.Handles{LeetCode: lc1}, User2: profile.Handles{LeetCode: lc2}}
}

func TestService(t *testing.T) {
	convey.Convey("Given a session service over memory", t, func() {
		ctx := context.Background()
		svc := New(NewMemoryStore())

		convey.Convey("A new client has no saved pairs", func() {
			pairs, err := svc.List(ctx, "c1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(pairs, convey.ShouldBeEmpty)
			convey.So(pairs, convey.ShouldNotBeNil)
		})

		convey.Convey("Saving appends in insertion order", func() {
			_, err := svc.Save(ctx, "c1", pair("alice", "bob"))
			convey.So(err, convey.ShouldBeNil)
			pairs, err := svc.Save(ctx, "c1", pair("carol", "dave"))
			convey.So(err, convey.ShouldBeNil)
			convey.So(pairs, convey.ShouldResemble, []Pair{pair("alice", "bob"), pair("carol", "dave")})
		})

		convey.Convey("A pair whose handles are all blank is rejected", func() {
			_, err := svc.Save(ctx, "c1", Pair{User1: profile.Handles{LeetCode: "  "}, User2: profile.Handles{AtCoder: "\t"}})
			convey.So(errors.Is(err, ErrEmptyPair), convey.ShouldBeTrue)
			pairs, _ := svc.List(ctx, "c1") //nolint:errcheck // checked above
			convey.So(pairs, convey.ShouldBeEmpty)
		})

		convey.Convey("A pair with only one side filled is accepted", func() {
			_, err := svc.Save(ctx, "c1", Pair{User1: profile.Handles{Codeforces: "tourist"}})
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("An exact duplicate is rejected and the list is unchanged", func() {
			_, err := svc.Save(ctx, "c1", pair("alice", "bob"))
			convey.So(err, convey.ShouldBeNil)
			pairs, err := svc.Save(ctx, "c1", pair("alice", "bob"))
			convey.So(errors.Is(err, ErrDuplicatePair), convey.ShouldBeTrue)
			convey.So(len(pairs), convey.ShouldEqual, 1)

			convey.Convey("but a swapped pair is distinct", func() {
				_, err := svc.Save(ctx, "c1", pair("bob", "alice"))
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("Delete removes by position", func() {
			for _, p := range []Pair{pair("a", "b"), pair("c", "d"), pair("e", "f")} {
				_, err := svc.Save(ctx, "c1", p)
				convey.So(err, convey.ShouldBeNil)
			}
			pairs, err := svc.Delete(ctx, "c1", 1)
			convey.So(err, convey.ShouldBeNil)
			convey.So(pairs, convey.ShouldResemble, []Pair{pair("a", "b"), pair("e", "f")})

			convey.Convey("and rejects out-of-range indexes", func() {
				_, err := svc.Delete(ctx, "c1", 2)
				convey.So(errors.Is(err, ErrIndexOutOfRange), convey.ShouldBeTrue)
				_, err = svc.Delete(ctx, "c1", -1)
				convey.So(errors.Is(err, ErrIndexOutOfRange), convey.ShouldBeTrue)
			})
		})

		convey.Convey("Clients are isolated", func() {
			_, err := svc.Save(ctx, "c1", pair("alice", "bob"))
			convey.So(err, convey.ShouldBeNil)
			pairs, err := svc.List(ctx, "c2")
			convey.So(err, convey.ShouldBeNil)
			convey.So(pairs, convey.ShouldBeEmpty)
		})

		convey.Convey("A blank client id is rejected", func() {
			_, err := svc.List(ctx, " ")
			convey.So(errors.Is(err, ErrNoClient), convey.ShouldBeTrue)
		})
	})
}

func TestService_ConcurrentSavesSameClient(t *testing.T) {
	ctx := context.Background()
	svc := New(NewMemoryStore())

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Save(ctx, "c1", pair("u", string(rune('a'+i)))); err != nil {
				t.Errorf("Save() error = %v", err)
			}
		}()
	}
	wg.Wait()

	pairs, err := svc.List(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 20 {
		t.Errorf("saved %d pairs, want 20 (lost update)", len(pairs))
	}
}

func TestDiskStore(t *testing.T) {
	convey.Convey("Given a disk store", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		store, err := NewDiskStore(dir, time.Hour)
		convey.So(err, convey.ShouldBeNil)

		svc := New(store)
		_, err = svc.Save(ctx, "c1", pair("alice", "bob"))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Pairs survive reopening the store", func() {
			convey.So(store.Close(), convey.ShouldBeNil)
			reopened, err := NewDiskStore(dir, time.Hour)
			convey.So(err, convey.ShouldBeNil)
			defer reopened.Close() //nolint:errcheck // test cleanup

			pairs, err := New(reopened).List(ctx, "c1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(pairs, convey.ShouldResemble, []Pair{pair("alice", "bob")})
		})
	})
}

// TestRedisStore runs against a real server when CPCOMPARE_TEST_REDIS_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("CPCOMPARE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CPCOMPARE_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close() //nolint:errcheck // test cleanup

	prefix := "cpcompare:test:" + time.Now().Format("150405.000000") + ":"
	svc := New(NewRedisStore(client, prefix, time.Minute))

	if _, err := svc.Save(ctx, "c1", pair("alice", "bob")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := svc.Save(ctx, "c1", pair("alice", "bob")); !errors.Is(err, ErrDuplicatePair) {
		t.Errorf("Save(duplicate) error = %v, want ErrDuplicatePair", err)
	}
	pairs, err := svc.Delete(ctx, "c1", 0)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("after delete = %v, want empty", pairs)
	}
	if n, err := client.Exists(ctx, prefix+"c1").Result(); err != nil || n != 0 {
		t.Errorf("key still exists after deleting last pair (n=%d, err=%v)", n, err)
	}
}
