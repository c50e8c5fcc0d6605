package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"invalid", fmt.Errorf("%w: empty", ErrInvalidUsername), KindValidation},
		{"not found", fmt.Errorf("lookup: %w", ErrProfileNotFound), KindNotFound},
		{"deadline", context.DeadlineExceeded, KindUpstreamUnavailable},
		{"anything else", errors.New("unexpected end of JSON input"), KindUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := Classify(Codeforces, "tourist", tt.err)
			if fe.Kind != tt.want {
				t.Errorf("Kind = %s, want %s", fe.Kind, tt.want)
			}
			if !errors.Is(fe, tt.err) {
				t.Error("FetchError does not unwrap to the adapter error")
			}
		})
	}

	if Classify(LeetCode, "x", nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
	orig := &FetchError{Platform: AtCoder, Kind: KindNotFound}
	if got := Classify(LeetCode, "x", fmt.Errorf("wrapped: %w", orig)); got != orig {
		t.Error("an existing FetchError was not passed through")
	}
}

func TestSettle(t *testing.T) {
	p := &Profile{Platform: LeetCode, Username: "alice"}
	if r := Settle(LeetCode, "alice", p, nil); !r.OK() || r.Err() != nil {
		t.Errorf("Settle(ok) = %+v", r)
	}
	r := Settle(LeetCode, "alice", nil, nil)
	if r.OK() || r.Err().Kind != KindUpstreamUnavailable {
		t.Errorf("Settle(nil, nil) = %+v, want upstream failure", r.Err())
	}
	r = Settle(LeetCode, "alice", p, ErrProfileNotFound)
	if _, ok := r.Profile(); ok {
		t.Error("a Result carried both a profile and an error")
	}
}

func TestResultJSON(t *testing.T) {
	ok, err := json.Marshal(OK(&Profile{Platform: AtCoder, Username: "chokudai"}))
	if err != nil {
		t.Fatal(err)
	}
	if string(ok) != `{"platform":"atcoder","username":"chokudai"}` {
		t.Errorf("OK JSON = %s", ok)
	}

	failed, err := json.Marshal(Fail(Classify(GeeksforGeeks, "ghost", ErrProfileNotFound)))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"kind":"not_found"`, `"error":`, `"username":"ghost"`} {
		if !strings.Contains(string(failed), want) {
			t.Errorf("failure JSON %s missing %s", failed, want)
		}
	}
}

func TestHandles(t *testing.T) {
	var h Handles
	if !h.Empty() {
		t.Error("zero Handles is not empty")
	}
	h.Set(Codeforces, "tourist")
	h.Set(GeeksforGeeks, "  ")
	h.Set(LeetCode, "lee215")

	if diff := cmp.Diff([]Platform{LeetCode, Codeforces}, h.Active()); diff != "" {
		t.Errorf("Active() mismatch (-want +got):\n%s", diff)
	}
	if h.Get(Codeforces) != "tourist" || h.Get("topcoder") != "" {
		t.Errorf("Get() = %+v", h)
	}
}

func TestParsePlatform(t *testing.T) {
	for in, want := range map[string]Platform{
		"LeetCode":      LeetCode,
		" codeforces ":  Codeforces,
		"atcoder":       AtCoder,
		"gfg":           GeeksforGeeks,
		"GeeksForGeeks": GeeksforGeeks,
	} {
		if got, ok := ParsePlatform(in); !ok || got != want {
			t.Errorf("ParsePlatform(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParsePlatform("hackerrank"); ok {
		t.Error("ParsePlatform accepted an unsupported platform")
	}
}
