package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why a fetch failed.
type ErrorKind string

// Fetch failure kinds.
const (
	KindValidation          ErrorKind = "validation"
	KindNotFound            ErrorKind = "not_found"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
)

// FetchError is the terminal failure of one (platform, username) fetch.
type FetchError struct {
	Err      error     `json:"-"`
	Platform Platform  `json:"platform"`
	Username string    `json:"username"`
	Kind     ErrorKind `json:"kind"`
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %q: %s", e.Platform, e.Username, e.Kind)
	}
	return fmt.Sprintf("%s %q: %v", e.Platform, e.Username, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MarshalJSON includes the underlying message.
func (e *FetchError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Platform Platform  `json:"platform"`
		Username string    `json:"username"`
		Kind     ErrorKind `json:"kind"`
		Message  string    `json:"error"`
	}{e.Platform, e.Username, e.Kind, e.Error()})
}

// Classify converts an adapter error into a FetchError. Errors that are
// already FetchErrors are returned unchanged. Anything that is neither a
// validation failure nor a confirmed missing user is treated as the
// upstream being unavailable.
func Classify(platform Platform, username string, err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	kind := KindUpstreamUnavailable
	switch {
	case errors.Is(err, ErrInvalidUsername):
		kind = KindValidation
	case errors.Is(err, ErrProfileNotFound):
		kind = KindNotFound
	}
	return &FetchError{Platform: platform, Username: username, Kind: kind, Err: err}
}

// Result is either a normalized profile or a FetchError, never both.
type Result struct {
	profile *Profile
	err     *FetchError
}

// OK wraps a successfully fetched profile.
func OK(p *Profile) Result {
	if p == nil {
		panic("profile: OK called with nil profile")
	}
	return Result{profile: p}
}

// Fail wraps a fetch failure.
func Fail(err *FetchError) Result {
	if err == nil {
		panic("profile: Fail called with nil error")
	}
	return Result{err: err}
}

// Settle builds a Result from an adapter's return values.
func Settle(platform Platform, username string, p *Profile, err error) Result {
	if err != nil {
		return Fail(Classify(platform, username, err))
	}
	if p == nil {
		return Fail(&FetchError{
			Platform: platform, Username: username, Kind: KindUpstreamUnavailable,
			Err: errors.New("adapter returned no profile"),
		})
	}
	return OK(p)
}

// Profile returns the profile and true when the fetch succeeded.
func (r Result) Profile() (*Profile, bool) { return r.profile, r.profile != nil }

// Err returns the failure, or nil when the fetch succeeded.
func (r Result) Err() *FetchError { return r.err }

// OK reports whether the fetch succeeded.
func (r Result) OK() bool { return r.profile != nil }

// MarshalJSON renders either the profile or {"error": "...", "kind": "..."}.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.profile != nil {
		return json.Marshal(r.profile)
	}
	if r.err != nil {
		return json.Marshal(r.err)
	}
	return []byte("null"), nil
}

// Handles holds one username per platform for a single person.
// Empty fields mean "not provided".
type Handles struct {
	LeetCode      string `json:"leetcode"`
	Codeforces    string `json:"codeforces"`
	AtCoder       string `json:"atcoder"`
	GeeksforGeeks string `json:"geeksforgeeks,omitempty"`
}

// Get returns the handle for platform p.
func (h Handles) Get(p Platform) string {
	switch p {
	case LeetCode:
		return h.LeetCode
	case Codeforces:
		return h.Codeforces
	case AtCoder:
		return h.AtCoder
	case GeeksforGeeks:
		return h.GeeksforGeeks
	default:
		return ""
	}
}

// Set assigns the handle for platform p.
func (h *Handles) Set(p Platform, username string) {
	switch p {
	case LeetCode:
		h.LeetCode = username
	case Codeforces:
		h.Codeforces = username
	case AtCoder:
		h.AtCoder = username
	case GeeksforGeeks:
		h.GeeksforGeeks = username
	}
}

// Active returns the platforms with a non-blank handle, in display order.
func (h Handles) Active() []Platform {
	var out []Platform
	for _, p := range AllPlatforms {
		if strings.TrimSpace(h.Get(p)) != "" {
			out = append(out, p)
		}
	}
	return out
}

// Empty reports whether every handle is blank.
func (h Handles) Empty() bool { return len(h.Active()) == 0 }
