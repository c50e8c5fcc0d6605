// Package session keeps each client's list of saved comparison pairs.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

// Errors returned by Service.
var (
	ErrEmptyPair       = errors.New("pair has no usernames")
	ErrDuplicatePair   = errors.New("pair is already saved")
	ErrIndexOutOfRange = errors.New("saved pair index out of range")
	ErrNoClient        = errors.New("missing client id")
)

// Pair is two users' handles saved for later comparison.
type Pair struct {
	User1 profile.Handles `json:"user1"`
	User2 profile.Handles `json:"user2"`
}

// Empty reports whether every handle on both sides is blank.
func (p Pair) Empty() bool { return p.User1.Empty() && p.User2.Empty() }

// Store persists the ordered pair list of a client. Implementations must be
// safe for concurrent use; Service serializes calls for the same client.
type Store interface {
	Load(ctx context.Context, clientID string) ([]Pair, error)
	Save(ctx context.Context, clientID string, pairs []Pair) error
}

// Service applies the saved-pair rules on top of a Store.
type Service struct {
	store  Store
	logger *slog.Logger
	locks  sync.Map // clientID -> *sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates a Service backed by store.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) lock(clientID string) func() {
	v, _ := s.locks.LoadOrStore(clientID, &sync.Mutex{})
	mu := v.(*sync.Mutex) //nolint:errcheck,forcetypeassert // only *sync.Mutex is stored
	mu.Lock()
	return mu.Unlock
}

func checkClient(clientID string) error {
	if strings.TrimSpace(clientID) == "" {
		return ErrNoClient
	}
	return nil
}

// Save appends pair to the client's list and returns the updated list.
// A pair with no usernames, or one identical to an already saved pair, is
// rejected and the list is left unchanged.
func (s *Service) Save(ctx context.Context, clientID string, pair Pair) ([]Pair, error) {
	if err := checkClient(clientID); err != nil {
		return nil, err
	}
	if pair.Empty() {
		return nil, ErrEmptyPair
	}

	defer s.lock(clientID)()

	pairs, err := s.store.Load(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load saved pairs: %w", err)
	}
	for _, p := range pairs {
		if p == pair {
			return pairs, ErrDuplicatePair
		}
	}

	pairs = append(pairs, pair)
	if err := s.store.Save(ctx, clientID, pairs); err != nil {
		return nil, fmt.Errorf("store saved pairs: %w", err)
	}
	s.logger.DebugContext(ctx, "saved comparison pair", "client", clientID, "count", len(pairs))
	return pairs, nil
}

// List returns the client's pairs in insertion order.
func (s *Service) List(ctx context.Context, clientID string) ([]Pair, error) {
	if err := checkClient(clientID); err != nil {
		return nil, err
	}
	defer s.lock(clientID)()

	pairs, err := s.store.Load(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load saved pairs: %w", err)
	}
	if pairs == nil {
		pairs = []Pair{}
	}
	return pairs, nil
}

// Delete removes the pair at index and returns the updated list.
func (s *Service) Delete(ctx context.Context, clientID string, index int) ([]Pair, error) {
	if err := checkClient(clientID); err != nil {
		return nil, err
	}
	defer s.lock(clientID)()

	pairs, err := s.store.Load(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load saved pairs: %w", err)
	}
	if index < 0 || index >= len(pairs) {
		return pairs, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(pairs))
	}

	out := make([]Pair, 0, len(pairs)-1)
	out = append(out, pairs[:index]...)
	out = append(out, pairs[index+1:]...)
	if err := s.store.Save(ctx, clientID, out); err != nil {
		return nil, fmt.Errorf("store saved pairs: %w", err)
	}
	return out, nil
}
