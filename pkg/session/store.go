package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/sfcache"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/localfs"
	"github.com/redis/go-redis/v9"
)

// DefaultRetention is how long an untouched client's pairs are kept by the
// disk and Redis stores.
const DefaultRetention = 90 * 24 * time.Hour

// MemoryStore keeps pairs in process memory.
type MemoryStore struct {
	data map[string][]Pair
	mu   sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]Pair)}
}

// Load returns a copy of the client's pairs.
func (m *MemoryStore) Load(_ context.Context, clientID string) ([]Pair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.data[clientID]), nil
}

// Save replaces the client's pairs.
func (m *MemoryStore) Save(_ context.Context, clientID string, pairs []Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(pairs) == 0 {
		delete(m.data, clientID)
		return nil
	}
	m.data[clientID] = slices.Clone(pairs)
	return nil
}

// DiskStore persists pairs on local disk through sfcache.
type DiskStore struct {
	cache     *sfcache.TieredCache[string, []Pair]
	retention time.Duration
}

// NewDiskStore creates a DiskStore rooted at dir.
func NewDiskStore(dir string, retention time.Duration) (*DiskStore, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	store, err := localfs.New[string, []Pair]("cpcompare-sessions", dir)
	if err != nil {
		return nil, fmt.Errorf("create session persistence: %w", err)
	}
	tc, err := sfcache.NewTiered[string, []Pair](store, sfcache.TTL(retention))
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &DiskStore{cache: tc, retention: retention}, nil
}

// Load returns the client's pairs, or none if nothing is stored.
func (d *DiskStore) Load(ctx context.Context, clientID string) ([]Pair, error) {
	pairs, found, err := d.cache.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return slices.Clone(pairs), nil
}

// Save replaces the client's pairs.
func (d *DiskStore) Save(ctx context.Context, clientID string, pairs []Pair) error {
	return d.cache.Set(ctx, clientID, slices.Clone(pairs), d.retention)
}

// Close flushes the underlying cache.
func (d *DiskStore) Close() error {
	return d.cache.Close()
}

// RedisStore keeps pairs in Redis as a JSON document per client.
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewRedisStore creates a RedisStore. Keys are "<prefix><clientID>".
func NewRedisStore(client redis.UniversalClient, prefix string, retention time.Duration) *RedisStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if prefix == "" {
		prefix = "cpcompare:saved:"
	}
	return &RedisStore{client: client, prefix: prefix, retention: retention}
}

// Load returns the client's pairs, or none if the key does not exist.
func (r *RedisStore) Load(ctx context.Context, clientID string) ([]Pair, error) {
	raw, err := r.client.Get(ctx, r.prefix+clientID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var pairs []Pair
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("decode saved pairs: %w", err)
	}
	return pairs, nil
}

// Save replaces the client's pairs. An empty list deletes the key.
func (r *RedisStore) Save(ctx context.Context, clientID string, pairs []Pair) error {
	key := r.prefix + clientID
	if len(pairs) == 0 {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		return nil
	}
	raw, err := json.Marshal(pairs)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, raw, r.retention).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
