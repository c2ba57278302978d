package service

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReplayStore remembers webhook signatures that have already been accepted.
// Entries are ephemeral and rebuildable; losing them on restart only reopens
// a replay window bounded by the timestamp skew check.
type ReplayStore interface {
	Seen(ctx context.Context, signature string) (bool, error)
	Record(ctx context.Context, signature string, ttl time.Duration) error
	Sweep(now time.Time)
}

// MemoryReplayStore is a mutex-guarded in-process ReplayStore. Suitable for a
// single instance and for tests; multi-instance deployments use the redis
// variant so all replicas share one replay view.
type MemoryReplayStore struct {
	mu      sync.Mutex
	entries map[string]time.Time // signature -> expiry
	clock   Clock
}

func NewMemoryReplayStore(clock Clock) *MemoryReplayStore {
	if clock == nil {
		clock = systemClock{}
	}
	return &MemoryReplayStore{
		entries: make(map[string]time.Time),
		clock:   clock,
	}
}

func (s *MemoryReplayStore) Seen(_ context.Context, signature string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.entries[signature]
	if !ok {
		return false, nil
	}
	// Lazily drop entries that outlived their TTL.
	if s.clock.Now().After(expiry) {
		delete(s.entries, signature)
		return false, nil
	}
	return true, nil
}

func (s *MemoryReplayStore) Record(_ context.Context, signature string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[signature] = s.clock.Now().Add(ttl)
	return nil
}

// Sweep purges expired entries. A skipped sweep only delays reclamation; the
// lazy check in Seen keeps correctness independent of sweep scheduling.
func (s *MemoryReplayStore) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sig, expiry := range s.entries {
		if now.After(expiry) {
			delete(s.entries, sig)
		}
	}
}

// RedisReplayStore keeps replay signatures in redis with a per-key TTL.
// The signature is hashed down to a fixed-size key so arbitrarily long
// headers cannot bloat the keyspace.
type RedisReplayStore struct {
	client ICacheClient
}

func NewRedisReplayStore(client ICacheClient) *RedisReplayStore {
	return &RedisReplayStore{client: client}
}

func (s *RedisReplayStore) key(signature string) string {
	return "webhook:replay:" + hashSecret(signature)
}

func (s *RedisReplayStore) Seen(ctx context.Context, signature string) (bool, error) {
	_, err := s.client.Get(ctx, s.key(signature)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisReplayStore) Record(ctx context.Context, signature string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(signature), 1, ttl).Err()
}

// Sweep is a no-op: redis evicts keys via their TTL.
func (s *RedisReplayStore) Sweep(time.Time) {}
