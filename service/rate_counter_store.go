package service

import (
	"context"
	"sync"
	"time"
)

// RateCounterStore owns the fixed-window counters behind the rate limiter.
// Hit registers one request against key and reports the running count and
// the window reset time. Counters are ephemeral by design.
type RateCounterStore interface {
	Hit(ctx context.Context, key string, window time.Duration, now time.Time) (count int64, resetAt time.Time, err error)
	Sweep(now time.Time)
}

type windowCounter struct {
	count   int64
	resetAt time.Time
}

// MemoryRateCounterStore is a mutex-guarded in-process RateCounterStore.
type MemoryRateCounterStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
}

func NewMemoryRateCounterStore() *MemoryRateCounterStore {
	return &MemoryRateCounterStore{counters: make(map[string]*windowCounter)}
}

func (s *MemoryRateCounterStore) Hit(_ context.Context, key string, window time.Duration, now time.Time) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counter, ok := s.counters[key]
	if !ok || now.After(counter.resetAt) {
		// First request of a fresh window: reset, not decay.
		counter = &windowCounter{count: 1, resetAt: now.Add(window)}
		s.counters[key] = counter
		return counter.count, counter.resetAt, nil
	}

	counter.count++
	return counter.count, counter.resetAt, nil
}

// Sweep drops counters whose window has passed, bounding memory growth.
func (s *MemoryRateCounterStore) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, counter := range s.counters {
		if now.After(counter.resetAt) {
			delete(s.counters, key)
		}
	}
}

// RedisRateCounterStore keeps the window counters in redis so that all
// replicas throttle against the same numbers. INCR creates the counter on
// first use; the window is pinned with PEXPIRE on that first hit only, so
// later increments never extend it.
type RedisRateCounterStore struct {
	client ICacheClient
}

func NewRedisRateCounterStore(client ICacheClient) *RedisRateCounterStore {
	return &RedisRateCounterStore{client: client}
}

func (s *RedisRateCounterStore) Hit(ctx context.Context, key string, window time.Duration, now time.Time) (int64, time.Time, error) {
	redisKey := "ratelimit:" + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, time.Time{}, err
	}

	if count == 1 {
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
		return count, now.Add(window), nil
	}

	ttl, err := s.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	if ttl < 0 {
		// The key lost its TTL (e.g. expiry raced the INCR). Re-pin the
		// window rather than leaving an immortal counter behind.
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
		ttl = window
	}
	return count, now.Add(ttl), nil
}

// Sweep is a no-op: redis evicts counters via their TTL.
func (s *RedisRateCounterStore) Sweep(time.Time) {}
