// file: service/redis_stores_test.go

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mockCacheClient is a mock implementation of ICacheClient.
type mockCacheClient struct{ mock.Mock }

func (m *mockCacheClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *mockCacheClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *mockCacheClient) Incr(ctx context.Context, key string) *redis.IntCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.IntCmd)
}

func (m *mockCacheClient) PExpire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	args := m.Called(ctx, key, expiration)
	return args.Get(0).(*redis.BoolCmd)
}

func (m *mockCacheClient) PTTL(ctx context.Context, key string) *redis.DurationCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.DurationCmd)
}

func TestRedisRateCounterStore_FirstHitPinsWindow(t *testing.T) {
	client := new(mockCacheClient)
	store := NewRedisRateCounterStore(client)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	client.On("Incr", mock.Anything, "ratelimit:auth:1.2.3.4").
		Return(redis.NewIntResult(1, nil)).Once()
	client.On("PExpire", mock.Anything, "ratelimit:auth:1.2.3.4", time.Minute).
		Return(redis.NewBoolResult(true, nil)).Once()

	count, resetAt, err := store.Hit(context.Background(), "auth:1.2.3.4", time.Minute, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, now.Add(time.Minute), resetAt)
	client.AssertExpectations(t)
}

func TestRedisRateCounterStore_LaterHitsReadTheWindowTTL(t *testing.T) {
	client := new(mockCacheClient)
	store := NewRedisRateCounterStore(client)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	client.On("Incr", mock.Anything, "ratelimit:auth:1.2.3.4").
		Return(redis.NewIntResult(5, nil)).Once()
	client.On("PTTL", mock.Anything, "ratelimit:auth:1.2.3.4").
		Return(redis.NewDurationResult(30*time.Second, nil)).Once()

	count, resetAt, err := store.Hit(context.Background(), "auth:1.2.3.4", time.Minute, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), count)
	// The window was pinned on the first hit; later hits must not extend it.
	assert.Equal(t, now.Add(30*time.Second), resetAt)
	client.AssertExpectations(t)
}

// TestRedisRateCounterStore_RepinsLostTTL covers the recovery branch: a
// counter whose expiry raced the INCR reports a negative TTL and must get a
// fresh window instead of living forever.
func TestRedisRateCounterStore_RepinsLostTTL(t *testing.T) {
	client := new(mockCacheClient)
	store := NewRedisRateCounterStore(client)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	client.On("Incr", mock.Anything, "ratelimit:auth:1.2.3.4").
		Return(redis.NewIntResult(2, nil)).Once()
	client.On("PTTL", mock.Anything, "ratelimit:auth:1.2.3.4").
		Return(redis.NewDurationResult(-time.Millisecond, nil)).Once()
	client.On("PExpire", mock.Anything, "ratelimit:auth:1.2.3.4", time.Minute).
		Return(redis.NewBoolResult(true, nil)).Once()

	count, resetAt, err := store.Hit(context.Background(), "auth:1.2.3.4", time.Minute, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, now.Add(time.Minute), resetAt)
	client.AssertExpectations(t)
}

func TestRedisRateCounterStore_PropagatesIncrError(t *testing.T) {
	client := new(mockCacheClient)
	store := NewRedisRateCounterStore(client)

	client.On("Incr", mock.Anything, mock.Anything).
		Return(redis.NewIntResult(0, errors.New("connection refused"))).Once()

	_, _, err := store.Hit(context.Background(), "auth:1.2.3.4", time.Minute, time.Now())
	assert.Error(t, err)
	client.AssertExpectations(t)
}

func TestRedisReplayStore_RecordThenSeen(t *testing.T) {
	client := new(mockCacheClient)
	store := NewRedisReplayStore(client)
	// Arbitrarily long signatures collapse to a fixed-size redis key.
	key := "webhook:replay:" + hashSecret("some-signature")

	client.On("Get", mock.Anything, key).
		Return(redis.NewStringResult("", redis.Nil)).Once()

	seen, err := store.Seen(context.Background(), "some-signature")
	assert.NoError(t, err)
	assert.False(t, seen)

	client.On("Set", mock.Anything, key, 1, 5*time.Minute).
		Return(redis.NewStatusResult("OK", nil)).Once()
	assert.NoError(t, store.Record(context.Background(), "some-signature", 5*time.Minute))

	client.On("Get", mock.Anything, key).
		Return(redis.NewStringResult("1", nil)).Once()

	seen, err = store.Seen(context.Background(), "some-signature")
	assert.NoError(t, err)
	assert.True(t, seen)
	client.AssertExpectations(t)
}

func TestRedisReplayStore_PropagatesLookupError(t *testing.T) {
	client := new(mockCacheClient)
	store := NewRedisReplayStore(client)

	client.On("Get", mock.Anything, mock.Anything).
		Return(redis.NewStringResult("", errors.New("connection refused"))).Once()

	_, err := store.Seen(context.Background(), "some-signature")
	assert.Error(t, err)
	client.AssertExpectations(t)
}
