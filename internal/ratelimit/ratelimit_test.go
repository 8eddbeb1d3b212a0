package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/spacial/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilLimiterAllows(t *testing.T) {
	var limiter *IngestLimiter
	ctx := context.Background()

	assert.False(t, limiter.Enabled())

	res, err := limiter.AllowOperator(ctx, "OP-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	token, ok, err := limiter.TryLockSerial(ctx, "1", "2", "SN")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, token)
	assert.NoError(t, limiter.ReleaseSerial(ctx, "1", "2", "SN", token))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "spacial:ingest:operator:op-7", OperatorKey(" OP-7 "))
	assert.Equal(t, "spacial:ingest:operator:anonymous", OperatorKey(""))
	assert.Equal(t, "spacial:ingest:lock:10:20:SN-1", SerialKey("10", " 20", "SN-1 "))
}

func TestBuildResult(t *testing.T) {
	allowed := buildResult(true, 4, 1_000, 2, 10)
	assert.True(t, allowed.Allowed)
	assert.Equal(t, 4, allowed.Remaining)
	assert.Equal(t, 10, allowed.Limit)
	assert.Zero(t, allowed.RetryAfter)

	denied := buildResult(false, 0, 1_000, 2, 10)
	assert.False(t, denied.Allowed)
	assert.Equal(t, 500*time.Millisecond, denied.RetryAfter)
	assert.Equal(t, time.UnixMilli(1_500), denied.ResetTime)
}

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, 10*time.Second, defaultBucketTTL(2, 10))
	assert.Equal(t, time.Second, defaultBucketTTL(100, 1))
	assert.Equal(t, time.Second, defaultBucketTTL(0, 1))
}

func TestCasts(t *testing.T) {
	assert.Equal(t, int64(3), castToInt(int64(3)))
	assert.Equal(t, int64(2), castToInt(2.9))
	assert.Equal(t, 1.5, castToFloat("1.5"))
	assert.Equal(t, 0.0, castToFloat("nope"))
}

func TestAllowOperator_RedisUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	limiter := newIngestLimiter(client, config.RateLimitConfig{OperatorRate: 1, OperatorBurst: 1})
	require.True(t, limiter.Enabled())

	_, err := limiter.AllowOperator(context.Background(), "OP-1")
	assert.Error(t, err)
}

func TestSerialLock_Guards(t *testing.T) {
	ctx := context.Background()

	var unset *SerialLock
	_, _, err := unset.Acquire(ctx, "k", time.Second)
	assert.ErrorIs(t, err, ErrLockUnavailable)
	assert.NoError(t, unset.Release(ctx, "k", "owner"))

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	lock := NewSerialLock(client)

	_, _, err = lock.Acquire(ctx, "", time.Second)
	assert.ErrorIs(t, err, ErrLockKeyEmpty)
	_, _, err = lock.Acquire(ctx, "k", 0)
	assert.ErrorIs(t, err, ErrLockTTL)
	assert.NoError(t, lock.Release(ctx, "k", ""))
}

func newRedisLimiter(t *testing.T, cfg config.RateLimitConfig) (*IngestLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return newIngestLimiter(client, cfg), mr
}

func TestAllowOperator_DeniesAfterBurst(t *testing.T) {
	limiter, _ := newRedisLimiter(t, config.RateLimitConfig{OperatorRate: 0.01, OperatorBurst: 2})
	ctx := context.Background()

	first, err := limiter.AllowOperator(ctx, "OP-1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 2, first.Limit)
	assert.Equal(t, 1, first.Remaining)

	second, err := limiter.AllowOperator(ctx, " op-1 ")
	require.NoError(t, err)
	assert.True(t, second.Allowed)

	denied, err := limiter.AllowOperator(ctx, "op-1")
	require.NoError(t, err)
	assert.False(t, denied.Allowed)
	assert.Zero(t, denied.Remaining)
	assert.Greater(t, denied.RetryAfter, 90*time.Second)

	other, err := limiter.AllowOperator(ctx, "op-2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestAllowOperator_BucketExpires(t *testing.T) {
	limiter, mr := newRedisLimiter(t, config.RateLimitConfig{OperatorRate: 1, OperatorBurst: 1})
	ctx := context.Background()

	res, err := limiter.AllowOperator(ctx, "op-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.True(t, mr.Exists(OperatorKey("op-1")))

	mr.FastForward(defaultBucketTTL(1, 1))
	assert.False(t, mr.Exists(OperatorKey("op-1")))
}

func TestTryLockSerial_Contention(t *testing.T) {
	limiter, mr := newRedisLimiter(t, config.RateLimitConfig{OperatorRate: 1, OperatorBurst: 1, SerialLockTTLSeconds: 3})
	ctx := context.Background()

	token, ok, err := limiter.TryLockSerial(ctx, "1", "2", "SN-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	_, ok, err = limiter.TryLockSerial(ctx, "1", "2", "SN-1")
	require.NoError(t, err)
	assert.False(t, ok)

	other, ok, err := limiter.TryLockSerial(ctx, "1", "2", "SN-2")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, limiter.ReleaseSerial(ctx, "1", "2", "SN-2", other))

	require.NoError(t, limiter.ReleaseSerial(ctx, "1", "2", "SN-1", "someone-else"))
	assert.True(t, mr.Exists(SerialKey("1", "2", "SN-1")))

	require.NoError(t, limiter.ReleaseSerial(ctx, "1", "2", "SN-1", token))
	assert.False(t, mr.Exists(SerialKey("1", "2", "SN-1")))

	_, ok, err = limiter.TryLockSerial(ctx, "1", "2", "SN-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, mr.TTL(SerialKey("1", "2", "SN-1")))

	mr.FastForward(3 * time.Second)
	_, ok, err = limiter.TryLockSerial(ctx, "1", "2", "SN-1")
	require.NoError(t, err)
	assert.True(t, ok)
}
