package app

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// windowRedis answers the attempt script from memory. Other Scripter
// methods panic through the embedded nil interface.
type windowRedis struct {
	redis.Scripter

	counts    map[string]int64
	remaining int64
	windows   []interface{}
	reply     interface{}
	err       error
}

func newWindowRedis() *windowRedis {
	return &windowRedis{counts: map[string]int64{}, remaining: 1500}
}

func (w *windowRedis) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	if w.err != nil {
		return redis.NewCmdResult(nil, w.err)
	}
	if w.reply != nil {
		return redis.NewCmdResult(w.reply, nil)
	}
	w.windows = append(w.windows, args[0])
	w.counts[keys[0]]++
	return redis.NewCmdResult([]interface{}{w.counts[keys[0]], w.remaining}, nil)
}

func (w *windowRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := w.counts[k]; ok {
			delete(w.counts, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisRateLimiterCountsPerSubject(t *testing.T) {
	ctx := context.Background()
	fake := newWindowRedis()
	limiter := newRateLimiter(fake, "")

	count, retryAfter, err := limiter.ConsumeRateLimit(ctx, "login", "admin:Ops@Example.com", 5, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, 2, retryAfter)

	count, _, err = limiter.ConsumeRateLimit(ctx, "login", "admin:ops@example.com", 5, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Equal(t, int64(2), fake.counts["kioskpay:rate_limit:login:admin:ops@example.com"])

	count, _, err = limiter.ConsumeRateLimit(ctx, "login", "customer:ops@example.com", 5, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.Equal(t, []interface{}{int64(60000), int64(60000), int64(60000)}, fake.windows)
}

func TestRedisRateLimiterClampsShortWindows(t *testing.T) {
	fake := newWindowRedis()
	limiter := newRateLimiter(fake, "custom:")

	_, _, err := limiter.ConsumeRateLimit(context.Background(), "login", "a", 5, 10*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, []interface{}{int64(1000)}, fake.windows)
	require.Contains(t, fake.counts, "custom:login:a")
}

func TestRedisRateLimiterSkipsWithoutSubjectOrLimit(t *testing.T) {
	fake := newWindowRedis()
	limiter := newRateLimiter(fake, "")

	for _, tt := range []struct {
		scope, subject string
		limit          int
	}{
		{"login", " ", 5},
		{"", "a", 5},
		{"login", "a", 0},
	} {
		count, _, err := limiter.ConsumeRateLimit(context.Background(), tt.scope, tt.subject, tt.limit, time.Minute)
		require.NoError(t, err)
		require.Zero(t, count)
	}
	require.Empty(t, fake.windows)

	var unset *RedisRateLimiter
	count, _, err := unset.ConsumeRateLimit(context.Background(), "login", "a", 5, time.Minute)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestRedisRateLimiterReportsBadReplies(t *testing.T) {
	fake := newWindowRedis()
	limiter := newRateLimiter(fake, "")

	fake.reply = []interface{}{int64(1)}
	_, _, err := limiter.ConsumeRateLimit(context.Background(), "login", "a", 5, time.Minute)
	require.Error(t, err)

	fake.reply = []interface{}{"one", int64(100)}
	_, _, err = limiter.ConsumeRateLimit(context.Background(), "login", "a", 5, time.Minute)
	require.Error(t, err)

	fake.reply = nil
	fake.err = errBoom
	_, _, err = limiter.ConsumeRateLimit(context.Background(), "login", "a", 5, time.Minute)
	require.ErrorIs(t, err, errBoom)
}

func TestRedisRateLimiterResetClearsWindow(t *testing.T) {
	ctx := context.Background()
	fake := newWindowRedis()
	limiter := newRateLimiter(fake, "")

	for i := 0; i < 3; i++ {
		_, _, err := limiter.ConsumeRateLimit(ctx, "login", "admin:a@example.com", 5, time.Minute)
		require.NoError(t, err)
	}
	require.NoError(t, limiter.ResetRateLimit(ctx, "login", "admin:A@example.com"))

	count, _, err := limiter.ConsumeRateLimit(ctx, "login", "admin:a@example.com", 5, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
