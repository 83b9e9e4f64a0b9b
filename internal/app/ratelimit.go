package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRateLimitPrefix = "kioskpay:rate_limit"

// attemptWindowScript counts one attempt and starts the window on the first.
// It returns the attempt count and the milliseconds left in the window.
var attemptWindowScript = redis.NewScript(`
local attempts = redis.call("INCR", KEYS[1])
if attempts == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local remaining = redis.call("PTTL", KEYS[1])
if remaining < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  remaining = tonumber(ARGV[1])
end
return {attempts, remaining}
`)

// rateLimitClient is the part of a Redis client the limiter uses.
type rateLimitClient interface {
	redis.Scripter
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisRateLimiter counts login attempts per subject in a fixed Redis
// window. A successful login clears the subject's window.
type RedisRateLimiter struct {
	client rateLimitClient
	prefix string
}

func NewRedisRateLimiter(client redis.UniversalClient, prefix string) *RedisRateLimiter {
	if client == nil {
		return newRateLimiter(nil, prefix)
	}
	return newRateLimiter(client, prefix)
}

func newRateLimiter(client rateLimitClient, prefix string) *RedisRateLimiter {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = defaultRateLimitPrefix
	}
	return &RedisRateLimiter{client: client, prefix: trimmed}
}

// key builds prefix:scope:subject. Subjects are lower-cased so that
// "Owner@x.com" and "owner@x.com" share a window.
func (r *RedisRateLimiter) key(scope, subject string) (string, bool) {
	scope = strings.TrimSpace(scope)
	subject = strings.ToLower(strings.TrimSpace(subject))
	if scope == "" || subject == "" {
		return "", false
	}
	return r.prefix + ":" + scope + ":" + subject, true
}

// ConsumeRateLimit records one attempt and returns the count inside the
// current window together with the seconds until it resets.
func (r *RedisRateLimiter) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error) {
	if r == nil || r.client == nil || limit <= 0 || window <= 0 {
		return 0, 0, nil
	}
	key, ok := r.key(scope, subject)
	if !ok {
		return 0, 0, nil
	}
	windowMs := max(window.Milliseconds(), 1000)

	raw, err := attemptWindowScript.Run(ctx, r.client, []string{key}, windowMs).Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("rate limit %s: %w", scope, err)
	}
	if len(raw) != 2 {
		return 0, 0, fmt.Errorf("rate limit %s: expected 2 values, got %d", scope, len(raw))
	}
	attempts, ok := raw[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("rate limit %s: attempt count is %T", scope, raw[0])
	}
	remainingMs, ok := raw[1].(int64)
	if !ok || remainingMs < 0 {
		remainingMs = windowMs
	}
	retryAfter := max(int(math.Ceil(float64(remainingMs)/1000.0)), 1)
	return int(attempts), retryAfter, nil
}

// ResetRateLimit drops the subject's window.
func (r *RedisRateLimiter) ResetRateLimit(ctx context.Context, scope, subject string) error {
	if r == nil || r.client == nil {
		return nil
	}
	key, ok := r.key(scope, subject)
	if !ok {
		return nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("reset rate limit %s: %w", scope, err)
	}
	return nil
}
