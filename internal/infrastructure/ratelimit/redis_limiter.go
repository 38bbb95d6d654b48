package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/you/homeauth/domain"
)

// ErrLimiterUnavailable wraps Redis failures; callers decide whether to fail open
var ErrLimiterUnavailable = errors.New("rate limiter unavailable")

const keyPrefix = "rl:"

// RedisLimiter is a fixed-window counter shared by every instance using the same Redis
type RedisLimiter struct {
	redis redis.UniversalClient
}

// NewRedisLimiter creates a limiter on the given client
func NewRedisLimiter(client redis.UniversalClient) domain.RateLimiter {
	return &RedisLimiter{redis: client}
}

// Allow implements domain.RateLimiter. It counts the hit and reports whether it is
// within limit, plus the time left in the current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if limit <= 0 {
		return true, 0, nil
	}
	k := keyPrefix + key

	count, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, k, window).Err(); err != nil {
			return false, 0, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
	}

	ttl, err := l.redis.PTTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	if ttl < 0 {
		// a key left without expiry would block forever
		if err := l.redis.Expire(ctx, k, window).Err(); err != nil {
			return false, 0, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
		ttl = window
	}

	return count <= int64(limit), ttl, nil
}
