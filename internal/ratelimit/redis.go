package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/choosing-sucks/gateway/internal/storage"
)

// RedisLimiter is a fixed-window limiter backed by shared Redis counters.
// Unlike the memory limiter its counts hold across gateway instances, which
// closes the multiply-by-instance-count hole at the cost of a network hop.
type RedisLimiter struct {
	redis  *storage.RedisClient
	limit  int
	window time.Duration
}

func NewRedisLimiter(redis *storage.RedisClient, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		redis:  redis,
		limit:  limit,
		window: window,
	}
}

func (r *RedisLimiter) key(key string) string {
	currentWindow := time.Now().Unix() / int64(r.window.Seconds())
	return fmt.Sprintf("ratelimit:fixed:%s:%d", key, currentWindow)
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := r.key(key)

	count, err := r.redis.Incr(ctx, redisKey)
	if err != nil {
		return false, err
	}

	if count == 1 {
		r.redis.Expire(ctx, redisKey, r.window)
	}

	return count <= int64(r.limit), nil
}

func (r *RedisLimiter) Remaining(ctx context.Context, key string) (int, error) {
	val, err := r.redis.Get(ctx, r.key(key))
	if storage.IsNil(err) {
		return r.limit, nil
	}
	if err != nil {
		return 0, err
	}

	count, _ := strconv.Atoi(val)
	remaining := r.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (r *RedisLimiter) Limit() int {
	return r.limit
}

func (r *RedisLimiter) Window() time.Duration {
	return r.window
}

// Reset reports when the current window ends. A live counter carries the
// authoritative TTL; without one the window ends at the next boundary.
func (r *RedisLimiter) Reset(ctx context.Context, key string) (time.Time, error) {
	ttl, err := r.redis.TTL(ctx, r.key(key))
	if err != nil {
		return time.Time{}, err
	}
	if ttl > 0 {
		return time.Now().Add(ttl), nil
	}

	currentWindow := time.Now().Unix() / int64(r.window.Seconds())
	nextWindow := (currentWindow + 1) * int64(r.window.Seconds())
	return time.Unix(nextWindow, 0), nil
}
