package ratelimit

import (
	"time"

	"github.com/choosing-sucks/gateway/internal/storage"
)

// NewLimiter builds a limiter for one route. backend "redis" requires a
// connected Redis client; anything else falls back to the in-process limiter.
func NewLimiter(backend string, redis *storage.RedisClient, limit int, window time.Duration) Limiter {
	if backend == "redis" && redis != nil {
		return NewRedisLimiter(redis, limit, window)
	}
	return NewMemoryLimiter(limit, window)
}
