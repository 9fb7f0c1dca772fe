package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/choosing-sucks/gateway/internal/ratelimit"
)

// ClientIdentity resolves the rate-limit bucket key for a request: the first
// forwarded IP, or "unknown" when no forwarding header is present. Identities
// are not authenticated; they only dampen abuse.
func ClientIdentity(c *gin.Context) string {
	fwd := c.GetHeader("X-Forwarded-For")
	if fwd == "" {
		return "unknown"
	}
	if i := strings.Index(fwd, ","); i >= 0 {
		fwd = fwd[:i]
	}
	return strings.TrimSpace(fwd)
}

// RateLimit guards one route with the given limiter. It runs before any body
// parsing, so a request that would fail validation still consumes a slot.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ClientIdentity(c)
		ctx := c.Request.Context()

		allowed, err := limiter.Allow(ctx, key)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Rate limit check failed",
			})
			c.Abort()
			return
		}

		remaining, _ := limiter.Remaining(ctx, key)
		resetTime, _ := limiter.Reset(ctx, key)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.Limit()))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime.Unix()))

		if !allowed {
			retryAfter := int(time.Until(resetTime).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
