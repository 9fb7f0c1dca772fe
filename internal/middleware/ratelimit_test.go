package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/choosing-sucks/gateway/internal/ratelimit"
)

func rateLimitedRouter(limiter ratelimit.Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/test", RateLimit(limiter), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func doRequest(router *gin.Engine, forwardedFor string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/test", nil)
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit_DeniesOverLimit(t *testing.T) {
	router := rateLimitedRouter(ratelimit.NewMemoryLimiter(2, time.Minute))

	assert.Equal(t, http.StatusOK, doRequest(router, "1.2.3.4").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, "1.2.3.4").Code)

	w := doRequest(router, "1.2.3.4")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error": "Rate limit exceeded"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimit_SeparateIdentities(t *testing.T) {
	router := rateLimitedRouter(ratelimit.NewMemoryLimiter(1, time.Minute))

	assert.Equal(t, http.StatusOK, doRequest(router, "1.2.3.4").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "1.2.3.4").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, "5.6.7.8").Code)
}

func TestRateLimit_Headers(t *testing.T) {
	router := rateLimitedRouter(ratelimit.NewMemoryLimiter(10, time.Minute))

	w := doRequest(router, "1.2.3.4")
	assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestClientIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		forwardedFor string
		want         string
	}{
		{"single ip", "1.2.3.4", "1.2.3.4"},
		{"chain uses first hop", "1.2.3.4, 10.0.0.1, 10.0.0.2", "1.2.3.4"},
		{"missing header", "", "unknown"},
		{"padded", "  1.2.3.4  ", "1.2.3.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.forwardedFor != "" {
				c.Request.Header.Set("X-Forwarded-For", tt.forwardedFor)
			}
			assert.Equal(t, tt.want, ClientIdentity(c))
		})
	}
}

func TestRateLimit_AllowErrorFailsClosed(t *testing.T) {
	router := rateLimitedRouter(failingLimiter{})

	w := doRequest(router, "1.2.3.4")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return false, assert.AnError
}
func (failingLimiter) Remaining(ctx context.Context, key string) (int, error) { return 0, nil }
func (failingLimiter) Limit() int                                             { return 0 }
func (failingLimiter) Window() time.Duration                                  { return 0 }
func (failingLimiter) Reset(ctx context.Context, key string) (time.Time, error) {
	return time.Time{}, nil
}
