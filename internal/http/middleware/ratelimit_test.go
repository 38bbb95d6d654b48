package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/homeauth/internal/config"
	"github.com/you/homeauth/internal/infrastructure/ratelimit"
	"github.com/you/homeauth/internal/mocks"
	"go.uber.org/zap"
)

func limitedRouter(mw *RateLimitMW, w config.Window) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/login", mw.Limit("login", w, LoginLimitMessage), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimitMW_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mw := NewRateLimitMW(ratelimit.NewRedisLimiter(client), zap.NewNop())
	r := limitedRouter(mw, config.Window{Max: 2, Window: 15 * time.Minute})

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
		codes = append(codes, w.Code)
		last = w
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Contains(t, last.Body.String(), LoginLimitMessage)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))

	// the window resets once the key expires
	mr.FastForward(16 * time.Minute)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMW_FailsOpen(t *testing.T) {
	limiter := mocks.NewMockRateLimiter()
	limiter.AllowFunc = func(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
		return false, 0, errors.New("dial tcp: connection refused")
	}
	mw := NewRateLimitMW(limiter, zap.NewNop())
	r := limitedRouter(mw, config.Window{Max: 1, Window: time.Minute})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, limiter.Keys, 1)
	assert.Equal(t, "login:192.0.2.1", limiter.Keys[0])
}
