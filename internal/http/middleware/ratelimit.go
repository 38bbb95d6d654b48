package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/you/homeauth/domain"
	"github.com/you/homeauth/internal/config"
	"github.com/you/homeauth/internal/http/response"
	"go.uber.org/zap"
)

// Rate limit messages per route group
const (
	LoginLimitMessage         = "Too many login attempts. Try again in 15 minutes."
	OTPLimitMessage           = "Too many OTP requests. Try again in 10 minutes."
	PasswordResetLimitMessage = "Too many password reset attempts. Try again in 1 hour."
)

// RateLimitMW limits requests per route group and client IP
type RateLimitMW struct {
	limiter domain.RateLimiter
	logger  *zap.Logger
}

// NewRateLimitMW creates the rate limit middleware wrapper
func NewRateLimitMW(limiter domain.RateLimiter, logger *zap.Logger) *RateLimitMW {
	return &RateLimitMW{limiter: limiter, logger: logger.Named("ratelimit")}
}

// Limit allows w.Max requests per w.Window for each client IP under name.
// The request passes when the limiter is unreachable.
func (mw *RateLimitMW) Limit(name string, w config.Window, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := name + ":" + c.ClientIP()
		allowed, retryAfter, err := mw.limiter.Allow(c.Request.Context(), key, w.Max, w.Window)
		if err != nil {
			mw.logger.Warn("rate limiter unavailable, allowing request",
				zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			response.JSON(c, http.StatusTooManyRequests, message, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
