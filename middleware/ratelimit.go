package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medcenter/appointment-api/config"
	"github.com/medcenter/appointment-api/util"
)

const (
	defaultRateLimit  = 5                // 5 attempts
	defaultRateWindow = 15 * time.Minute // per 15 minutes
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// RateLimiter creates a rate limiting middleware keyed by client IP and path.
// Used on the authentication endpoints to slow credential guessing.
func RateLimiter(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limit == 0 {
		cfg.Limit = defaultRateLimit
	}
	if cfg.Window == 0 {
		cfg.Window = defaultRateWindow
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		endpoint := c.Request.URL.Path

		key := fmt.Sprintf("ratelimit:%s:%s", endpoint, clientIP)

		allowed, err := checkRateLimit(c, key, cfg.Limit, cfg.Window)
		if err != nil {
			// If rate limiting fails, log the error but allow the request
			// to prevent denial of service due to Redis unavailability.
			util.LogSecurityEvent(util.SecurityEvent{
				EventType: util.EventRateLimitExceeded,
				IP:        clientIP,
				Message:   fmt.Sprintf("Rate limit check failed: %v", err),
			})
			c.Next()
			return
		}

		if !allowed {
			util.LogRateLimitExceeded("", clientIP, endpoint)
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Too many requests. Please try again later.",
				Err: fmt.Errorf("rate limit exceeded"),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// incrementRateCounter bumps the fixed-window counter for key and returns the
// new count. ok=false means no counter backend is available and the request
// must be allowed. Swapped in tests.
var incrementRateCounter = incrementRedisCounter

func incrementRedisCounter(ctx context.Context, key string, window time.Duration) (count int64, ok bool, err error) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return 0, false, nil
	}

	count, err = rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, true, err
	}
	if count == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return count, true, err
		}
	}
	return count, true, nil
}

// checkRateLimit returns true if the request is within the fixed window limit.
// When no counter backend is available the request is allowed.
func checkRateLimit(c *gin.Context, key string, limit int, window time.Duration) (bool, error) {
	count, ok, err := incrementRateCounter(c.Request.Context(), key, window)
	if !ok {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return count <= int64(limit), nil
}
