package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// HitCounter counts requests per key within a fixed window.
type HitCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimitMiddleware allows limit requests per client IP per window.
// If the counter is unavailable the request is let through.
func RateLimitMiddleware(counter HitCounter, limit int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := counter.Hit(c.Request.Context(), c.ClientIP(), window)
		if err != nil {
			slog.Warn("rate limiter unavailable", "requestId", GetRequestID(c), "error", err)
			c.Next()
			return
		}

		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > limit {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			RespondWithError(c, http.StatusTooManyRequests, "Too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
