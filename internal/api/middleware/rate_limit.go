package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/prepview/prepview/internal/utils"
)

// RateLimit applies a fixed-window counter per caller (user id when
// authenticated, client IP otherwise) in Redis. With no Redis client the
// limiter is a no-op; Redis errors fail open so a cache outage never
// takes the API down with it.
func RateLimit(rdb *redis.Client, log *logrus.Logger, name string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		caller := c.ClientIP()
		if v, ok := c.Get("user_id"); ok {
			if s, ok := v.(string); ok && s != "" {
				caller = s
			}
		}
		key := fmt.Sprintf("ratelimit:%s:%s", name, caller)

		ctx := c.Request.Context()
		n, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.WithError(err).WithField("limiter", name).Warn("rate limiter unavailable")
			c.Next()
			return
		}
		if n == 1 {
			_ = rdb.Expire(ctx, key, window).Err()
		}

		if n > int64(limit) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apiError{
				Code:    utils.CodeRateLimited,
				Message: "too many requests, slow down",
			})
			return
		}
		c.Next()
	}
}
