package middleware

import (
	"net/http"
	"strconv"
	"time"

	"action_items/internal/metrics"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// RateLimit picks the Redis limiter when rdb is set and the in-process one otherwise.
func RateLimit(rdb *redis.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	if rdb == nil {
		return SimpleRateLimit(maxRequests, window)
	}
	return RedisRateLimit(rdb, maxRequests, window)
}

// RedisRateLimit implements a simple fixed-window rate limiter using Redis INCR/EXPIRE.
// key format: rl:<window_seconds>:<identifier>
func RedisRateLimit(rdb *redis.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}
		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()
		limitWithRedis(c, rdb, key, c.FullPath(), maxRequests, window)
	}
}

// UserRateLimit limits per authenticated user rather than per IP. JWT must run first.
func UserRateLimit(rdb *redis.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "not authorized"})
			return
		}

		key := "user_rl:" + userID + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
		limitWithRedis(c, rdb, key, "user:"+c.FullPath(), maxRequests, window)
	}
}

func limitWithRedis(c *gin.Context, rdb *redis.Client, key, endpoint string, maxRequests int, window time.Duration) {
	ctx := c.Request.Context()

	val, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		// fail open
		c.Header("X-RateLimit-Error", "redis-error")
		c.Next()
		return
	}

	if val == 1 {
		rdb.Expire(ctx, key, window)
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

	if val > int64(maxRequests) {
		metrics.RLBlocked.WithLabelValues(endpoint).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success":     false,
			"message":     "rate limit exceeded",
			"retry_after": int(window.Seconds()),
		})
		return
	}

	metrics.RLRequests.WithLabelValues(endpoint).Inc()
	c.Next()
}
