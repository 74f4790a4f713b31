package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"house-hunter/internal/auth"
	"house-hunter/pkg/logger"
	"house-hunter/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const MsgTooManyRequests = "too many requests"

// Counter counts hits per key in a fixed window.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
}

// RedisCounter keeps windows in redis so limits hold across replicas.
type RedisCounter struct {
	rdb    redis.Scripter
	prefix string
}

func NewRedisCounter(rdb redis.Scripter, prefix string) *RedisCounter {
	return &RedisCounter{rdb: rdb, prefix: prefix}
}

func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	return utils.IncrWindow(ctx, r.rdb, r.prefix+key, window)
}

// KeyFunc picks the bucket a request counts against.
type KeyFunc func(c *gin.Context) string

func ByClientIP(c *gin.Context) string { return c.ClientIP() }

// Middleware rejects requests beyond limit per window with 429.
// Counter failures fail open: issuance must not depend on redis being up.
func Middleware(counter Counter, limit int, window time.Duration, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, resetIn, err := counter.Hit(c.Request.Context(), key(c), window)
		if err != nil {
			logger.FromGin(c).Warn("rate limit check failed", "err", err)
			c.Next()
			return
		}

		remaining := int64(limit) - count
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, remaining), 10))

		if remaining < 0 {
			if secs := int(resetIn.Seconds()); secs > 0 {
				c.Header("Retry-After", strconv.Itoa(secs))
			}
			auth.Abort(c, http.StatusTooManyRequests, MsgTooManyRequests)
			return
		}
		c.Next()
	}
}
