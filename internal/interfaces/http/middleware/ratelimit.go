package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/keygate-inc/keygate/internal/shared/constants"
	"github.com/keygate-inc/keygate/internal/shared/logger"
	"github.com/keygate-inc/keygate/internal/shared/utils"
)

// RateLimiter provides Redis-backed per-IP rate limiting using a fixed-window counter.
// All instances share the counters, so the limit holds across a deployment.
type RateLimiter struct {
	redisClient *redis.Client
	limit       int
	window      time.Duration
	scope       string
	now         func() time.Time
	logger      logger.Interface
}

// NewRateLimiter creates a limiter allowing limit requests per window.
// scope namespaces the counters so separate route groups do not share a budget.
func NewRateLimiter(redisClient *redis.Client, scope string, limit int, window time.Duration, log logger.Interface) *RateLimiter {
	if window < time.Second {
		window = time.Second
	}
	return &RateLimiter{
		redisClient: redisClient,
		limit:       limit,
		window:      window,
		scope:       scope,
		now:         time.Now,
		logger:      log,
	}
}

// Limit returns a Gin middleware that enforces the rate limit per client IP.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		windowSeconds := int64(rl.window.Seconds())
		now := rl.now().Unix()
		windowBucket := now / windowSeconds
		key := fmt.Sprintf("keygate:ratelimit:%s:%s:%d", rl.scope, c.ClientIP(), windowBucket)

		ctx := c.Request.Context()
		count, err := rl.redisClient.Incr(ctx, key).Result()
		if err != nil {
			// fail open
			rl.logger.Warnw("rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		if count == 1 {
			rl.redisClient.Expire(ctx, key, rl.window+time.Second)
		}

		remaining := int64(rl.limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header(constants.HeaderRateLimitLimit, strconv.Itoa(rl.limit))
		c.Header(constants.HeaderRateLimitRemain, strconv.FormatInt(remaining, 10))
		c.Header(constants.HeaderRateLimitReset, strconv.FormatInt((windowBucket+1)*windowSeconds, 10))

		if count > int64(rl.limit) {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
