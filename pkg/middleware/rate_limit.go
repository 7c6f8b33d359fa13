package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/course-server-go/pkg/cache"
	"github.com/mo-amir99/course-server-go/pkg/response"
)

// RateLimiter is a fixed window limiter keyed by client IP. Counters live
// in the cache so every instance sharing a Redis shares the budget.
type RateLimiter struct {
	store  cache.Client
	logger *slog.Logger
	rate   int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter allows rate requests per window for each client.
func NewRateLimiter(store cache.Client, logger *slog.Logger, rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		store:  store,
		logger: logger,
		rate:   rate,
		window: window,
		now:    time.Now,
	}
}

// Middleware returns a Gin middleware that enforces rate limiting.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rate <= 0 {
			c.Next()
			return
		}

		allowed, remaining, err := rl.allow(c, c.ClientIP())
		if err != nil {
			// fail open when the counter store is unavailable
			rl.logger.Warn("rate limiter unavailable", slog.String("error", err.Error()))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Envelope{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error:   response.ErrorBody{Code: "too_many_requests"},
			})
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(c *gin.Context, client string) (bool, int, error) {
	ctx := c.Request.Context()
	bucket := rl.now().UnixNano() / int64(rl.window)
	key := fmt.Sprintf("ratelimit:%s:%d", client, bucket)

	count, err := rl.store.Increment(ctx, key)
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := rl.store.Expire(ctx, key, rl.window); err != nil {
			return false, 0, err
		}
	}

	remaining := rl.rate - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return count <= int64(rl.rate), remaining, nil
}
