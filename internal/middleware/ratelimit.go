package middleware

import (
	"context"
	"fmt"
	"time"

	"devfolio/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

const rateLimitMessage = "Too many requests, please try again later."

// CheckRateLimit increments the fixed-window counter for resource/id and reports whether
// the request is still within limit.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return cnt <= int64(limit), nil
}

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window` per client IP.
// Without Redis it falls back to Fiber's in-memory limiter.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name string) fiber.Handler {
	if rdb == nil {
		return limiter.New(limiter.Config{
			Max:        limit,
			Expiration: window,
			LimitReached: func(c *fiber.Ctx) error {
				RateLimitRejections.WithLabelValues("exceeded").Inc()
				return tooManyRequests(c)
			},
		})
	}
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name)
}

// RateLimitWithPolicy returns a Redis-backed fixed-window limiter with a specific failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		allowed, err := CheckRateLimit(ctx, rdb, name, "ip:"+c.IP(), limit, window)
		if err != nil {
			if policy == FailClosed {
				RateLimitRejections.WithLabelValues("unavailable").Inc()
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					"resource", name, "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Message: "Rate limit unavailable",
					Code:    "RATE_LIMIT_UNAVAILABLE",
				})
			}
			Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing open",
				"resource", name, "error", err)
			return c.Next()
		}

		if !allowed {
			RateLimitRejections.WithLabelValues("exceeded").Inc()
			return tooManyRequests(c)
		}
		return c.Next()
	}
}

func tooManyRequests(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
		Message: rateLimitMessage,
		Code:    "RATE_LIMITED",
	})
}
