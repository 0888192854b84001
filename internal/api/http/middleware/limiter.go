package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"
)

const defaultRequestsPerMinute = 120

// NewLimiter applies a sliding-window rate limit per client IP. Counters live
// in Redis when rdb is set so limits hold across replicas; otherwise each
// process counts in memory.
func NewLimiter(rdb *redis.Client, perMinute int) fiber.Handler {
	if perMinute <= 0 {
		perMinute = defaultRequestsPerMinute
	}

	cfg := limiter.Config{
		Max:               perMinute,
		Expiration:        time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	}
	if rdb != nil {
		cfg.Storage = fiberredis.NewFromConnection(rdb)
	}
	return limiter.New(cfg)
}
