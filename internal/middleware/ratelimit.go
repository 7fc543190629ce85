package middleware

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/netbill/netbill/internal/ledger"
)

// MutationRateLimit throttles balance-changing requests per actor using
// Redis if available, falling back to the client IP when no actor is set.
func MutationRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 30
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		key := "rl:mutation:" + c.IP()
		if actor, ok := ledger.ActorFromContext(c); ok {
			key = "rl:mutation:" + actor.ID
		}
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err == nil && cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many balance mutations, try again later")
		}
		return c.Next()
	}
}
