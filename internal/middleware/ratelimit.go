package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

type RateLimiter struct {
	config RateLimitConfig

	// Global rate limiter
	globalLimiter *rate.Limiter

	// Per remote address limiters
	clientLimiters sync.Map
}

func perMinute(n int) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(n))
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		config: cfg,
		// the whole service takes ten times what one client may send
		globalLimiter: rate.NewLimiter(perMinute(cfg.RequestsPerMinute*10), cfg.Burst*10),
	}
}

func (rl *RateLimiter) getOrCreateClientLimiter(key string) *rate.Limiter {
	limiter, _ := rl.clientLimiters.LoadOrStore(key, rate.NewLimiter(
		perMinute(rl.config.RequestsPerMinute),
		rl.config.Burst,
	))
	return limiter.(*rate.Limiter)
}

func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rl.globalLimiter.Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Global rate limit exceeded",
			})
		}

		if !rl.getOrCreateClientLimiter(c.IP()).Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Client rate limit exceeded",
			})
		}

		return c.Next()
	}
}

// NewMessageLimiter limits the intents one websocket connection may send.
func NewMessageLimiter(perSecond, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
