package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultKeyPrefix = "ratelimit:"

type Logger interface {
	Error(msg string, args ...any)
}

// RateLimiter decides per client key. Keys are usually the client IP.
type RateLimiter interface {
	GetLimitDetails() (int, time.Duration)
	IsLimited(ctx context.Context, key string) (bool, error)
	Close() error
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Redis    *redis.Client // nil selects the in-memory limiter
	Logger   Logger

	// KeyPrefix namespaces Redis keys so per-route limiters do not share counters with the
	// default limiter. The in-memory limiter keeps state per instance and ignores it.
	KeyPrefix string
}

// NewRateLimiter returns a Redis sliding-window limiter when a client is configured, so every
// replica shares one budget, and a per-process token bucket otherwise.
func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	if config.Redis == nil {
		return NewInMemoryRateLimiter(config.Requests, config.Window)
	}

	limiter := NewRedisRateLimiter(config.Redis, config.Requests, config.Window, config.Logger)
	if config.KeyPrefix != "" {
		limiter.keyPrefix = config.KeyPrefix
	}
	return limiter
}
