package factory

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/akeren/waitlist-api/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

// Policy is one named limit. Name becomes part of the Redis key prefix, so two policies never
// share counters; the empty name is the router-wide default.
type Policy struct {
	Name     string
	Requests int
	Window   time.Duration
}

func (p Policy) keyPrefix() string {
	name := strings.Trim(p.Name, ":")
	if name == "" {
		return ratelimit.DefaultKeyPrefix
	}
	return ratelimit.DefaultKeyPrefix + name + ":"
}

// RateLimiterFactory hands out limiters that share one backend. With a nil client every limiter
// is in-memory and local to the process.
type RateLimiterFactory struct {
	client *redis.Client
	logger ratelimit.Logger

	mu      sync.Mutex
	created []ratelimit.RateLimiter
}

func NewRateLimiterFactory(client *redis.Client, logger ratelimit.Logger) *RateLimiterFactory {
	return &RateLimiterFactory{client: client, logger: logger}
}

func (f *RateLimiterFactory) Backend() string {
	if f.client != nil {
		return "redis"
	}
	return "memory"
}

func (f *RateLimiterFactory) Create(policy Policy) ratelimit.RateLimiter {
	limiter := ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests:  policy.Requests,
		Window:    policy.Window,
		Redis:     f.client,
		Logger:    f.logger,
		KeyPrefix: policy.keyPrefix(),
	})

	f.mu.Lock()
	f.created = append(f.created, limiter)
	f.mu.Unlock()

	return limiter
}

// Close closes every limiter this factory created. The Redis client is left open.
func (f *RateLimiterFactory) Close() error {
	f.mu.Lock()
	created := f.created
	f.created = nil
	f.mu.Unlock()

	var errs []error
	for _, limiter := range created {
		if err := limiter.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
