package router

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/akeren/waitlist-api/pkg/factory"
	"github.com/akeren/waitlist-api/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

func (routerService *RouterService) initRateLimiting() {
	requests, window := routerService.config.RateLimitRequests, routerService.config.RateLimitWindow

	redisClient := routerService.redisClient
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			routerService.logger.Warn("Failed to connect to Redis for rate limiting, falling back to in-memory", "error", err)
			redisClient = nil
		}
	}

	routerService.limiters = factory.NewRateLimiterFactory(redisClient, routerService.logger)
	routerService.rateLimiter = routerService.limiters.Create(factory.Policy{Requests: requests, Window: window})

	routerService.logger.Info("Rate limiting initialized", "backend", routerService.limiters.Backend(), "requests", requests, "window", window)
}

// NewRateLimiter builds a named limiter on the router's backend for use with RateLimitWith or
// as a per-handler override.
func (routerService *RouterService) NewRateLimiter(name string, requests int, window time.Duration) ratelimit.RateLimiter {
	return routerService.limiters.Create(factory.Policy{Name: name, Requests: requests, Window: window})
}

// limiterFor picks the handler override, then the controller override, then the global limiter.
func (routerService *RouterService) limiterFor(handlerKey string, controller *RESTController) ratelimit.RateLimiter {
	if limiter, ok := routerService.rateLimitOverrides[handlerKey]; ok {
		return limiter
	}
	if limiter, ok := routerService.rateLimitOverrides[controller.mountPoint]; ok {
		return limiter
	}
	return routerService.rateLimiter
}

func setRateLimitHeaders(c *gin.Context, limit int, window time.Duration) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Window", window.String())
}

// rateLimitMiddleware doubles as the route guard: a path no controller registered is a 404
// before any limiter is consulted.
func (routerService *RouterService) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		handlerKey := routerService.keyForPathAndMethod(c.FullPath(), c.Request.Method)
		controller, found := routerService.handlerToControllerMap[handlerKey]
		if !found || controller == nil {
			routerService.logger.Warn("No controller mapped for request", "method", c.Request.Method, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusNotFound,
				ErrorResult(http.StatusNotFound, fmt.Sprintf("There is no handler configured to handle any resource at the path %s", c.Request.URL.Path), nil).ToJSON())
			return
		}

		limiter := routerService.limiterFor(handlerKey, controller)
		if limiter == nil {
			c.Next()
			return
		}

		limit, window := limiter.GetLimitDetails()
		setRateLimitHeaders(c, limit, window)

		clientIP := c.ClientIP()
		limited, err := limiter.IsLimited(c.Request.Context(), clientIP)
		if err != nil {
			// Fail open on limiter backend errors.
			routerService.logger.Error("Rate limiter error", "error", err, "client_ip", clientIP)
			c.Next()
			return
		}

		if limited {
			retryAfter := strconv.Itoa(max(1, int(math.Ceil(window.Seconds()))))
			routerService.logger.Warn("Rate limit exceeded", "client_ip", clientIP, "route", c.FullPath())
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResult(http.StatusTooManyRequests, "Too Many Requests", RateLimitResponse{
				Limit:      limit,
				Window:     window.String(),
				RetryAfter: retryAfter,
			}).ToJSON())
			return
		}

		c.Next()
	}
}
