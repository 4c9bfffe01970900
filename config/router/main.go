package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/factory"
	"github.com/akeren/waitlist-api/pkg/ratelimit"
	"github.com/akeren/waitlist-api/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

// RouterService owns the gin engine and the http.Server in front of it. Every route must be
// mounted through a RESTController; unmapped paths are answered by the rate limiter with a 404.
type RouterService struct {
	engine          *gin.Engine
	server          *http.Server
	logger          *log.Logger
	config          RouterConfig
	rateLimiter     ratelimit.RateLimiter
	limiters        *factory.RateLimiterFactory
	redisClient     *redis.Client
	metricsRegistry *prometheus.Registry

	handlerToControllerMap map[string]*RESTController
	rateLimitOverrides     map[string]ratelimit.RateLimiter
}

func CreateRouterService(logger *log.Logger, cache Cache, routerConfig *RouterConfig) *RouterService {
	if mode, ok := os.LookupEnv("GIN_MODE"); ok && mode != "" {
		logger.Info("Setting Gin mode", "mode", mode)
		gin.SetMode(mode)
	}

	var cfg RouterConfig
	if routerConfig != nil {
		cfg = *routerConfig
	}
	cfg = cfg.withEnvDefaults()

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.HandleMethodNotAllowed = true
	engine.RedirectTrailingSlash = true

	if utils.IsTracingEnabled() {
		engine.Use(otelgin.Middleware(utils.OTelServiceName()))
		logger.Info("Tracing middleware enabled")
	}

	// gin trusts every proxy unless told otherwise; ClientIP() keys the rate limiter.
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Error("Invalid TRUSTED_PROXIES; disabling trusted proxies", "error", err)
		_ = engine.SetTrustedProxies(nil)
	} else if cfg.TrustedProxies == nil {
		logger.Info("Trusted proxies disabled (TRUSTED_PROXIES not set)")
	}

	if len(cfg.AllowedOrigins) == 0 {
		logger.Warn("CORS_ALLOWED_ORIGIN not set; reflecting any request origin")
	}

	var redisClient *redis.Client
	if provider, ok := cache.(RedisClientProvider); ok {
		redisClient = provider.GetClient()
	}

	rs := &RouterService{
		engine:                 engine,
		logger:                 logger,
		config:                 cfg,
		redisClient:            redisClient,
		rateLimitOverrides:     make(map[string]ratelimit.RateLimiter),
		handlerToControllerMap: make(map[string]*RESTController),
	}

	rs.initRateLimiting()

	// Mounted before the limiter so scrapes are never throttled.
	rs.mountMetrics()

	// Correlation comes first so rejections from the limiter and route guard carry the header.
	engine.Use(
		rs.correlationIDMiddleware(),
		rs.loggerInjectionMiddleware(),
		rs.requestLoggingMiddleware(),
		rs.securityHeadersMiddleware(),
		rs.maxBodySizeMiddleware(),
		rs.corsMiddleware(),
		rs.rateLimitMiddleware(),
		rs.timeoutMiddleware(),
	)

	engine.NoRoute(rs.envelopeFallback(http.StatusNotFound, "Route not found"))
	engine.NoMethod(rs.envelopeFallback(http.StatusMethodNotAllowed, "Method not allowed"))

	rs.server = &http.Server{
		Addr:    ":" + DefaultPort,
		Handler: engine,

		// Handlers run on the request goroutine; these bound the connection instead.
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Router service initialized", "request_timeout", cfg.RequestTimeout, "max_body_bytes", cfg.MaxBodyBytes)
	return rs
}

func (routerService *RouterService) envelopeFallback(status int, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		routerService.logger.WithCorrelationID(c.Request.Context()).Warn(message, "method", c.Request.Method, "path", c.Request.URL.Path)
		c.JSON(status, ErrorResult(status, message, nil).ToJSON())
	}
}

func (routerService *RouterService) GetEngine() *gin.Engine {
	return routerService.engine
}

// MetricsRegisterer returns the registry served on /metrics, or nil when metrics are disabled.
func (routerService *RouterService) MetricsRegisterer() prometheus.Registerer {
	if routerService.metricsRegistry == nil {
		return nil
	}
	return routerService.metricsRegistry
}

// BaseLogger is the process logger without request correlation.
func (routerService *RouterService) BaseLogger() *log.Logger {
	return routerService.logger
}

func (routerService *RouterService) GetLogger(c *RequestContext) *log.Logger {
	return routerService.logger.WithCorrelationID(c.Request.Context())
}

func (routerService *RouterService) MountController(controller *RESTController) {
	controller.prepare(routerService, controller)

	routerService.logger.Info("Controller mounted",
		"name", controller.name,
		"path", controller.mountPoint,
		"handlers", controller.handlerCount,
	)
}

func (routerService *RouterService) RunHTTPServer() error {
	port := ListenPort()
	routerService.server.Addr = "0.0.0.0:" + port

	routerService.logger.Info("Waitlist API listening", "addr", routerService.server.Addr, "url", "http://localhost:"+port)

	if err := routerService.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		routerService.logger.Error("Failed to start HTTP server", "error", err)
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

func (routerService *RouterService) Shutdown(ctx context.Context) error {
	routerService.logger.Info("Shutting down HTTP server gracefully")
	return routerService.server.Shutdown(ctx)
}

func (routerService *RouterService) Cleanup() {
	if routerService.limiters != nil {
		if err := routerService.limiters.Close(); err != nil {
			routerService.logger.Error("Failed to close rate limiters", "error", err)
		}
	}
	routerService.logger.Info("Router service cleanup completed")
}
