package config

import (
	"context"
	"time"

	"github.com/akeren/waitlist-api/config/router"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/internal/models"
	"github.com/akeren/waitlist-api/internal/notify"
	"github.com/akeren/waitlist-api/pkg/utils"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Config          *AppConfig
	Notifier        *notify.Dispatcher
	TracingShutdown func(context.Context) error
}

const (
	defaultRateLimitRequests = 100
	defaultRateLimitWindow   = time.Minute
	defaultRequestTimeout    = 30 * time.Second
	defaultWaitlistCacheTTL  = 5 * time.Minute
	defaultShutdownTimeout   = 10 * time.Second
	tracingShutdownTimeout   = 5 * time.Second
)

type AppConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
	WaitlistCacheTTL  time.Duration
	ShutdownTimeout   time.Duration
}

// NewAppConfig applies RATE_LIMIT_*, REQUEST_TIMEOUT, WAITLIST_CACHE_TTL and SHUTDOWN_TIMEOUT
// over the defaults. Unparseable or non-positive values keep the default.
func NewAppConfig() *AppConfig {
	return &AppConfig{
		RateLimitRequests: utils.GetEnvPositiveInt("RATE_LIMIT_REQUESTS", defaultRateLimitRequests),
		RateLimitWindow:   utils.GetEnvPositiveDuration("RATE_LIMIT_WINDOW", defaultRateLimitWindow),
		RequestTimeout:    utils.GetEnvPositiveDuration("REQUEST_TIMEOUT", defaultRequestTimeout),
		WaitlistCacheTTL:  utils.GetEnvPositiveDuration("WAITLIST_CACHE_TTL", defaultWaitlistCacheTTL),
		ShutdownTimeout:   utils.GetEnvPositiveDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}
}

func (ac *ApplicationConfig) Cleanup() {
	// Drain notifications first; they still emit traces and metrics.
	if ac.Notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), ac.shutdownTimeout())
		if err := ac.Notifier.Wait(ctx); err != nil {
			ac.Logger.Warn("Gave up waiting for in-flight notifications", "error", err)
		} else {
			ac.Logger.Info("In-flight notifications drained")
		}
		cancel()
	}

	shutdownTracing(ac.Logger, ac.TracingShutdown)

	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

func (ac *ApplicationConfig) shutdownTimeout() time.Duration {
	if ac.Config != nil && ac.Config.ShutdownTimeout > 0 {
		return ac.Config.ShutdownTimeout
	}
	return defaultShutdownTimeout
}

// shutdownTracing flushes and stops the tracer provider. A nil shutdown is a no-op.
func shutdownTracing(logger *log.Logger, shutdown func(context.Context) error) {
	if shutdown == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), tracingShutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown tracer provider", "error", err)
	}
}

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	// Resolved before any connection is opened: the process must not start without a working
	// notification configuration.
	notifySettings, err := LoadNotificationSettings()
	if err != nil {
		logger.Error("Invalid notification configuration", "error", err)
		return nil, err
	}

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}

	db, err := NewDatabase(logger, DefaultDBConfig())
	if err != nil {
		shutdownTracing(logger, tracingShutdown)
		return nil, err
	}

	if autoMigrate {
		if err := AutoMigrate(logger, db, models.ModelRegistry...); err != nil {
			CloseDatabase(db, logger)
			shutdownTracing(logger, tracingShutdown)
			return nil, err
		}
	}

	appConfig := NewAppConfig()
	cache := NewCacheConfig().NewCacheOrNil(logger)

	routerService := router.CreateRouterService(logger, cache, &router.RouterConfig{
		RateLimitRequests: appConfig.RateLimitRequests,
		RateLimitWindow:   appConfig.RateLimitWindow,
		RequestTimeout:    appConfig.RequestTimeout,
	})

	notifier, err := NewNotificationDispatcher(logger, notifySettings, routerService.MetricsRegisterer())
	if err != nil {
		routerService.Cleanup()
		CloseCache(cache, logger)
		CloseDatabase(db, logger)
		shutdownTracing(logger, tracingShutdown)
		return nil, err
	}

	logger.Info("Application configuration loaded successfully")

	return &ApplicationConfig{
		DB:              db,
		RouterService:   routerService,
		Logger:          logger,
		Cache:           cache,
		Config:          appConfig,
		Notifier:        notifier,
		TracingShutdown: tracingShutdown,
	}, nil
}
