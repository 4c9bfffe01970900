package monitoring

import (
	"context"
	"errors"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const defaultProbeTimeout = 2 * time.Second

type Cache interface {
	Ping(ctx context.Context) error
}

// TransportHealth reports whether outbound notifications are currently being attempted.
type TransportHealth interface {
	TransportHealthy() bool
}

// HealthStatus uses 1 for healthy and 0 for unhealthy or not configured.
type HealthStatus struct {
	Database      int `json:"database"`
	Cache         int `json:"cache"`
	Notifications int `json:"notifications"`
	Uptime        int `json:"uptime"` // seconds
}

// HealthChecker probes the process's dependencies. Any of them may be nil.
type HealthChecker struct {
	db            *gorm.DB
	cache         Cache
	notifications TransportHealth

	probeTimeout time.Duration
	startTime    time.Time
	now          func() time.Time
}

func NewHealthChecker(db *gorm.DB, cache Cache, notifications TransportHealth) *HealthChecker {
	return &HealthChecker{
		db:            db,
		cache:         cache,
		notifications: notifications,
		probeTimeout:  defaultProbeTimeout,
		startTime:     time.Now(),
		now:           time.Now,
	}
}

// Check runs the database and cache probes concurrently, each bounded by the probe timeout.
func (hc *HealthChecker) Check(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{Uptime: int(hc.now().Sub(hc.startTime).Seconds())}

	var g errgroup.Group
	g.Go(func() error {
		status.Database = hc.probe(ctx, logger, "database", hc.pingDatabase)
		return nil
	})
	g.Go(func() error {
		status.Cache = hc.probe(ctx, logger, "cache", hc.pingCache)
		return nil
	})
	_ = g.Wait()

	switch {
	case hc.notifications == nil:
		logger.Debug("Notifications not configured, transport check skipped")
	case hc.notifications.TransportHealthy():
		status.Notifications = 1
	default:
		logger.Warn("Notification transport circuit is open")
	}

	return status
}

func (hc *HealthChecker) probe(ctx context.Context, logger *log.Logger, name string, ping func(context.Context) error) int {
	ctx, cancel := context.WithTimeout(ctx, hc.probeTimeout)
	defer cancel()

	if err := ping(ctx); err != nil {
		if errors.Is(err, errNotConfigured) {
			logger.Debug("Dependency not configured, check skipped", "dependency", name)
		} else {
			logger.Error("Health check failed", "dependency", name, "error", err)
		}
		return 0
	}
	return 1
}

var errNotConfigured = errors.New("not configured")

func (hc *HealthChecker) pingDatabase(ctx context.Context) error {
	if hc.db == nil {
		return errNotConfigured
	}

	sqlDB, err := hc.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (hc *HealthChecker) pingCache(ctx context.Context) error {
	if hc.cache == nil {
		return errNotConfigured
	}
	return hc.cache.Ping(ctx)
}
