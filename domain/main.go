package domain

import (
	"github.com/akeren/waitlist-api/config"
	"github.com/akeren/waitlist-api/domain/home"
	"github.com/akeren/waitlist-api/domain/monitoring"
	"github.com/akeren/waitlist-api/domain/waitlist"
	"github.com/akeren/waitlist-api/internal/notify"
)

// SetupCoreDomain mounts every controller on the application's router.
func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	var (
		notifier      notify.Notifier
		notifications monitoring.TransportHealth
		entryCache    waitlist.EntryCache
		healthCache   monitoring.Cache
		cacheTTL      = waitlist.DefaultEntryCacheTTL
	)

	// Only assign non-nil values so the interfaces stay nil when a dependency is absent.
	if appConfig.Notifier != nil {
		notifier = appConfig.Notifier
		notifications = appConfig.Notifier
	}
	if appConfig.Cache != nil {
		entryCache = appConfig.Cache
		healthCache = appConfig.Cache
	}
	if appConfig.Config != nil {
		cacheTTL = appConfig.Config.WaitlistCacheTTL
	}

	rs := appConfig.RouterService

	rs.MountController(home.NewHomeController())
	rs.MountController(monitoring.NewMonitoringController(monitoring.NewHealthChecker(appConfig.DB, healthCache, notifications)))
	rs.MountController(waitlist.NewModule(appConfig.DB, appConfig.Logger, entryCache, cacheTTL, notifier).Controller())
}
