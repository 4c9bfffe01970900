package monitoring

import (
	"time"

	"github.com/akeren/waitlist-api/config/router"
)

const monitoringRequestsPerMinute = 10

// NewMonitoringController mounts GET /health behind its own, stricter limiter.
func NewMonitoringController(checker *HealthChecker) *router.RESTController {
	return router.NewRESTController(
		"MonitoringController",
		"/health",
		func(rs *router.RouterService, controller *router.RESTController) {
			controller.RateLimitWith(rs, rs.NewRateLimiter("health", monitoringRequestsPerMinute, time.Minute))

			rs.AddGetHandler(controller, nil, "", func(c *router.RequestContext) *router.ServiceResult {
				logger := rs.GetLogger(c)
				status := checker.Check(c.Request.Context(), logger)
				logger.Info("Health check completed",
					"database", status.Database,
					"cache", status.Cache,
					"notifications", status.Notifications,
				)
				return router.OKResult(status, "waitlist-api health check completed")
			})
		},
	)
}
