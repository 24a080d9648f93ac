package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/akeren/go-waitlist/config/router"
	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/pkg/circuitbreaker"
	"github.com/akeren/go-waitlist/pkg/ratelimit"
	"gorm.io/gorm"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type NotificationQueue interface {
	Running() bool
	QueueDepth() int
	InFlight() int64
}

type BreakerReporter interface {
	BreakerState() circuitbreaker.CircuitState
}

type HealthStatus struct {
	Database          int    `json:"database"`           // 1 = healthy, 0 = unhealthy
	Cache             int    `json:"cache"`              // 1 = healthy, 0 = unhealthy/not configured
	NotificationQueue int    `json:"notification_queue"` // 1 = accepting tasks, 0 = disabled/stopped
	QueueDepth        int    `json:"queue_depth"`
	InFlight          int64  `json:"in_flight"` // tasks currently running on a worker
	BrevoCircuit      string `json:"brevo_circuit"`
	Uptime            int    `json:"uptime"` // uptime in seconds
}

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	queue     NotificationQueue
	breaker   BreakerReporter
	startTime time.Time
}

// NewMonitoringController mounts GET /health. cache, queue and breaker may be nil.
func NewMonitoringController(db *gorm.DB, logger *log.Logger, cache Cache, queue NotificationQueue, breaker BreakerReporter) *router.RESTController {
	ctrl := &MonitoringController{
		db:        db,
		logger:    logger,
		cache:     cache,
		queue:     queue,
		breaker:   breaker,
		startTime: time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			monitoringRateLimiter := createMonitoringRateLimiter()

			routerService.AddGetHandler(controller, monitoringRateLimiter, "health", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.healthCheck(routerService, c)
			})
		},
	)
}

func createMonitoringRateLimiter() ratelimit.RateLimiter {
	const monitoringRequestsPerMinute = 10 // More restrictive than default 100

	return ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: monitoringRequestsPerMinute,
		Window:   time.Minute,
	})
}

func (ctrl *MonitoringController) healthCheck(
	routerService *router.RouterService,
	c *router.RequestContext,
) *router.ServiceResult {
	logger := routerService.GetLogger(c)
	logger.Debug("Health check endpoint called")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	healthStatus := ctrl.performHealthChecks(ctx, logger)

	// Sign-ups need the database; everything else degrades gracefully.
	if healthStatus.Database == 0 {
		return router.ErrorResult(http.StatusServiceUnavailable, "go-waitlist is unhealthy", healthStatus)
	}

	return router.OKResult(healthStatus, "go-waitlist health check completed")
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Uptime:       int(time.Since(ctrl.startTime).Seconds()),
		BrevoCircuit: "disabled",
	}

	checkDatabaseConnectivity(ctx, ctrl, &status, logger)
	checkCacheConnectivity(ctx, ctrl, &status, logger)

	if ctrl.queue != nil && ctrl.queue.Running() {
		status.NotificationQueue = 1
		status.QueueDepth = ctrl.queue.QueueDepth()
		status.InFlight = ctrl.queue.InFlight()
	}

	if ctrl.breaker != nil {
		status.BrevoCircuit = ctrl.breaker.BreakerState().String()
	}

	return status
}

func checkCacheConnectivity(ctx context.Context, ctrl *MonitoringController, status *HealthStatus, logger *log.Logger) {
	if ctrl.cache == nil {
		status.Cache = 0 // Cache not configured
		return
	}

	if ctrl.cache.Ping(ctx) == nil {
		status.Cache = 1
		return
	}

	status.Cache = 0
	logger.Error("Cache health check failed")
}

func checkDatabaseConnectivity(ctx context.Context, ctrl *MonitoringController, status *HealthStatus, logger *log.Logger) {
	if ctrl.checkDatabase(ctx) {
		status.Database = 1
		return
	}

	status.Database = 0
	logger.Error("Database health check failed")
}

func (ctrl *MonitoringController) checkDatabase(ctx context.Context) bool {
	if ctrl.db == nil {
		return false
	}

	sqlDB, err := ctrl.db.DB()
	if err != nil {
		return false
	}

	return sqlDB.PingContext(ctx) == nil
}
