package monitoring

import (
	"github.com/akeren/go-waitlist/config/router"
	"github.com/akeren/go-waitlist/internal/log"
	"gorm.io/gorm"
)

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

type DefaultMonitoringControllerFactory struct {
	db      *gorm.DB
	logger  *log.Logger
	cache   Cache
	queue   NotificationQueue
	breaker BreakerReporter
}

func NewMonitoringControllerFactory(db *gorm.DB, logger *log.Logger, cache Cache, queue NotificationQueue, breaker BreakerReporter) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{
		db:      db,
		logger:  logger,
		cache:   cache,
		queue:   queue,
		breaker: breaker,
	}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.db, f.logger, f.cache, f.queue, f.breaker)
}
