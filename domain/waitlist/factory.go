package waitlist

import (
	"github.com/akeren/go-waitlist/config/router"
	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/pkg/factory"
	"github.com/akeren/go-waitlist/pkg/ratelimit"
	"gorm.io/gorm"
)

type WaitlistServiceFactory interface {
	CreateController() *router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	db             *gorm.DB
	logger         *log.Logger
	notifier       Notifier
	limiterFactory factory.RateLimiterFactory
}

// NewWaitlistServiceFactory wires the waitlist domain. notifier and
// limiterFactory may be nil.
func NewWaitlistServiceFactory(
	db *gorm.DB,
	logger *log.Logger,
	notifier Notifier,
	limiterFactory factory.RateLimiterFactory,
) WaitlistServiceFactory {
	return &DefaultWaitlistServiceFactory{
		db:             db,
		logger:         logger,
		notifier:       notifier,
		limiterFactory: limiterFactory,
	}
}

func (f *DefaultWaitlistServiceFactory) CreateController() *router.RESTController {
	var limiter ratelimit.RateLimiter
	if f.limiterFactory != nil {
		limiter = f.limiterFactory.CreateRateLimiter()
	}
	return NewWaitlistController(f.db, f.logger, f.notifier, limiter)
}
