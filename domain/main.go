package domain

import (
	"context"
	"time"

	"github.com/akeren/go-waitlist/config"
	"github.com/akeren/go-waitlist/domain/monitoring"
	"github.com/akeren/go-waitlist/domain/waitlist"
	"github.com/akeren/go-waitlist/pkg/constants"
	"github.com/akeren/go-waitlist/pkg/factory"
)

const schemaSetupTimeout = 30 * time.Second

// SetupCoreDomain ensures the waitlist schema and mounts every controller.
func SetupCoreDomain(appConfig *config.ApplicationConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), schemaSetupTimeout)
	defer cancel()

	if err := waitlist.NewWaitlistRepository(appConfig.DB).EnsureSchema(ctx); err != nil {
		appConfig.Logger.Error("Failed to ensure waitlist schema", "error", err)
		return err
	}

	var cache factory.Cache
	if appConfig.Cache != nil {
		cache = appConfig.Cache
	}

	factories := factory.NewFactoryContainer(&factory.RateLimitConfig{
		Requests:  constants.JoinRateLimitRequests,
		Window:    constants.DefaultRateLimitWindow(),
		Logger:    appConfig.Logger,
		KeyPrefix: constants.JoinRateLimitKeyPrefix,
	}, cache)
	appConfig.Logger.Info("Join rate limiter configured",
		"requests", constants.JoinRateLimitRequests,
		"window", constants.DefaultRateLimitWindow().String(),
		"distributed", factories.JoinRateLimiterFactory.IsDistributed(),
	)

	dispatcher := newNotificationDispatcher(appConfig)

	var queue monitoring.NotificationQueue
	if appConfig.NotificationPool != nil {
		queue = appConfig.NotificationPool
	}
	var breaker monitoring.BreakerReporter
	if appConfig.Brevo != nil {
		breaker = appConfig.Brevo
	}
	var monitoringCache monitoring.Cache
	if appConfig.Cache != nil {
		monitoringCache = appConfig.Cache
	}

	monitoringFactory := monitoring.NewMonitoringControllerFactory(appConfig.DB, appConfig.Logger, monitoringCache, queue, breaker)
	waitlistFactory := waitlist.NewWaitlistServiceFactory(appConfig.DB, appConfig.Logger, dispatcher, factories.JoinRateLimiterFactory)

	appConfig.RouterService.MountController(monitoringFactory.CreateController())
	appConfig.RouterService.MountController(waitlistFactory.CreateController())

	return nil
}

func newNotificationDispatcher(appConfig *config.ApplicationConfig) *waitlist.NotificationDispatcher {
	var api waitlist.BrevoAPI
	if appConfig.Brevo != nil {
		api = appConfig.Brevo
	}
	var submitter waitlist.TaskSubmitter
	if appConfig.NotificationPool != nil {
		submitter = appConfig.NotificationPool
	}

	settings := waitlist.NotificationSettings{}
	if nc := appConfig.Notifier; nc != nil {
		settings = waitlist.NotificationSettings{
			SenderName:  nc.SenderName,
			SenderEmail: nc.SenderEmail,
			TemplateID:  nc.TemplateID,
			ListID:      nc.ListID,
			CallTimeout: nc.CallTimeout,
		}
	}

	return waitlist.NewNotificationDispatcher(api, submitter, settings, appConfig.Logger, appConfig.RouterService.MetricsRegisterer())
}
