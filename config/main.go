package config

import (
	"context"
	"time"

	"github.com/akeren/go-waitlist/config/router"
	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/pkg/brevo"
	"github.com/akeren/go-waitlist/pkg/constants"
	"github.com/akeren/go-waitlist/pkg/utils"
	"github.com/akeren/go-waitlist/pkg/workerpool"
	"gorm.io/gorm"
)

// DefaultStaticDir is relative to the working directory of the server binary.
const DefaultStaticDir = "../dist"

// ApplicationConfig is the process-wide context handed to every domain. It is
// built once at startup and owns every long-lived resource.
type ApplicationConfig struct {
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Config          *AppConfig
	TracingShutdown func(context.Context) error

	Notifier         *NotifierConfig
	Brevo            *brevo.Client
	NotificationPool *workerpool.Pool
}

type AppConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
	StaticDir         string
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		RateLimitRequests: utils.GetEnvIntOrDefault("RATE_LIMIT_REQUESTS", constants.DefaultRateLimitRequests),
		RateLimitWindow:   utils.GetEnvDurationOrDefault("RATE_LIMIT_WINDOW", constants.DefaultRateLimitWindow()),
		RequestTimeout:    utils.GetEnvDurationOrDefault("REQUEST_TIMEOUT", router.DefaultTimeoutDuration),
		StaticDir:         utils.GetEnvTrimmedOrDefault("STATIC_DIR", DefaultStaticDir),
	}
}

// Cleanup drains queued notifications before closing the database and cache.
func (ac *ApplicationConfig) Cleanup() {
	if ac.NotificationPool != nil {
		timeout := DefaultNotifyShutdownTimeout
		if ac.Notifier != nil && ac.Notifier.ShutdownTimeout > 0 {
			timeout = ac.Notifier.ShutdownTimeout
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := ac.NotificationPool.Shutdown(ctx); err != nil {
			ac.Logger.Error("Notification worker pool did not drain", "error", err)
		} else {
			ac.Logger.Info("Notification worker pool drained")
		}
		cancel()
	}

	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

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

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}

	db, err := NewDatabase(logger, NewDBConfigFromEnv())
	if err != nil {
		return nil, err
	}

	if autoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultMigrationsTimeout)
		err := ApplyMigrations(ctx, logger, db)
		cancel()
		if err != nil {
			CloseDatabase(db, logger)
			return nil, err
		}
	}

	appConfig := NewAppConfig()
	cache := NewCacheConfig().NewCacheOrNil(logger)

	routerService := router.CreateRouterService(logger, cache, &router.RouterConfig{
		RateLimitRequests: appConfig.RateLimitRequests,
		RateLimitWindow:   appConfig.RateLimitWindow,
		RequestTimeout:    appConfig.RequestTimeout,
		StaticDir:         appConfig.StaticDir,
	})

	notifierConfig := NewNotifierConfigFromEnv()
	brevoClient := notifierConfig.NewBrevoClientOrNil(logger)

	var pool *workerpool.Pool
	if brevoClient != nil {
		pool = notifierConfig.NewWorkerPool(logger)
	}

	logger.Info("Application configuration loaded successfully")

	return &ApplicationConfig{
		DB:               db,
		RouterService:    routerService,
		Logger:           logger,
		Cache:            cache,
		Config:           appConfig,
		TracingShutdown:  tracingShutdown,
		Notifier:         notifierConfig,
		Brevo:            brevoClient,
		NotificationPool: pool,
	}, nil
}
