package factory

import (
	"context"
	"time"

	"github.com/akeren/go-waitlist/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   ratelimit.Logger
	// KeyPrefix separates this budget from others in a shared Redis.
	KeyPrefix string
}

type RateLimiterFactory interface {
	CreateRateLimiter() ratelimit.RateLimiter
	// IsDistributed reports whether limiters share state through Redis.
	IsDistributed() bool
}

type DefaultRateLimiterFactory struct {
	config *ratelimit.RateLimitConfig
}

// NewDefaultRateLimiterFactory builds Redis-backed limiters when cache exposes
// a Redis client and in-memory ones otherwise.
func NewDefaultRateLimiterFactory(rateLimitConfig *RateLimitConfig, cache Cache) *DefaultRateLimiterFactory {
	var redisClient *redis.Client
	if cache != nil {
		if provider, ok := cache.(RedisClientProvider); ok {
			redisClient = provider.GetClient()
		}
	}

	return &DefaultRateLimiterFactory{
		config: &ratelimit.RateLimitConfig{
			Requests:  rateLimitConfig.Requests,
			Window:    rateLimitConfig.Window,
			Redis:     redisClient,
			Logger:    rateLimitConfig.Logger,
			KeyPrefix: rateLimitConfig.KeyPrefix,
		},
	}
}

func (f *DefaultRateLimiterFactory) CreateRateLimiter() ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(f.config)
}

func (f *DefaultRateLimiterFactory) IsDistributed() bool {
	return f.config.Redis != nil
}

type FactoryContainer struct {
	JoinRateLimiterFactory RateLimiterFactory
}

func NewFactoryContainer(joinRateLimit *RateLimitConfig, cache Cache) *FactoryContainer {
	return &FactoryContainer{
		JoinRateLimiterFactory: NewDefaultRateLimiterFactory(joinRateLimit, cache),
	}
}
