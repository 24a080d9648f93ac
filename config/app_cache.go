package config

import (
	"context"
	"errors"
	"time"

	"github.com/akeren/go-waitlist/internal/log"
	pkgredis "github.com/akeren/go-waitlist/pkg/redis"
	"github.com/akeren/go-waitlist/pkg/utils"
)

// Cache is optional. When Redis is configured it backs the distributed join
// rate limiter and is reported by /health; nothing on the sign-up path reads it.
type Cache interface {
	Ping(ctx context.Context) error
	Close() error
}

var ErrCacheNotConfigured = errors.New("cache host is not configured")

type CacheConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

func NewCacheConfig() *CacheConfig {
	return &CacheConfig{
		Host:        sanitizeEnv(utils.GetEnvTrimmed("REDIS_HOST")),
		Port:        utils.GetEnvTrimmedOrDefault("REDIS_PORT", "6379"),
		Password:    sanitizeEnv(utils.GetEnvTrimmed("REDIS_PASSWORD")),
		DB:          utils.GetEnvIntOrDefault("REDIS_DB", 0),
		DialTimeout: utils.GetEnvDurationOrDefault("REDIS_DIAL_TIMEOUT", 5*time.Second),
	}
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

func (cc *CacheConfig) NewCache(logger *log.Logger) (Cache, error) {
	if !cc.IsConfigured() {
		return nil, ErrCacheNotConfigured
	}

	cache, err := pkgredis.NewRedisCache(&pkgredis.Config{
		Host:        cc.Host,
		Port:        cc.Port,
		Password:    cc.Password,
		DB:          cc.DB,
		DialTimeout: cc.DialTimeout,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Cache (Redis) connected successfully", "host", cc.Host, "port", cc.Port, "db", cc.DB)
	return cache, nil
}

// NewCacheOrNil never fails startup: an unreachable Redis leaves the service
// on in-memory rate limiting.
func (cc *CacheConfig) NewCacheOrNil(logger *log.Logger) Cache {
	if !cc.IsConfigured() {
		logger.Info("Cache (Redis) is not configured; rate limiting stays in-memory")
		return nil
	}

	cache, err := cc.NewCache(logger)
	if err != nil {
		logger.Error("Failed to connect to Cache (Redis); rate limiting stays in-memory", "error", err)
		return nil
	}

	return cache
}

func CloseCache(cache Cache, logger *log.Logger) error {
	if cache == nil {
		return nil
	}

	if err := cache.Close(); err != nil {
		logger.Error("Failed to close cache", "error", err)
		return err
	}

	logger.Info("Cache connection closed")
	return nil
}
