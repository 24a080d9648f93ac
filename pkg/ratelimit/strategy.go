package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type Logger interface {
	Error(msg string, args ...interface{})
}

// Decision is the outcome of counting one request against a key.
type Decision struct {
	Limited bool
	// Remaining is how many more requests the key may make in the current window.
	Remaining int
}

// RateLimiter limits requests per key, where the key identifies a client.
type RateLimiter interface {
	GetLimitDetails() (int, time.Duration)
	Check(key string) (Decision, error)
	IsLimited(key string) (bool, error)
	Close() error
}

// InMemoryRateLimiter is a per-key token bucket for single-instance deployments.
type InMemoryRateLimiter struct {
	requests int
	window   time.Duration

	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	ops      uint64
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// sweepEvery controls how often idle keys are dropped from the in-memory map.
const sweepEvery = 1024

func NewInMemoryRateLimiter(requests int, window time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		requests: requests,
		window:   window,
		limiters: make(map[string]*keyedLimiter),
	}
}

func (r *InMemoryRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *InMemoryRateLimiter) IsLimited(key string) (bool, error) {
	d, err := r.Check(key)
	return d.Limited, err
}

func (r *InMemoryRateLimiter) Check(key string) (Decision, error) {
	if key == "" {
		key = "__empty__"
	}

	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.limiters[key]
	if !ok {
		k = &keyedLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(r.requests)/r.window.Seconds()), r.requests),
		}
		r.limiters[key] = k
	}
	k.lastSeen = now

	r.ops++
	if r.ops%sweepEvery == 0 {
		r.sweep(now.Add(-2 * r.window))
	}

	allowed := k.limiter.AllowN(now, 1)
	remaining := int(k.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	return Decision{Limited: !allowed, Remaining: remaining}, nil
}

func (r *InMemoryRateLimiter) sweep(cutoff time.Time) {
	for key, k := range r.limiters {
		if k.lastSeen.Before(cutoff) {
			delete(r.limiters, key)
		}
	}
}

func (r *InMemoryRateLimiter) Close() error {
	return nil
}

const DefaultKeyPrefix = "ratelimit:"

// slidingWindow keeps one sorted-set member per accepted request, scored by
// its timestamp in milliseconds. Rejected requests are not recorded.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

local count = redis.call('ZCARD', key)
if count >= limit then
	return {1, 0}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window * 2)

return {0, limit - count - 1}
`)

// RedisRateLimiter is a sliding-window limiter shared by every instance that
// points at the same Redis.
type RedisRateLimiter struct {
	client    *redis.Client
	requests  int
	window    time.Duration
	keyPrefix string
	logger    Logger
	timeout   time.Duration
}

// NewRedisRateLimiterWithPrefix keeps limiters sharing one Redis apart, so a
// route-specific budget does not consume the default one.
func NewRedisRateLimiterWithPrefix(client *redis.Client, requests int, window time.Duration, keyPrefix string, logger Logger) *RedisRateLimiter {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisRateLimiter{
		client:    client,
		requests:  requests,
		window:    window,
		keyPrefix: keyPrefix,
		logger:    logger,
		timeout:   time.Second,
	}
}

func (r *RedisRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

// IsLimited returns an error when Redis cannot be reached; the caller decides
// whether to fail open.
func (r *RedisRateLimiter) IsLimited(key string) (bool, error) {
	d, err := r.Check(key)
	return d.Limited, err
}

func (r *RedisRateLimiter) Check(key string) (Decision, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	fullKey := r.keyPrefix + key
	now := time.Now().UnixMilli()

	result, err := slidingWindow.Run(ctx, r.client, []string{fullKey},
		now, r.window.Milliseconds(), r.requests, uuid.NewString(),
	).Int64Slice()
	if err == nil && len(result) != 2 {
		err = fmt.Errorf("unexpected script result %v", result)
	}
	if err != nil {
		if r.logger != nil {
			r.logger.Error("Redis rate limit script execution failed", "key", fullKey, "error", err)
		}
		return Decision{}, fmt.Errorf("rate limiter Redis error: %w", err)
	}

	return Decision{Limited: result[0] == 1, Remaining: int(result[1])}, nil
}

// Close is a no-op: the Redis client belongs to the cache and is closed there.
func (r *RedisRateLimiter) Close() error {
	return nil
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// Redis selects the distributed limiter; nil means in-memory.
	Redis  *redis.Client
	Logger Logger
	// KeyPrefix namespaces Redis keys; defaults to DefaultKeyPrefix.
	KeyPrefix string
}

func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	if config.Redis != nil {
		return NewRedisRateLimiterWithPrefix(config.Redis, config.Requests, config.Window, config.KeyPrefix, config.Logger)
	}
	return NewInMemoryRateLimiter(config.Requests, config.Window)
}
