package constants

import "time"

const (
	// DefaultRateLimitRequests is the per-client budget for every route
	// without its own limiter, per DefaultRateLimitWindow.
	DefaultRateLimitRequests      = 100
	DefaultRateLimitWindowMinutes = 1

	// JoinRateLimitRequests is the per-client budget for POST /api/join-waitlist.
	JoinRateLimitRequests = 30
	// JoinRateLimitKeyPrefix keeps the join budget apart from the default one
	// when both live in Redis.
	JoinRateLimitKeyPrefix = "ratelimit:join:"
)

func DefaultRateLimitWindow() time.Duration {
	return time.Duration(DefaultRateLimitWindowMinutes) * time.Minute
}
