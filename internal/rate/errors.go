package rate

import "errors"

var (
	// ErrRateLimited is returned when a key has exhausted its attempt budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps limiter backend failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
