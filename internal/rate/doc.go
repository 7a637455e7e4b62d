// Package rate throttles login and second-factor attempts.
//
// # Window semantics
//
// [RedisLimiter] uses fixed-window counters: INCR + conditional EXPIRE on
// the first hit. Key prefixes:
//   - al:  login per identity
//   - ali: login per client IP
//   - ac:  code confirmation per login attempt
//
// [LocalLimiter] keeps one token bucket per key in process memory
// (golang.org/x/time/rate) for single-instance deployments without Redis.
// A bucket holds MaxAttempts tokens and refills fully over the cooldown.
//
// Only failures consume budget. Successful logins reset the identity and IP
// counters.
package rate
