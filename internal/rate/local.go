package rate

import (
	"context"
	"sync"
	"time"

	xrate "golang.org/x/time/rate"
)

const localPruneThreshold = 4096

// LocalLimiter keeps per-key token buckets in memory.
type LocalLimiter struct {
	mu      sync.Mutex
	config  Config
	buckets map[string]*xrate.Limiter
	now     func() time.Time
}

// NewLocal creates a [LocalLimiter].
func NewLocal(cfg Config) *LocalLimiter {
	return &LocalLimiter{
		config:  cfg,
		buckets: make(map[string]*xrate.Limiter),
		now:     time.Now,
	}
}

// CheckLogin reports ErrRateLimited once the identifier or IP bucket is empty.
func (l *LocalLimiter) CheckLogin(_ context.Context, identifier, ip string) error {
	if l.exhausted(loginUserKey(identifier)) {
		return ErrRateLimited
	}
	if l.config.EnableIPThrottle && ip != "" && l.exhausted(loginIPKey(ip)) {
		return ErrRateLimited
	}
	return nil
}

// IncrementLogin takes one token from the identifier and IP buckets.
func (l *LocalLimiter) IncrementLogin(_ context.Context, identifier, ip string) error {
	limited := !l.take(loginUserKey(identifier), l.config.MaxLoginAttempts, l.config.LoginCooldownDuration)
	if l.config.EnableIPThrottle && ip != "" {
		if !l.take(loginIPKey(ip), l.config.MaxLoginAttempts, l.config.LoginCooldownDuration) {
			limited = true
		}
	}
	if limited {
		return ErrRateLimited
	}
	return nil
}

// ResetLogin forgets the buckets of a successful login.
func (l *LocalLimiter) ResetLogin(_ context.Context, identifier, ip string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.buckets, loginUserKey(identifier))
	if l.config.EnableIPThrottle && ip != "" {
		delete(l.buckets, loginIPKey(ip))
	}
	return nil
}

// CheckCode reports ErrRateLimited once the attempt bucket is empty.
func (l *LocalLimiter) CheckCode(_ context.Context, attemptID string) error {
	if !l.config.EnableCodeThrottle {
		return nil
	}
	if l.exhausted(codeKey(attemptID)) {
		return ErrRateLimited
	}
	return nil
}

// IncrementCode takes one token from the attempt bucket.
func (l *LocalLimiter) IncrementCode(_ context.Context, attemptID string) error {
	if !l.config.EnableCodeThrottle {
		return nil
	}
	if !l.take(codeKey(attemptID), l.config.MaxCodeAttempts, l.config.CodeCooldownDuration) {
		return ErrRateLimited
	}
	return nil
}

func (l *LocalLimiter) exhausted(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		return false
	}
	return b.TokensAt(l.now()) < 1
}

func (l *LocalLimiter) take(key string, maxAttempts int, cooldown time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= localPruneThreshold {
			l.pruneLocked(now)
		}
		b = xrate.NewLimiter(refill(maxAttempts, cooldown), maxAttempts)
		l.buckets[key] = b
	}
	return b.AllowN(now, 1)
}

// pruneLocked drops buckets that have refilled completely, since they carry
// no state a fresh bucket would not.
func (l *LocalLimiter) pruneLocked(now time.Time) {
	for key, b := range l.buckets {
		if b.TokensAt(now) >= float64(b.Burst()) {
			delete(l.buckets, key)
		}
	}
}

func refill(maxAttempts int, cooldown time.Duration) xrate.Limit {
	if maxAttempts <= 0 || cooldown <= 0 {
		return xrate.Inf
	}
	return xrate.Every(cooldown / time.Duration(maxAttempts))
}
