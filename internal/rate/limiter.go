package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	EnableCodeThrottle    bool
	MaxCodeAttempts       int
	CodeCooldownDuration  time.Duration
}

// Limiter is the attempt-budget contract used by the engine.
type Limiter interface {
	CheckLogin(ctx context.Context, identifier, ip string) error
	IncrementLogin(ctx context.Context, identifier, ip string) error
	ResetLogin(ctx context.Context, identifier, ip string) error
	CheckCode(ctx context.Context, attemptID string) error
	IncrementCode(ctx context.Context, attemptID string) error
}

// RedisLimiter enforces budgets with Redis counters shared by all instances.
type RedisLimiter struct {
	redis  redis.UniversalClient
	config Config
}

// NewRedis creates a [RedisLimiter] backed by the given client.
func NewRedis(redisClient redis.UniversalClient, cfg Config) *RedisLimiter {
	return &RedisLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckLogin checks whether the identifier+IP pair is within the login
// attempt budget.
func (l *RedisLimiter) CheckLogin(ctx context.Context, identifier, ip string) error {
	if err := l.checkCounter(ctx, loginUserKey(identifier), l.config.MaxLoginAttempts); err != nil {
		return err
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.checkCounter(ctx, loginIPKey(ip), l.config.MaxLoginAttempts); err != nil {
			return err
		}
	}

	return nil
}

// IncrementLogin records a failed login for the identifier+IP pair.
func (l *RedisLimiter) IncrementLogin(ctx context.Context, identifier, ip string) error {
	count, err := l.incrementWithTTL(ctx, loginUserKey(identifier), l.config.LoginCooldownDuration)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxLoginAttempts) {
		return ErrRateLimited
	}

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, loginIPKey(ip), l.config.LoginCooldownDuration)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxLoginAttempts) {
			return ErrRateLimited
		}
	}

	return nil
}

// ResetLogin clears the failed-login counters after a successful login.
func (l *RedisLimiter) ResetLogin(ctx context.Context, identifier, ip string) error {
	keys := []string{loginUserKey(identifier)}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, loginIPKey(ip))
	}

	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// CheckCode checks the confirmation budget of one login attempt.
func (l *RedisLimiter) CheckCode(ctx context.Context, attemptID string) error {
	if !l.config.EnableCodeThrottle {
		return nil
	}
	return l.checkCounter(ctx, codeKey(attemptID), l.config.MaxCodeAttempts)
}

// IncrementCode records a wrong code for one login attempt.
func (l *RedisLimiter) IncrementCode(ctx context.Context, attemptID string) error {
	if !l.config.EnableCodeThrottle {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, codeKey(attemptID), l.config.CodeCooldownDuration)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxCodeAttempts) {
		return ErrRateLimited
	}
	return nil
}

func (l *RedisLimiter) checkCounter(ctx context.Context, key string, maxAttempts int) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(maxAttempts) {
		return ErrRateLimited
	}

	return nil
}

// incrementWithTTL bumps key and arms its window in one transaction. EXPIRE NX
// leaves a running window alone and re-arms a counter that lost its TTL.
func (l *RedisLimiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return incr.Val(), nil
}

func loginUserKey(identifier string) string { return "al:" + identifier }
func loginIPKey(ip string) string           { return "ali:" + ip }
func codeKey(attemptID string) string       { return "ac:" + attemptID }
