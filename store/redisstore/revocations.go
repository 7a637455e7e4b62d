package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/authcore/store"
	"github.com/redis/go-redis/v9"
)

// DefaultRevocationPrefix namespaces revoked-token keys.
const DefaultRevocationPrefix = "banned_token"

// RevocationRegistry records revoked tokens as "<prefix>:<sha256(token)>".
type RevocationRegistry struct {
	redis  redis.UniversalClient
	prefix string
	// retainFor bounds how long an entry is kept. Zero keeps entries forever;
	// a positive value should be at least the token TTL.
	retainFor time.Duration
}

// NewRevocationRegistry returns a registry. retainFor of zero disables expiry.
func NewRevocationRegistry(redisClient redis.UniversalClient, prefix string, retainFor time.Duration) *RevocationRegistry {
	if prefix == "" {
		prefix = DefaultRevocationPrefix
	}
	if retainFor < 0 {
		retainFor = 0
	}
	return &RevocationRegistry{
		redis:     redisClient,
		prefix:    prefix,
		retainFor: retainFor,
	}
}

func (r *RevocationRegistry) key(token string) string {
	return r.prefix + ":" + store.TokenKey(token)
}

// Revoke is idempotent; revoking again refreshes the retention window.
func (r *RevocationRegistry) Revoke(ctx context.Context, token string) error {
	if err := r.redis.Set(ctx, r.key(token), "", r.retainFor).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrBackend, err)
	}
	return nil
}

func (r *RevocationRegistry) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.redis.Exists(ctx, r.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrBackend, err)
	}
	return n > 0, nil
}
