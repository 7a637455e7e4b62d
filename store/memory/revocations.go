package memory

import (
	"context"
	"sync"

	"github.com/MrEthical07/authcore/store"
)

// RevocationRegistry is a set of revoked token digests. Entries are never
// removed.
type RevocationRegistry struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

// NewRevocationRegistry returns an empty registry.
func NewRevocationRegistry() *RevocationRegistry {
	return &RevocationRegistry{revoked: make(map[string]struct{})}
}

// Revoke records the digest of token. Repeated calls are no-ops.
func (r *RevocationRegistry) Revoke(_ context.Context, token string) error {
	key := store.TokenKey(token)

	r.mu.Lock()
	r.revoked[key] = struct{}{}
	r.mu.Unlock()
	return nil
}

// IsRevoked reports whether token was revoked.
func (r *RevocationRegistry) IsRevoked(_ context.Context, token string) (bool, error) {
	key := store.TokenKey(token)

	r.mu.RLock()
	_, ok := r.revoked[key]
	r.mu.RUnlock()
	return ok, nil
}
