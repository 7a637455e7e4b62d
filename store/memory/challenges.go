package memory

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/MrEthical07/authcore/identity"
	"github.com/MrEthical07/authcore/store"
)

type challenge struct {
	email     identity.Email
	digest    [sha256.Size]byte
	expiresAt time.Time
}

// ChallengeStore keeps pending second-factor attempts in memory.
type ChallengeStore struct {
	mu      sync.RWMutex
	pending map[string]challenge
	ttl     time.Duration
	now     func() time.Time
}

// ChallengeOption customizes a ChallengeStore.
type ChallengeOption func(*ChallengeStore)

// WithTTL overrides store.ChallengeTTL.
func WithTTL(ttl time.Duration) ChallengeOption {
	return func(s *ChallengeStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides time.Now for expiry decisions.
func WithClock(now func() time.Time) ChallengeOption {
	return func(s *ChallengeStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewChallengeStore returns an empty store.
func NewChallengeStore(opts ...ChallengeOption) *ChallengeStore {
	s := &ChallengeStore{
		pending: make(map[string]challenge),
		ttl:     store.ChallengeTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue records a pending attempt. An expired entry with the same id is
// replaced; a live one yields store.ErrAlreadyExists.
func (s *ChallengeStore) Issue(_ context.Context, email identity.Email, id identity.AttemptID, code identity.Code) error {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)
	if existing, ok := s.pending[id.String()]; ok && now.Before(existing.expiresAt) {
		return store.ErrAlreadyExists
	}
	s.pending[id.String()] = challenge{
		email:     email,
		digest:    store.CodeDigest(code),
		expiresAt: now.Add(s.ttl),
	}
	return nil
}

// Confirm returns the identity bound to id when code matches. The attempt
// stays pending either way.
func (s *ChallengeStore) Confirm(_ context.Context, id identity.AttemptID, code identity.Code) (identity.Email, error) {
	now := s.now()

	s.mu.RLock()
	c, ok := s.pending[id.String()]
	s.mu.RUnlock()

	if !ok || !now.Before(c.expiresAt) {
		return identity.Email{}, store.ErrNotFound
	}

	digest := store.CodeDigest(code)
	if subtle.ConstantTimeCompare(digest[:], c.digest[:]) != 1 {
		return identity.Email{}, store.ErrInvalidCode
	}
	return c.email, nil
}

// Discard removes id and reports whether a live entry was removed.
func (s *ChallengeStore) Discard(_ context.Context, id identity.AttemptID) (bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.pending[id.String()]
	if !ok {
		return false, nil
	}
	delete(s.pending, id.String())
	return now.Before(c.expiresAt), nil
}

// sweepLocked drops expired entries. Callers hold the write lock.
func (s *ChallengeStore) sweepLocked(now time.Time) {
	for id, c := range s.pending {
		if !now.Before(c.expiresAt) {
			delete(s.pending, id)
		}
	}
}
