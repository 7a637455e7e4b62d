package memory

import (
	"context"
	"sync"

	"github.com/MrEthical07/authcore/identity"
	"github.com/MrEthical07/authcore/store"
)

// CredentialStore keeps accounts in a map keyed by email.
type CredentialStore struct {
	mu       sync.RWMutex
	accounts map[string]store.Account
	nextID   int64
}

// NewCredentialStore returns an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{accounts: make(map[string]store.Account)}
}

// Add inserts account under its email and assigns an id when none is set.
func (s *CredentialStore) Add(_ context.Context, account store.Account) (store.Account, error) {
	key := account.Email.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[key]; exists {
		return store.Account{}, store.ErrAlreadyExists
	}
	if account.ID == 0 {
		s.nextID++
		account.ID = s.nextID
	}
	s.accounts[key] = account
	return account, nil
}

// Get returns a copy of the account for email.
func (s *CredentialStore) Get(_ context.Context, email identity.Email) (store.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[email.String()]
	if !ok {
		return store.Account{}, store.ErrNotFound
	}
	return account, nil
}

// Len returns the number of stored accounts.
func (s *CredentialStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}
