package store

import (
	"context"

	"github.com/MrEthical07/authcore/identity"
)

// Credentials composes a CredentialStore with a secret verifier.
type Credentials struct {
	backend  CredentialStore
	verifier Verifier
}

// NewCredentials binds backend and verifier.
func NewCredentials(backend CredentialStore, verifier Verifier) *Credentials {
	return &Credentials{backend: backend, verifier: verifier}
}

// Add stores a new account, failing with ErrAlreadyExists when the email is taken.
func (c *Credentials) Add(ctx context.Context, account Account) (Account, error) {
	return c.backend.Add(ctx, account)
}

// Get loads the account for email, failing with ErrNotFound.
func (c *Credentials) Get(ctx context.Context, email identity.Email) (Account, error) {
	return c.backend.Get(ctx, email)
}

// Validate loads the account and verifies secret against its credential.
// It fails with ErrNotFound or ErrInvalidCredentials; a stored hash that
// cannot be parsed surfaces as the hasher's error.
func (c *Credentials) Validate(ctx context.Context, email identity.Email, secret string) (Account, error) {
	account, err := c.backend.Get(ctx, email)
	if err != nil {
		return Account{}, err
	}

	ok, err := c.verifier.Verify(account.Credential, secret)
	if err != nil {
		return Account{}, err
	}
	if !ok {
		return Account{}, ErrInvalidCredentials
	}
	return account, nil
}
