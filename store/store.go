package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/MrEthical07/authcore/identity"
	"github.com/MrEthical07/authcore/password"
)

// ChallengeTTL is the lifetime of a pending second-factor challenge.
const ChallengeTTL = 10 * time.Minute

var (
	// ErrNotFound is returned when no record exists for the key.
	ErrNotFound = errors.New("store: not found")
	// ErrAlreadyExists is returned when a unique key is already present.
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrInvalidCredentials is returned by Credentials.Validate on a secret mismatch.
	ErrInvalidCredentials = errors.New("store: invalid credentials")
	// ErrInvalidCode is returned when a pending challenge exists but the code does not match.
	ErrInvalidCode = errors.New("store: invalid code")
	// ErrBackend wraps failures of the underlying storage engine.
	ErrBackend = errors.New("store: backend unavailable")
)

// Account is the durable record for one identity. It is never mutated in
// place; callers replace it as a whole.
type Account struct {
	ID                   int64
	Email                identity.Email
	Credential           password.Hash
	RequiresSecondFactor bool
}

// CredentialStore persists accounts keyed by email. Add must enforce
// uniqueness atomically.
type CredentialStore interface {
	Add(ctx context.Context, account Account) (Account, error)
	Get(ctx context.Context, email identity.Email) (Account, error)
}

// RevocationRegistry records tokens that must no longer be honored. Revoke is
// idempotent.
type RevocationRegistry interface {
	Revoke(ctx context.Context, token string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// ChallengeStore holds pending second-factor attempts until they are
// discarded or expire after ChallengeTTL.
//
// Confirm never consumes the attempt; a mismatching code returns
// ErrInvalidCode and leaves it pending. Discard reports whether an entry was
// actually removed.
type ChallengeStore interface {
	Issue(ctx context.Context, email identity.Email, id identity.AttemptID, code identity.Code) error
	Confirm(ctx context.Context, id identity.AttemptID, code identity.Code) (identity.Email, error)
	Discard(ctx context.Context, id identity.AttemptID) (bool, error)
}

// Verifier checks a candidate secret against a stored hash.
type Verifier interface {
	Verify(h password.Hash, candidate string) (bool, error)
}

// TokenKey returns the key under which a revoked token is recorded: the hex
// SHA-256 of the encoded token, so the registry never holds usable bearer
// strings.
func TokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CodeDigest returns the SHA-256 of a one-time code for at-rest storage.
func CodeDigest(code identity.Code) [sha256.Size]byte {
	return sha256.Sum256([]byte(code.String()))
}
