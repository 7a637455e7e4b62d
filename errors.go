package authcore

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat is returned when an email, secret, attempt id or code
	// fails its shape rules. It is raised before any store is touched.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrAccountExists is returned by Register when the email is taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidCredentials is returned by Authenticate for an unknown email
	// and for a wrong secret alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidCode is returned when a pending attempt exists but the code
	// does not match. The attempt stays pending.
	ErrInvalidCode = errors.New("invalid second factor code")
	// ErrChallengeNotFound is returned when no pending attempt exists for the
	// id, including after it was consumed or expired.
	ErrChallengeNotFound = errors.New("second factor challenge not found")

	// ErrMissingToken is returned by Logout when no token was presented.
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidToken is the parent of every non-expiry token rejection.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMalformedToken is returned when a token cannot be decoded.
	ErrMalformedToken = fmt.Errorf("%w: malformed", ErrInvalidToken)
	// ErrBadSignature is returned when a token's signature does not verify.
	ErrBadSignature = fmt.Errorf("%w: bad signature", ErrInvalidToken)
	// ErrRevokedToken is returned for a well-formed, unexpired token that was
	// revoked.
	ErrRevokedToken = fmt.Errorf("%w: revoked", ErrInvalidToken)
	// ErrExpiredToken is returned at or after a token's expiry instant.
	ErrExpiredToken = errors.New("token expired")

	// ErrRateLimited is returned when a login or code attempt budget is spent.
	ErrRateLimited = errors.New("rate limited")
	// ErrDeliveryFailed is returned when the one-time code could not be sent.
	// The pending attempt is left to expire.
	ErrDeliveryFailed = errors.New("code delivery failed")
	// ErrBackendUnavailable is returned when a store or limiter fails. The
	// cause is logged, never returned.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrEngineNotReady is returned when an Engine method is called on a nil
	// or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrMissingSigningKey is returned by Config.Validate when no signing
	// material is configured.
	ErrMissingSigningKey = errors.New("signing key required")
	// ErrInvalidConfig wraps every other Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

func configError(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}
