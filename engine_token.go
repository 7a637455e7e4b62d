package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authcore/identity"
	"github.com/MrEthical07/authcore/jwt"
)

// VerifyToken checks a session token's signature, expiry and revocation
// status and returns its subject.
//
// Failures are ErrMalformedToken, ErrBadSignature, ErrExpiredToken or
// ErrRevokedToken; a revocation lookup failure returns ErrBackendUnavailable
// rather than accepting the token.
func (e *Engine) VerifyToken(ctx context.Context, token string) (identity.Email, error) {
	if err := e.ready(); err != nil {
		return identity.Email{}, err
	}

	start := time.Now()
	defer e.observe(MetricVerifyLatency, start)

	addr, err := e.verify(ctx, token)
	if err != nil {
		e.rejected(ctx, err)
		return identity.Email{}, err
	}

	e.metricInc(MetricTokenVerified)
	return addr, nil
}

// Logout revokes a token that is currently valid. Presenting an already
// invalid token is an error, not a no-op: malformed, forged and revoked
// tokens fail with ErrInvalidToken (or a more specific error wrapping it)
// and expired ones with ErrExpiredToken.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if token == "" {
		e.emitAudit(ctx, auditEventLogout, false, "", "", ErrMissingToken, nil)
		return ErrMissingToken
	}

	addr, err := e.verify(ctx, token)
	if err != nil {
		e.rejected(ctx, err)
		e.emitAudit(ctx, auditEventLogout, false, "", "", err, nil)
		return err
	}

	if err := e.revocations.Revoke(ctx, token); err != nil {
		return e.backendFailure(ctx, "revoke", err, "identity", addr.String())
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, addr.String(), "", nil, nil)
	return nil
}

func (e *Engine) verify(ctx context.Context, token string) (identity.Email, error) {
	if token == "" {
		return identity.Email{}, ErrMalformedToken
	}

	claims, err := e.tokens.Parse(token)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrExpired):
			return identity.Email{}, ErrExpiredToken
		case errors.Is(err, jwt.ErrBadSignature):
			return identity.Email{}, ErrBadSignature
		default:
			return identity.Email{}, ErrMalformedToken
		}
	}

	addr, err := identity.ParseEmail(claims.Subject)
	if err != nil {
		return identity.Email{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	revoked, err := e.revocations.IsRevoked(ctx, token)
	if err != nil {
		return identity.Email{}, e.backendFailure(ctx, "revocation_lookup", err, "identity", addr.String())
	}
	if revoked {
		return identity.Email{}, ErrRevokedToken
	}

	return addr, nil
}

func (e *Engine) rejected(ctx context.Context, err error) {
	if errors.Is(err, ErrBackendUnavailable) {
		return
	}
	if errors.Is(err, ErrRevokedToken) {
		e.metricInc(MetricRevokedTokenRejected)
	} else {
		e.metricInc(MetricTokenRejected)
	}
	e.emitAudit(ctx, auditEventTokenRejected, false, "", "", err, nil)
}
