package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/authcore/identity"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/store"
)

// ConfirmSecondFactor completes a pending login. On success the attempt is
// consumed and a session token returned; replaying the same attempt then
// fails with ErrChallengeNotFound.
//
// A wrong code, or an attempt that belongs to a different email, fails with
// ErrInvalidCode and leaves the attempt pending until it expires or the code
// attempt budget is spent.
func (e *Engine) ConfirmSecondFactor(ctx context.Context, email, attemptID, code string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	addr, err := identity.ParseEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	id, err := identity.ParseAttemptID(attemptID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	otp, err := identity.ParseCode(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if e.limiter != nil {
		if err := e.limiter.CheckCode(ctx, id.String()); err != nil {
			return nil, e.codeLimited(ctx, addr, id, err)
		}
	}

	confirmed, err := e.challenges.Confirm(ctx, id, otp)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			e.metricInc(MetricSecondFactorFailure)
			e.emitAudit(ctx, auditEventSecondFactorFailure, false, addr.String(), id.String(), ErrChallengeNotFound, nil)
			return nil, ErrChallengeNotFound
		case errors.Is(err, store.ErrInvalidCode):
			return nil, e.wrongCode(ctx, addr, id)
		default:
			return nil, e.backendFailure(ctx, "challenge_confirm", err, "attempt_id", id.String())
		}
	}
	if confirmed != addr {
		return nil, e.wrongCode(ctx, addr, id)
	}

	// StateSecondFactorConfirmed: mint first so a signing failure does not
	// burn the code.
	result, err := e.issueToken(ctx, addr)
	if err != nil {
		return nil, err
	}

	removed, err := e.challenges.Discard(ctx, id)
	if err != nil {
		return nil, e.backendFailure(ctx, "challenge_discard", err, "attempt_id", id.String())
	}
	if !removed {
		// A concurrent confirmation consumed the attempt first.
		e.metricInc(MetricSecondFactorReplay)
		e.emitAudit(ctx, auditEventSecondFactorFailure, false, addr.String(), id.String(), ErrChallengeNotFound, func() map[string]string {
			return map[string]string{"reason": "replay"}
		})
		return nil, ErrChallengeNotFound
	}

	e.metricInc(MetricSecondFactorSuccess)
	e.emitAudit(ctx, auditEventSecondFactorSuccess, true, addr.String(), id.String(), nil, nil)

	return result, nil
}

func (e *Engine) wrongCode(ctx context.Context, addr identity.Email, id identity.AttemptID) error {
	e.metricInc(MetricSecondFactorFailure)
	e.emitAudit(ctx, auditEventSecondFactorFailure, false, addr.String(), id.String(), ErrInvalidCode, nil)
	if e.limiter != nil {
		if err := e.limiter.IncrementCode(ctx, id.String()); err != nil && !errors.Is(err, rate.ErrRateLimited) {
			e.log.Warn(ctx, "code limiter increment failed", "attempt_id", id.String(), "err", err)
		}
	}
	return ErrInvalidCode
}

func (e *Engine) codeLimited(ctx context.Context, addr identity.Email, id identity.AttemptID, err error) error {
	if errors.Is(err, rate.ErrRateLimited) {
		e.metricInc(MetricSecondFactorRateLimited)
		e.emitAudit(ctx, auditEventSecondFactorFailure, false, addr.String(), id.String(), ErrRateLimited, nil)
		return ErrRateLimited
	}
	return e.backendFailure(ctx, "code_limit", err, "attempt_id", id.String())
}
