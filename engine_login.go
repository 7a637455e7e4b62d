package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authcore/identity"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/mail"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/store"
)

// Authenticate checks email and secret. Accounts without a second factor get
// a session token straight away (StateAuthenticated). Accounts with one get
// a fresh code delivered by mail and a pending attempt id
// (StateSecondFactorPending).
//
// An unknown email and a wrong secret both fail with ErrInvalidCredentials.
// A delivery failure returns ErrDeliveryFailed and leaves the attempt to
// expire.
func (e *Engine) Authenticate(ctx context.Context, email, secret string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	addr, err := identity.ParseEmail(email)
	if err != nil {
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrInvalidFormat, nil)
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := identity.ValidateSecret(secret); err != nil {
		e.emitAudit(ctx, auditEventLoginFailure, false, addr.String(), "", ErrInvalidFormat, nil)
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	ip := clientIPFromContext(ctx)
	if e.limiter != nil {
		if err := e.limiter.CheckLogin(ctx, addr.String(), ip); err != nil {
			return nil, e.loginLimited(ctx, addr, err)
		}
	}

	start := time.Now()
	account, err := e.credentials.Validate(ctx, addr, secret)
	e.observe(MetricLoginLatency, start)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidCredentials):
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, addr.String(), "", ErrInvalidCredentials, nil)
			if e.limiter != nil {
				if lerr := e.limiter.IncrementLogin(ctx, addr.String(), ip); lerr != nil && !errors.Is(lerr, rate.ErrRateLimited) {
					e.log.Warn(ctx, "login limiter increment failed", "identity", addr.String(), "err", lerr)
				}
			}
			return nil, ErrInvalidCredentials
		case errors.Is(err, password.ErrMalformedHash):
			return nil, e.backendFailure(ctx, "login_verify", err, "identity", addr.String())
		default:
			return nil, e.backendFailure(ctx, "login", err, "identity", addr.String())
		}
	}

	if e.limiter != nil {
		if err := e.limiter.ResetLogin(ctx, addr.String(), ip); err != nil {
			e.log.Warn(ctx, "login limiter reset failed", "identity", addr.String(), "err", err)
		}
	}
	if upgrade, err := e.hasher.NeedsUpgrade(account.Credential); err == nil && upgrade {
		e.log.Debug(ctx, "credential uses outdated hash parameters", "identity", addr.String())
	}

	// StateCredentialsChecked
	if !account.RequiresSecondFactor {
		result, err := e.issueToken(ctx, addr)
		if err != nil {
			return nil, err
		}
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(ctx, auditEventLoginSuccess, true, addr.String(), "", nil, nil)
		return result, nil
	}

	return e.startSecondFactor(ctx, addr)
}

func (e *Engine) loginLimited(ctx context.Context, addr identity.Email, err error) error {
	if errors.Is(err, rate.ErrRateLimited) {
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, auditEventLoginFailure, false, addr.String(), "", ErrRateLimited, nil)
		return ErrRateLimited
	}
	return e.backendFailure(ctx, "login_limit", err, "identity", addr.String())
}

// issueToken mints a session token for addr and reports it as the final
// state of the login machine.
func (e *Engine) issueToken(ctx context.Context, addr identity.Email) (*LoginResult, error) {
	token, claims, err := e.tokens.Issue(addr.String())
	if err != nil {
		return nil, e.backendFailure(ctx, "issue_token", err, "identity", addr.String())
	}
	e.metricInc(MetricTokenIssued)

	return &LoginResult{
		State:     StateAuthenticated,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (e *Engine) startSecondFactor(ctx context.Context, addr identity.Email) (*LoginResult, error) {
	attemptID, err := identity.NewAttemptID()
	if err != nil {
		return nil, e.backendFailure(ctx, "attempt_id", err)
	}
	code, err := identity.NewCode()
	if err != nil {
		return nil, e.backendFailure(ctx, "attempt_code", err)
	}

	if err := e.challenges.Issue(ctx, addr, attemptID, code); err != nil {
		return nil, e.backendFailure(ctx, "challenge_issue", err, "identity", addr.String())
	}

	msg := mail.Message{
		To:       addr,
		Subject:  e.config.SecondFactor.Subject,
		TextBody: fmt.Sprintf("Your login code is %s. It expires in %s.", code, e.config.SecondFactor.TTL),
		HTMLBody: fmt.Sprintf("<p>Your login code is <strong>%s</strong>. It expires in %s.</p>", code, e.config.SecondFactor.TTL),
	}
	if err := e.mailer.Send(ctx, msg); err != nil {
		e.metricInc(MetricDeliveryFailure)
		e.log.Error(ctx, "code delivery failed", "identity", addr.String(), "attempt_id", attemptID.String(), "err", err)
		e.emitAudit(ctx, auditEventSecondFactorRequired, false, addr.String(), attemptID.String(), ErrDeliveryFailed, nil)
		return nil, ErrDeliveryFailed
	}

	e.metricInc(MetricSecondFactorRequired)
	e.emitAudit(ctx, auditEventSecondFactorRequired, true, addr.String(), attemptID.String(), nil, nil)

	return &LoginResult{
		State:     StateSecondFactorPending,
		AttemptID: attemptID,
	}, nil
}
