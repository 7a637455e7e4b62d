package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/authcore/identity"
	"github.com/MrEthical07/authcore/store"
)

// Register creates an account for email with a freshly hashed secret.
//
// Malformed input fails with ErrInvalidFormat before any store access; a
// taken email fails with ErrAccountExists.
func (e *Engine) Register(ctx context.Context, email, secret string, requiresSecondFactor bool) (Account, error) {
	if err := e.ready(); err != nil {
		return Account{}, err
	}

	addr, err := identity.ParseEmail(email)
	if err != nil {
		e.emitAudit(ctx, auditEventRegister, false, "", "", ErrInvalidFormat, nil)
		return Account{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := identity.ValidateSecret(secret); err != nil {
		e.emitAudit(ctx, auditEventRegister, false, addr.String(), "", ErrInvalidFormat, nil)
		return Account{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	hash, err := e.hasher.Hash(secret)
	if err != nil {
		return Account{}, e.backendFailure(ctx, "register_hash", err)
	}

	account, err := e.credentials.Add(ctx, Account{
		Email:                addr,
		Credential:           hash,
		RequiresSecondFactor: requiresSecondFactor,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegister, false, addr.String(), "", ErrAccountExists, nil)
			return Account{}, ErrAccountExists
		}
		return Account{}, e.backendFailure(ctx, "register", err, "identity", addr.String())
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegister, true, addr.String(), "", nil, func() map[string]string {
		if requiresSecondFactor {
			return map[string]string{"second_factor": "true"}
		}
		return nil
	})
	e.log.Info(ctx, "account registered", "identity", addr.String(), "second_factor", requiresSecondFactor)

	return account, nil
}
