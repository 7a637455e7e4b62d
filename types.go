package authcore

import (
	"time"

	"github.com/MrEthical07/authcore/identity"
)

// LoginState is a step of the login state machine.
//
//	Start -> CredentialsChecked -> DirectAuth -> Authenticated
//	Start -> CredentialsChecked -> SecondFactorPending
//	SecondFactorPending -> SecondFactorConfirmed -> Authenticated
type LoginState uint8

const (
	StateStart LoginState = iota
	StateCredentialsChecked
	StateDirectAuth
	StateSecondFactorPending
	StateSecondFactorConfirmed
	StateAuthenticated
)

func (s LoginState) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateCredentialsChecked:
		return "credentials_checked"
	case StateDirectAuth:
		return "direct_auth"
	case StateSecondFactorPending:
		return "second_factor_pending"
	case StateSecondFactorConfirmed:
		return "second_factor_confirmed"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// LoginResult is the outcome of Authenticate or ConfirmSecondFactor.
//
// When State is StateAuthenticated, Token and ExpiresAt are set. When State
// is StateSecondFactorPending, AttemptID names the pending challenge and
// Token is empty.
type LoginResult struct {
	State     LoginState
	Token     string
	ExpiresAt time.Time
	AttemptID identity.AttemptID
}

// Authenticated reports whether the result carries a session token.
func (r *LoginResult) Authenticated() bool {
	return r != nil && r.State == StateAuthenticated
}
