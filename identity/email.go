package identity

import (
	"errors"
	"strings"
)

const (
	minEmailLength = 5
	maxEmailLength = 254
)

var (
	// ErrInvalidEmail is returned when an address fails the shape rules.
	ErrInvalidEmail = errors.New("identity: invalid email")
	// ErrInvalidSecret is returned when a secret is shorter than MinSecretLength.
	ErrInvalidSecret = errors.New("identity: invalid secret")
	// ErrInvalidAttemptID is returned for attempt identifiers that are not UUIDs.
	ErrInvalidAttemptID = errors.New("identity: invalid login attempt id")
	// ErrInvalidCode is returned for codes that are not exactly six ASCII digits.
	ErrInvalidCode = errors.New("identity: invalid code")
)

// Email is a validated account address. The zero value is not a valid
// identity; obtain one through ParseEmail.
type Email struct {
	addr string
}

// ParseEmail validates s and returns it as an Email.
//
// The address must be non-empty, between 5 and 254 bytes long, contain '@',
// and consist only of ASCII characters.
func ParseEmail(s string) (Email, error) {
	if len(s) < minEmailLength || len(s) > maxEmailLength {
		return Email{}, ErrInvalidEmail
	}
	if !strings.Contains(s, "@") {
		return Email{}, ErrInvalidEmail
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return Email{}, ErrInvalidEmail
		}
	}

	return Email{addr: s}, nil
}

// String returns the address.
func (e Email) String() string {
	return e.addr
}

// IsZero reports whether e was never parsed.
func (e Email) IsZero() bool {
	return e.addr == ""
}
