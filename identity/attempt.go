package identity

import (
	"github.com/google/uuid"
)

// AttemptID identifies one pending second-factor login attempt.
type AttemptID struct {
	id string
}

// NewAttemptID returns a fresh random (UUID v4) attempt identifier.
func NewAttemptID() (AttemptID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return AttemptID{}, err
	}
	return AttemptID{id: id.String()}, nil
}

// ParseAttemptID validates a client-supplied attempt identifier.
func ParseAttemptID(s string) (AttemptID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return AttemptID{}, ErrInvalidAttemptID
	}
	return AttemptID{id: id.String()}, nil
}

func (a AttemptID) String() string {
	return a.id
}

// IsZero reports whether a was never assigned.
func (a AttemptID) IsZero() bool {
	return a.id == ""
}
