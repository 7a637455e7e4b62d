package identity

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeDigits is the fixed length of a second-factor code.
const CodeDigits = 6

var codeSpace = big.NewInt(1_000_000)

// Code is a six-digit one-time code. Leading zeros are significant.
type Code struct {
	digits string
}

// NewCode draws a uniformly random code from crypto/rand.
func NewCode() (Code, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return Code{}, err
	}
	return Code{digits: fmt.Sprintf("%0*d", CodeDigits, n.Int64())}, nil
}

// ParseCode accepts exactly six ASCII digits.
func ParseCode(s string) (Code, error) {
	if len(s) != CodeDigits {
		return Code{}, ErrInvalidCode
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return Code{}, ErrInvalidCode
		}
	}
	return Code{digits: s}, nil
}

func (c Code) String() string {
	return c.digits
}
