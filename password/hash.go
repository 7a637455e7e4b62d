package password

// Hash is an encoded Argon2id credential. It can only be produced by
// [Argon2.Hash] or by [ParseHash], which rejects anything that is not a
// well-formed PHC string.
type Hash struct {
	encoded string
}

// ParseHash validates a previously stored PHC string and wraps it.
func ParseHash(encoded string) (Hash, error) {
	if _, err := parsePHC(encoded); err != nil {
		return Hash{}, err
	}
	return Hash{encoded: encoded}, nil
}

// Encoded returns the PHC string for persistence.
func (h Hash) Encoded() string {
	return h.encoded
}

// Equal compares two hashes by their encoded form.
func (h Hash) Equal(other Hash) bool {
	return h.encoded == other.encoded
}

// IsZero reports whether h holds no hash.
func (h Hash) IsZero() bool {
	return h.encoded == ""
}

// String keeps the digest out of formatted output and logs.
func (h Hash) String() string {
	if h.encoded == "" {
		return "password.Hash(empty)"
	}
	return "password.Hash(redacted)"
}
