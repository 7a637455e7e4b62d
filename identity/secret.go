package identity

// MinSecretLength is the minimum accepted secret length in bytes.
const MinSecretLength = 8

// ValidateSecret checks the shape of a raw secret. Secrets are processed as
// raw bytes with no Unicode normalization.
func ValidateSecret(secret string) error {
	if len(secret) < MinSecretLength {
		return ErrInvalidSecret
	}
	return nil
}
