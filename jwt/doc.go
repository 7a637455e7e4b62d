// Package jwt issues and parses signed, self-contained session tokens.
//
// A token carries its subject, issue time, absolute expiry and a random id.
// Parse reports failures through three sentinels so callers can tell a
// garbled token ([ErrMalformed]) from a forged or foreign one
// ([ErrBadSignature]) and from one that simply ran out of time ([ErrExpired]).
//
// Revocation is not handled here; the engine consults its revocation registry
// after Parse succeeds.
package jwt
