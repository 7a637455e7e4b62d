// Package redisstore implements the revoked-token registry and the
// second-factor challenge store on Redis.
//
// # Design
//
// Challenges are written with SET NX and a TTL, so Redis enforces both the
// at-most-one-pending-attempt-per-id rule and the expiry. The value is a
// versioned binary record holding the identity, the absolute expiry and a
// SHA-256 digest of the code; the raw code never reaches Redis.
//
// Revoked tokens are recorded as keys derived from the token digest with no
// value. They are kept forever unless RetainFor is configured.
//
// # What this package must NOT do
//
//   - Store raw tokens or raw codes.
//   - Compare code digests with non-constant-time equality.
package redisstore
