// Package middleware adapts authcore token verification to net/http.
//
// [Guard] reads the session token from the Authorization bearer header or
// the login cookie, calls Engine.VerifyToken, and stores the verified
// identity in the request context for [IdentityFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Every accept or
// reject decision is made by the Engine.
//
// # What this package must NOT do
//
//   - Parse or sign tokens directly.
//   - Access stores.
//   - Reveal why a token was rejected.
package middleware
