// Package identity defines the validated value types that cross the
// authentication boundary: the account email, the raw secret, the login
// attempt identifier, and the six-digit second-factor code.
//
// Every type can only be obtained through its parsing constructor, so a
// value held by the rest of the module has already passed its shape checks.
//
// # What this package must NOT do
//
//   - Touch storage or the network.
//   - Retain raw secrets beyond the call that validates them.
package identity
