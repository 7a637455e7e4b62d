// Package store defines the persistence contracts behind authentication:
// accounts keyed by email, the revoked-token registry, and pending
// second-factor challenges.
//
// # Design
//
// Each contract is a small interface with concrete adapters in the
// sub-packages (memory, redisstore, sqlstore) selected at startup and
// injected into the engine. Every adapter call is atomic on its own; no
// operation spans two stores.
//
// Adapters return owned copies of records. Errors are reported through the
// sentinels in this package, with backend failures wrapped in [ErrBackend].
//
// # Architecture boundaries
//
// This package owns record shapes and error vocabulary. It does not mint
// tokens, generate codes or deliver messages.
//
// # What this package must NOT do
//
//   - Persist or log raw secrets or raw one-time codes.
//   - Compare secrets or codes with non-constant-time equality.
package store
