// Package authcore registers, authenticates and logs out HTTP clients. It
// issues signed, time-bounded session tokens, drives an optional emailed
// second factor, and revokes tokens on demand.
//
// Engine methods are safe to call from multiple goroutines once
// [Builder.Build] has returned.
//
// # Architecture boundaries
//
// authcore is the orchestrator. It composes four stores defined in package
// store (credentials, revoked tokens, pending challenges) with the password
// hasher, the token service in package jwt and a [mail.Sender]. Concrete
// storage engines live in store/memory, store/redisstore and store/sqlstore
// and are selected by the caller at startup. Rate limiting, audit dispatch
// and metric collection live under internal/.
//
// # Login state machine
//
//	Start -> CredentialsChecked -> DirectAuth -> Authenticated
//	Start -> CredentialsChecked -> SecondFactorPending
//	SecondFactorPending -> SecondFactorConfirmed -> Authenticated
//
// [Engine.Authenticate] covers the first two lines and
// [Engine.ConfirmSecondFactor] the third.
//
// # What this package must NOT do
//
//   - Persist or log a raw secret, a one-time code, a password hash or a
//     session token.
//   - Tell an unauthenticated caller whether an email is registered.
//   - Wrap several store calls in one cross-store transaction.
//   - Start background work other than the audit dispatcher.
package authcore
