// Package password implements secret hashing and verification with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// The encoded form is wrapped in the opaque [Hash] type. A Hash comes either
// from [Argon2.Hash] or from [ParseHash] when loading persisted credentials,
// so arbitrary strings never reach the verifier unchecked.
//
// [Argon2.NeedsUpgrade] reports hashes produced with weaker parameters so a
// caller can re-hash after the next successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Secret shape policy lives
// in the identity package.
//
// # What this package must NOT do
//
//   - Store or retrieve credentials.
//   - Log plaintext secrets, digests or salts.
package password
