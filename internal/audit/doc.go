// Package audit relays security-relevant events (registrations, logins,
// second-factor outcomes, logouts, rejected tokens) to a pluggable sink.
//
// # Components
//
//   - [Sink]: event consumer (no-op, channel, JSON lines, slog).
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event]: structured record with timestamp, type, identity, attempt id, IP, metadata.
//
// # What this package must NOT do
//
//   - Decide which events to emit; the engine does.
//   - Accept secrets, codes or tokens in any field.
package audit
