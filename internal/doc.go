// Package internal holds the plumbing shared by the authcore engine and the
// authd service. Nothing here is part of the public API.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - config: authd process configuration (TOML file + environment)
//   - logging: context-aware logger interface over log/slog
//   - metrics: lock-free counters and latency histograms
//   - rate: failed-login and wrong-code limiting (Redis or in-process)
//   - server: HTTP/JSON routes over the engine
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API.
//   - Be imported by any package outside the authcore module.
package internal
