// Package metrics provides lock-free counters and latency histograms for the
// authentication engine.
//
// # Design
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically. Histograms use 8 fixed buckets (<=5ms ... +Inf). Both are
// allocation-free on the write path.
//
// Export (Prometheus text, OpenTelemetry) lives in metrics/export and reads
// Snapshot values.
//
// # What this package must NOT do
//
//   - Perform I/O.
//   - Expose global registries.
package metrics
