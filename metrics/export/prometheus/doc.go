// Package prometheus renders authcore metrics in the Prometheus text
// exposition format.
//
// [NewExporter] takes an [authcore.Engine] (or any [Source]) and its
// [Exporter.Handler] is mounted on the service's /metrics route. Counters are
// named authcore_*_total and latency histograms authcore_*_latency_seconds.
//
// # What this package must NOT do
//
//   - Register anything in a global registry.
//   - Mutate engine state.
package prometheus
