// Package otel publishes authcore metrics through OpenTelemetry asynchronous
// instruments.
//
// [NewExporter] creates one Int64ObservableCounter per engine counter and,
// per latency histogram, a bucket gauge (attribute "le") and a count gauge.
// A single callback reads the engine snapshot on each collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
