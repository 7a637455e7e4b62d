// Package internaldefs holds the metric names, help strings and bucket
// bounds shared by the Prometheus and OpenTelemetry exporters, so both
// expose the same series.
//
// # What this package must NOT do
//
//   - Import the authcore root package or any exporter package.
//   - Perform I/O.
package internaldefs
