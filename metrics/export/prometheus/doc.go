// Package prometheus exposes session metrics as a client_golang Collector.
//
// Counter names are gosession_*_total; the single histogram is
// gosession_validity_latency_seconds. [Handler] serves them from a private
// registry, or callers register [NewCollector] with their own.
//
// # What this package must NOT do
//
//   - Register with the global Prometheus registry.
//   - Mutate session state.
package prometheus
