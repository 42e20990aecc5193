// Package otel exports session metrics through an OpenTelemetry Meter.
//
// [New] registers an Int64ObservableCounter per session counter and an
// Int64ObservableGauge per histogram bucket. One callback reads the store's
// MetricsSnapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate session state.
package otel
