// Package instrumentation wires OpenTelemetry metrics and optional
// tracing for the service. Metrics default to a Prometheus exporter
// scraped from the dedicated metrics listener; tracing is off unless an
// exporter is configured.
package instrumentation
