// Package telemetry wires tracing and metrics for tweetwash: an optional
// OTLP/gRPC tracer provider and a prometheus registry for batch counters.
package telemetry
