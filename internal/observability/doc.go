// Package observability provides structured logging and metrics emission
// for the case pipeline.
//
// This package implements:
//   - zap logger construction from configuration
//   - the Metrics sink consumed by the stage executor and orchestrator
//   - log, no-op and fan-out sink implementations
//
// Metric emission is fire-and-forget: sinks never return errors to callers.
package observability
