// Package observability wires OpenTelemetry tracing and metrics behind
// a single config-gated Init. Disabled by default: the global providers
// stay no-ops and instrumented code costs nothing, which is what test
// runs want.
//
//	shutdown, err := observability.Init(ctx, observability.FromConfig(cfg), log)
//	defer shutdown(ctx)
//
// Request handling records into Metrics; storage and render start spans
// on the global tracer directly.
package observability
