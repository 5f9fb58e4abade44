// Package component defines lifecycle-managed infrastructure for the
// llm-utils binary: the HTTP server, the Redis cache and the OpenTelemetry
// providers.
//
// Components are registered with a Registry, started in registration order
// and stopped in reverse. Components that also implement
// observability.HealthChecker contribute to HealthAll.
package component
