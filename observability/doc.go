// Package observability wires OpenTelemetry tracing and metrics for
// llm-utils: OTLP/HTTP exporters, span helpers, the LLM call instruments
// (tokens, latency, cost) and HTTP request metrics, plus health reports.
package observability
