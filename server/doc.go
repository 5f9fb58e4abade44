// Package server exposes the llm-utils helpers over HTTP using Gin.
//
// Successful responses are wrapped as {"data": ...}; failures use the
// errors.ErrorResponse envelope with the AppError's HTTP status.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: Panic recovery with structured logging
//   - RequestID: X-Request-Id generation and propagation into the context
//   - RequestLogger: Request logging with duration tracking
//   - Metrics: OpenTelemetry request duration histogram
//   - BodySizeLimit: Request body size limits
//   - CORS: Cross-origin resource sharing configuration
//
// # Endpoints
//
//   - GET  /health, GET /version
//   - POST /v1/tokens/count, POST /v1/cost, GET /v1/pricing
//   - POST /v1/text/wrap, POST /v1/text/number
//   - POST /v1/extract/json, POST /v1/extract/code
//   - POST /v1/chatlog/parse, POST /v1/chatlog/generate
//   - POST /v1/chat (503 unless a chat provider is configured)
package server
