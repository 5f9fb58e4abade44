package logger

import "context"

// contextKey is an unexported type for context keys to avoid collisions.
type contextKey string

var contextFields = []string{FieldRequestID, FieldSessionID, FieldTraceID}

// ContextWithRequestID returns a context carrying a request id for WithContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey(FieldRequestID), id)
}

// ContextWithSessionID returns a context carrying a chat session id.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey(FieldSessionID), id)
}

// RequestIDFromContext returns the request id stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey(FieldRequestID)).(string)
	return id
}
