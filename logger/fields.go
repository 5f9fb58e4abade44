package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldComponent        = "component"
	FieldRequestID        = "request_id"
	FieldSessionID        = "session_id"
	FieldTraceID          = "trace_id"
	FieldOperation        = "operation"
	FieldError            = "error"
	FieldDuration         = "duration_ms"
	FieldProvider         = "provider"
	FieldModel            = "model"
	FieldAttempt          = "attempt"
	FieldBackoff          = "backoff_ms"
	FieldChoices          = "choices"
	FieldPromptTokens     = "prompt_tokens"
	FieldCompletionTokens = "completion_tokens"
	FieldCostUSD          = "cost_usd"
)

// Fields builds a map from alternating key-value pairs.
//
//	logger.Info("done", logger.Fields("op", "count", "tokens", 42))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]any {
	return map[string]any{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(op string, d time.Duration) map[string]any {
	return map[string]any{
		FieldOperation: op,
		FieldDuration:  d.Milliseconds(),
	}
}

// CallFields creates fields describing a single model call.
func CallFields(provider, model string, attempt int) map[string]any {
	return map[string]any{
		FieldProvider: provider,
		FieldModel:    model,
		FieldAttempt:  attempt,
	}
}
