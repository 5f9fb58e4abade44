// Package errors provides the structured error type shared by every llm-utils
// package. Errors carry a machine-readable code, a recommended HTTP status and
// a retryable flag, and render to an RFC 7807 style JSON body.
package errors
