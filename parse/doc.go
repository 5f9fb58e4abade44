// Package parse extracts structure from free-form model output: embedded
// JSON objects, fenced code blocks, and plain-text chat transcripts.
package parse
