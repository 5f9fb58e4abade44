// Package tokens counts BPE tokens with tiktoken and prices OpenAI usage.
//
// Token counting uses the embedded BPE ranks from tiktoken-go-loader, so no
// network access is needed at runtime.
package tokens
