// Package llm provides a config-driven LLM adapter built on the httpclient
// package.
//
// The adapter works with any provider via the Dialect pattern, similar to
// how database/sql works with driver packages.
//
// # Architecture
//
// The llm package provides:
//   - Provider-neutral types: [CompletionRequest], [CompletionResponse], [StreamChunk], [Message], [Usage]
//   - [Dialect] interface: maps those types to and from a provider's HTTP format
//   - [Adapter]: composes an httpclient.Client and a Dialect into a complete client,
//     with a tracing span and token/latency metrics per call
//   - Dialect registry: [RegisterDialect] / [GetDialect] for config-driven selection
//   - [UsageTracker] for running token totals
//   - Convenience helpers: [Complete], [CompleteStructured]
//
// # Usage
//
// Import a dialect package for side-effect registration, then create an adapter:
//
//	import (
//	    "github.com/plasma-umass/llm-utils/llm"
//	    _ "github.com/plasma-umass/llm-utils/llm/openai"
//	)
//
//	adapter, err := llm.New(llm.Config{
//	    Dialect: "openai",
//	    BaseURL: "https://api.openai.com",
//	    Model:   "gpt-4",
//	    Auth:    httpclient.BearerAuth(key),
//	})
//
//	resp, err := adapter.Execute(ctx, llm.CompletionRequest{
//	    Messages: []llm.Message{{Role: llm.RoleUser, Content: "Hello!"}},
//	})
//
// Or pass a dialect directly without the global registry:
//
//	adapter, err := llm.NewWithDialect(bedrock.Dialect{}, llm.Config{...})
package llm
