package llm

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
)

// StreamFormat indicates how a provider delivers streaming responses.
type StreamFormat int

const (
	// StreamNDJSON uses newline-delimited JSON (one JSON object per line).
	StreamNDJSON StreamFormat = iota
	// StreamSSE uses Server-Sent Events.
	StreamSSE
)

// Dialect maps the provider-neutral types to and from one provider's HTTP
// format. Implementations live in sub-packages such as llm/openai and
// llm/bedrock and are registered with [RegisterDialect] or passed to
// [NewWithDialect].
type Dialect interface {
	// Name returns the dialect identifier (e.g. "openai", "bedrock").
	Name() string

	// ChatPath returns the completion endpoint for model. It may be a path
	// relative to the adapter's base URL or an absolute URL.
	ChatPath(model string) string

	// HealthPath returns the health-check endpoint path. Empty means no health endpoint.
	HealthPath() string

	// BuildRequest maps a CompletionRequest to the provider's JSON request body.
	BuildRequest(req CompletionRequest) (any, error)

	// ParseResponse maps the provider's response body to a CompletionResponse.
	ParseResponse(body []byte) (*CompletionResponse, error)

	// StreamFormat returns how this provider delivers streaming data.
	StreamFormat() StreamFormat

	// ParseStreamChunk extracts content from a single stream data chunk.
	// Returns the text content and whether the stream is complete.
	ParseStreamChunk(data []byte) (content string, done bool, err error)
}

// HeaderUsageParser is implemented by dialects whose providers report token
// counts in response headers instead of the body.
type HeaderUsageParser interface {
	ParseUsage(h http.Header) Usage
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{}
)

// RegisterDialect adds a dialect to the global registry, replacing any
// dialect already registered under name. Typically called from init():
//
//	func init() {
//	    llm.RegisterDialect("openai", Dialect{})
//	}
func RegisterDialect(name string, d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[name] = d
}

// GetDialect retrieves a dialect by name from the global registry.
func GetDialect(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("llm: unknown dialect %q (forgot to import driver?)", name)
	}
	return d, nil
}

// Dialects returns the sorted names of all registered dialects.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
