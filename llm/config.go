package llm

import (
	"net/http"
	"time"

	"github.com/plasma-umass/llm-utils/httpclient"
	"github.com/plasma-umass/llm-utils/logger"
	"github.com/plasma-umass/llm-utils/observability"
	"github.com/plasma-umass/llm-utils/resilience"
)

const defaultTimeout = 120 * time.Second

// Config holds configuration for creating an LLM adapter.
// The Dialect field selects the provider mapping.
type Config struct {
	// Name identifies this adapter instance. Defaults to "<dialect>-llm".
	Name string `yaml:"name" json:"name"`

	// Dialect selects the provider mapping (e.g. "openai", "bedrock").
	// Must match a dialect registered via RegisterDialect.
	Dialect string `yaml:"dialect" json:"dialect"`

	// BaseURL is the provider's API base URL.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Model is the default model to use (e.g. "gpt-4").
	Model string `yaml:"model" json:"model"`

	// Temperature is the default sampling temperature.
	Temperature float64 `yaml:"temperature" json:"temperature"`

	// MaxTokens is the default maximum tokens for responses. 0 means provider default.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`

	// Timeout for HTTP requests. Defaults to 120s.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Auth configures authentication (bearer token, API key, request signer).
	Auth *httpclient.AuthConfig `yaml:"-" json:"-"`

	// Headers are additional HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers" json:"headers"`

	// Retry configures retry behavior for failed requests. Nil disables it.
	Retry *resilience.RetryConfig `yaml:"-" json:"-"`

	// RateLimiter paces outgoing requests. Nil disables it.
	RateLimiter *resilience.RateLimiterConfig `yaml:"-" json:"-"`

	// Transport overrides the HTTP transport.
	Transport http.RoundTripper `yaml:"-" json:"-"`

	// Metrics receives per-call token and latency measurements. Nil disables them.
	Metrics *observability.Metrics `yaml:"-" json:"-"`

	// Logger defaults to the global logger.
	Logger *logger.Logger `yaml:"-" json:"-"`
}

// applyDefaults sets default values for unset config fields.
func (c *Config) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.Name == "" && c.Dialect != "" {
		c.Name = c.Dialect + "-llm"
	}
	if c.Logger == nil {
		c.Logger = logger.GetGlobalLogger()
	}
}
