package openai

import (
	"github.com/plasma-umass/llm-utils/httpclient"
	"github.com/plasma-umass/llm-utils/llm"
)

// New creates an adapter for the OpenAI API authenticated with apiKey.
// An empty BaseURL selects DefaultBaseURL.
func New(apiKey string, cfg llm.Config) (*llm.Adapter, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Auth == nil && apiKey != "" {
		cfg.Auth = httpclient.BearerAuth(apiKey)
	}
	if cfg.Name == "" {
		cfg.Name = DialectName
	}
	return llm.NewWithDialect(Dialect{}, cfg)
}
