// Package openai implements the OpenAI Chat Completions dialect for the llm
// adapter. Importing it registers the "openai" dialect.
package openai

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/plasma-umass/llm-utils/llm"
)

const (
	// DialectName is the registered name of this dialect.
	DialectName = "openai"

	// DefaultBaseURL is the public OpenAI API.
	DefaultBaseURL = "https://api.openai.com"

	chatPath   = "/v1/chat/completions"
	healthPath = "/v1/models"
	doneMarker = "[DONE]"
)

// ErrNoChoices is returned when a response carries no choices.
var ErrNoChoices = errors.New("openai: response has no choices")

func init() {
	llm.RegisterDialect(DialectName, Dialect{})
}

// Dialect maps llm types to the Chat Completions API.
type Dialect struct{}

var _ llm.Dialect = Dialect{}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string         `json:"model"`
	Messages    []message      `json:"messages"`
	N           int            `json:"n,omitempty"`
	Temperature *float64       `json:"temperature,omitempty"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	Stop        []string       `json:"stop,omitempty"`
	Stream      bool           `json:"stream,omitempty"`
	Extra       map[string]any `json:"-"`
}

// MarshalJSON flattens Extra into the top-level object without letting it
// override the typed fields.
func (r chatRequest) MarshalJSON() ([]byte, error) {
	type plain chatRequest
	base, err := json.Marshal(plain(r))
	if err != nil || len(r.Extra) == 0 {
		return base, err
	}
	merged := make(map[string]json.RawMessage, len(r.Extra)+4)
	for k, v := range r.Extra {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("openai: encode extra %q: %w", k, err)
		}
		merged[k] = raw
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Name returns "openai".
func (Dialect) Name() string { return DialectName }

// ChatPath returns the Chat Completions endpoint; the model travels in the body.
func (Dialect) ChatPath(string) string { return chatPath }

// HealthPath returns the model listing endpoint.
func (Dialect) HealthPath() string { return healthPath }

// StreamFormat returns SSE.
func (Dialect) StreamFormat() llm.StreamFormat { return llm.StreamSSE }

// BuildRequest maps req to a Chat Completions body. n is omitted when it
// is <= 1 and temperature when it is zero.
func (Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	if req.Model == "" {
		return nil, errors.New("openai: model is required")
	}
	msgs := req.WithSystemPrompt()
	out := chatRequest{
		Model:     req.Model,
		Messages:  make([]message, len(msgs)),
		MaxTokens: req.MaxTokens,
		Stop:      req.Stop,
		Stream:    req.Stream,
		Extra:     req.Extra,
	}
	for i, m := range msgs {
		out.Messages[i] = message(m)
	}
	if req.N > 1 {
		out.N = req.N
	}
	if req.Temperature != 0 {
		t := req.Temperature
		out.Temperature = &t
	}
	return out, nil
}

// ParseResponse maps a Chat Completions response. Every choice is kept in
// order; Content is the first.
func (Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}
	choices := make([]string, len(resp.Choices))
	for i, c := range resp.Choices {
		choices[i] = c.Message.Content
	}
	return &llm.CompletionResponse{
		Content: choices[0],
		Choices: choices,
		Model:   resp.Model,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// ParseStreamChunk extracts the first choice's delta. The "[DONE]" sentinel
// and a finish_reason both end the stream.
func (Dialect) ParseStreamChunk(data []byte) (string, bool, error) {
	if string(data) == doneMarker {
		return "", true, nil
	}
	var chunk streamChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return "", false, fmt.Errorf("openai: decode stream chunk: %w", err)
	}
	if len(chunk.Choices) == 0 {
		return "", false, nil
	}
	c := chunk.Choices[0]
	return c.Delta.Content, c.FinishReason != nil && *c.FinishReason != "", nil
}
