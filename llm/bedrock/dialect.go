// Package bedrock implements the Anthropic Claude text-completion dialect on
// the AWS Bedrock runtime, including SigV4 request signing. Importing it
// registers the "bedrock" dialect.
package bedrock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/plasma-umass/llm-utils/llm"
	"github.com/plasma-umass/llm-utils/parse"
)

const (
	// DialectName is the registered name of this dialect.
	DialectName = "bedrock"

	// AnthropicVersion is sent with every request body.
	AnthropicVersion = "bedrock-2023-05-31"

	// HumanPrefix and AssistantPrefix are the transcript role names.
	HumanPrefix     = "Human"
	AssistantPrefix = "Assistant"

	defaultMaxTokens = 2048
	defaultTopK      = 250
	defaultTopP      = 1.0

	headerInputTokens  = "X-Amzn-Bedrock-Input-Token-Count"
	headerOutputTokens = "X-Amzn-Bedrock-Output-Token-Count"
)

func init() {
	llm.RegisterDialect(DialectName, Dialect{})
}

// Endpoint returns the Bedrock runtime base URL for region.
func Endpoint(region string) string {
	return "https://" + ServiceName + "-runtime." + region + ".amazonaws.com"
}

// Dialect maps llm types to the Bedrock InvokeModel API for Claude text
// completion models.
type Dialect struct{}

var (
	_ llm.Dialect           = Dialect{}
	_ llm.HeaderUsageParser = Dialect{}
)

type invokeRequest struct {
	Prompt            string   `json:"prompt"`
	MaxTokensToSample int      `json:"max_tokens_to_sample"`
	Temperature       float64  `json:"temperature"`
	TopK              int      `json:"top_k"`
	TopP              float64  `json:"top_p"`
	StopSequences     []string `json:"stop_sequences"`
	AnthropicVersion  string   `json:"anthropic_version"`
}

type invokeResponse struct {
	Completion string `json:"completion"`
	StopReason string `json:"stop_reason"`
}

// Name returns "bedrock".
func (Dialect) Name() string { return DialectName }

// ChatPath returns the InvokeModel path for model.
func (Dialect) ChatPath(model string) string {
	return "/model/" + url.PathEscape(model) + "/invoke"
}

// HealthPath is empty; the runtime has no unauthenticated health endpoint.
func (Dialect) HealthPath() string { return "" }

// StreamFormat returns NDJSON. InvokeModel answers with a single JSON line,
// which ParseStreamChunk delivers as one final chunk.
func (Dialect) StreamFormat() llm.StreamFormat { return llm.StreamNDJSON }

// BuildRequest renders the conversation as a Human/Assistant transcript
// ending in an open Assistant turn. A system prompt precedes the transcript.
// Unset sampling fields take the Claude defaults.
func (Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	msgs := make([]llm.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = llm.Message{Role: transcriptRole(m.Role), Content: m.Content}
	}

	prompt := parse.GenerateChatlog(msgs, AssistantPrefix)
	if req.SystemPrompt != "" {
		prompt = strings.TrimRightFunc(req.SystemPrompt, unicode.IsSpace) + "\n\n" + prompt
	}

	body := invokeRequest{
		Prompt:            prompt,
		MaxTokensToSample: req.MaxTokens,
		Temperature:       req.Temperature,
		TopK:              defaultTopK,
		TopP:              defaultTopP,
		StopSequences:     req.Stop,
		AnthropicVersion:  AnthropicVersion,
	}
	if body.MaxTokensToSample <= 0 {
		body.MaxTokensToSample = defaultMaxTokens
	}
	if len(body.StopSequences) == 0 {
		body.StopSequences = []string{"\n\n" + HumanPrefix + ":"}
	}
	if v, ok := req.Extra["top_k"].(int); ok {
		body.TopK = v
	}
	if v, ok := req.Extra["top_p"].(float64); ok {
		body.TopP = v
	}
	return body, nil
}

// transcriptRole maps the conventional roles onto Claude's; other roles
// pass through unchanged.
func transcriptRole(role string) string {
	switch role {
	case llm.RoleUser:
		return HumanPrefix
	case llm.RoleAssistant:
		return AssistantPrefix
	}
	return role
}

// ParseResponse reads {"completion": "..."}. Token counts come from headers.
func (Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp invokeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("bedrock: decode response: %w", err)
	}
	return &llm.CompletionResponse{
		Content: resp.Completion,
		Choices: []string{resp.Completion},
	}, nil
}

// ParseUsage reads the Bedrock token count headers.
func (Dialect) ParseUsage(h http.Header) llm.Usage {
	in, _ := strconv.Atoi(h.Get(headerInputTokens))
	out, _ := strconv.Atoi(h.Get(headerOutputTokens))
	return llm.Usage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out}
}

// ParseStreamChunk decodes a whole InvokeModel response as the final chunk.
func (Dialect) ParseStreamChunk(data []byte) (string, bool, error) {
	var resp invokeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", false, fmt.Errorf("bedrock: decode chunk: %w", err)
	}
	return resp.Completion, true, nil
}

// MergeLeadingMessage folds a leading instruction into the second message:
// the first content, right-trimmed, plus a newline is prepended to the second
// content and the first message is dropped. A conversation that already
// opens with a Human turn, or has fewer than two messages, is returned as a
// copy. msgs is never modified.
func MergeLeadingMessage(msgs []llm.Message) []llm.Message {
	if len(msgs) < 2 || transcriptRole(msgs[0].Role) == HumanPrefix {
		return append([]llm.Message(nil), msgs...)
	}
	out := make([]llm.Message, len(msgs)-1)
	copy(out, msgs[1:])
	out[0].Content = strings.TrimRightFunc(msgs[0].Content, unicode.IsSpace) + "\n" + out[0].Content
	return out
}
