package chat

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/plasma-umass/llm-utils/errors"
	"github.com/plasma-umass/llm-utils/httpclient"
	"github.com/plasma-umass/llm-utils/llm"
	"github.com/plasma-umass/llm-utils/llm/bedrock"
	"github.com/plasma-umass/llm-utils/logger"
	"github.com/plasma-umass/llm-utils/observability"
	"github.com/plasma-umass/llm-utils/parse"
)

const (
	// DefaultClaudeModel is the Bedrock model id Claude uses unless overridden.
	DefaultClaudeModel = "anthropic.claude-v2"
	// DefaultRegion is the AWS region Claude uses unless overridden.
	DefaultRegion = "us-west-2"
	// DefaultMaxRetry bounds Claude's malformed-response retries.
	DefaultMaxRetry = 5
)

// Claude talks to Anthropic Claude on AWS Bedrock and insists on
// structured replies: a JSON object, or exactly two code blocks.
type Claude struct {
	opts  options
	model string
	api   llm.Completer
	log   *logger.Logger
	usage llm.UsageTracker
}

var _ ChatAPI = (*Claude)(nil)

// NewClaude creates a Claude client. Credentials default to the AWS default
// chain.
func NewClaude(ctx context.Context, opts ...Option) (*Claude, error) {
	o := newOptions(opts)
	if o.model == "" {
		o.model = DefaultClaudeModel
	}
	if o.region == "" {
		o.region = DefaultRegion
	}

	api := o.completer
	if api == nil {
		adapter, err := bedrock.New(ctx, o.region, o.creds, o.llmConfig())
		if err != nil {
			return nil, err
		}
		api = adapter
	}
	return &Claude{
		opts:  o,
		model: o.model,
		api:   api,
		log:   o.log.WithComponent("claude"),
	}, nil
}

func staticCredentials(id, secret string) aws.CredentialsProvider {
	return bedrock.StaticCredentials(id, secret, "")
}

// Name returns "claude".
func (c *Claude) Name() string { return ProviderClaude }

// Model returns the Bedrock model id in use.
func (c *Claude) Model() string { return c.model }

// MaxRetry returns the malformed-response attempt bound.
func (c *Claude) MaxRetry() int { return c.opts.maxRetry }

// AssistantMessage returns an Assistant-role message.
func (c *Claude) AssistantMessage(msg string) llm.Message {
	return llm.Message{Role: bedrock.AssistantPrefix, Content: msg}
}

// UserMessage returns a Human-role message.
func (c *Claude) UserMessage(msg string) llm.Message {
	return llm.Message{Role: bedrock.HumanPrefix, Content: msg}
}

// Usage returns the tokens consumed so far.
func (c *Claude) Usage() llm.Usage { return c.usage.Snapshot() }

// SendMessage folds the leading message into the next, then asks until a
// completion carries a JSON object or exactly two code blocks. n is ignored.
// A transport failure aborts at once; running out of attempts returns a
// MALFORMED_RESPONSE error.
func (c *Claude) SendMessage(ctx context.Context, conversation []llm.Message, _ int) ([]string, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanChatSend,
		attribute.String(observability.AttrProvider, ProviderClaude),
		attribute.String(observability.AttrModel, c.model),
	)
	req := llm.CompletionRequest{
		Model:    c.model,
		Messages: bedrock.MergeLeadingMessage(conversation),
	}

	for attempt := 1; attempt <= c.opts.maxRetry; attempt++ {
		resp, err := c.api.Execute(ctx, req)
		if err != nil {
			appErr := httpclient.ToAppError(ProviderClaude, err)
			span.SetAttributes(attribute.Int(observability.AttrAttempts, attempt))
			observability.EndSpan(span, appErr)
			return nil, appErr
		}
		c.usage.Add(resp.Usage)
		c.opts.recordCost(ctx, c.log, c.model, resp.Usage)

		if replies, ok := structuredReplies(resp.Content); ok {
			span.SetAttributes(attribute.Int(observability.AttrAttempts, attempt))
			observability.EndSpan(span, nil)
			return replies, nil
		}
		c.log.WithContext(ctx).Warn("completion has no JSON or code block pair",
			logger.Fields(logger.FieldAttempt, attempt, logger.FieldModel, c.model))
	}

	err := apperrors.MalformedResponse(ProviderClaude, c.opts.maxRetry)
	c.log.WithContext(ctx).Error("Could not get JSON after multiple attempts",
		logger.Fields(logger.FieldAttempt, c.opts.maxRetry))
	span.SetAttributes(attribute.Int(observability.AttrAttempts, c.opts.maxRetry))
	observability.EndSpan(span, err)
	return nil, err
}

// structuredReplies interprets a completion. A JSON object with a
// "responses" array yields one JSON text per element; any other object
// yields itself. Otherwise exactly two code blocks yield one
// {"snippet1", "snippet2"} object.
func structuredReplies(completion string) ([]string, bool) {
	if obj, ok := parse.ExtractJSON(completion); ok {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(obj, &fields); err == nil {
			var items []json.RawMessage
			if raw, found := fields["responses"]; found && json.Unmarshal(raw, &items) == nil {
				out := make([]string, len(items))
				for i, item := range items {
					out[i] = string(item)
				}
				return out, true
			}
		}
		return []string{string(obj)}, true
	}

	blocks := parse.ExtractCodeBlocks(completion)
	if len(blocks) != 2 {
		return nil, false
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(struct {
		Snippet1 string `json:"snippet1"`
		Snippet2 string `json:"snippet2"`
	}{blocks[0], blocks[1]})
	return []string{string(bytes.TrimRight(buf.Bytes(), "\n"))}, true
}
