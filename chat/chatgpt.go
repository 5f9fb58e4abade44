package chat

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/plasma-umass/llm-utils/httpclient"
	"github.com/plasma-umass/llm-utils/llm"
	"github.com/plasma-umass/llm-utils/llm/openai"
	"github.com/plasma-umass/llm-utils/logger"
	"github.com/plasma-umass/llm-utils/observability"
	"github.com/plasma-umass/llm-utils/resilience"
)

const (
	// DefaultChatGPTModel is the model ChatGPT uses unless overridden.
	DefaultChatGPTModel = "gpt-4-0314"
	// DefaultMaxAttempts bounds ChatGPT transport retries.
	DefaultMaxAttempts = 5

	shortRetryWait = time.Second
	longRetryWait  = 5 * time.Second
)

// ChatGPT talks to the OpenAI Chat Completions API.
type ChatGPT struct {
	opts  options
	model string
	api   llm.Completer
	log   *logger.Logger
	usage llm.UsageTracker
}

var _ ChatAPI = (*ChatGPT)(nil)

// NewChatGPT creates a ChatGPT client. The API key defaults to
// $OPENAI_API_KEY.
func NewChatGPT(opts ...Option) (*ChatGPT, error) {
	o := newOptions(opts)
	if o.model == "" {
		o.model = DefaultChatGPTModel
	}
	if o.apiKey == "" {
		o.apiKey = os.Getenv("OPENAI_API_KEY")
	}

	api := o.completer
	if api == nil {
		adapter, err := openai.New(o.apiKey, o.llmConfig())
		if err != nil {
			return nil, err
		}
		api = adapter
	}
	return &ChatGPT{
		opts:  o,
		model: o.model,
		api:   api,
		log:   o.log.WithComponent("chatgpt"),
	}, nil
}

// Name returns "openai".
func (c *ChatGPT) Name() string { return ProviderOpenAI }

// Model returns the model in use.
func (c *ChatGPT) Model() string { return c.model }

// AssistantMessage returns a system-role message.
func (c *ChatGPT) AssistantMessage(msg string) llm.Message {
	return llm.Message{Role: llm.RoleSystem, Content: msg}
}

// UserMessage returns a user-role message.
func (c *ChatGPT) UserMessage(msg string) llm.Message {
	return llm.Message{Role: llm.RoleUser, Content: msg}
}

// Usage returns the tokens consumed so far.
func (c *ChatGPT) Usage() llm.Usage { return c.usage.Snapshot() }

// SendMessage requests n choices for conversation. Rate limits and timeouts
// are retried after 1s, server and connection failures after 5s, up to the
// configured attempt bound. Other failures return at once.
func (c *ChatGPT) SendMessage(ctx context.Context, conversation []llm.Message, n int) ([]string, error) {
	if n < 1 {
		n = 1
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanChatSend,
		attribute.String(observability.AttrProvider, ProviderOpenAI),
		attribute.String(observability.AttrModel, c.model),
		attribute.Int(observability.AttrChoices, n),
	)

	attempts := 0
	resp, err := resilience.Retry(ctx, resilience.RetryConfig{
		MaxAttempts: c.opts.maxAttempts,
		RetryIf:     retryableChatGPT,
		Backoff:     chatGPTBackoff,
		Sleep:       c.opts.sleep,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			c.log.WithContext(ctx).Warn(retryReason(err), logger.Fields(
				logger.FieldAttempt, attempt,
				logger.FieldBackoff, wait.Milliseconds(),
				logger.FieldError, err.Error(),
			))
		},
	}, func() (llm.CompletionResponse, error) {
		attempts++
		return c.api.Execute(ctx, llm.CompletionRequest{
			Model:    c.model,
			Messages: conversation,
			N:        n,
		})
	})
	span.SetAttributes(attribute.Int(observability.AttrAttempts, attempts))
	if err != nil {
		appErr := httpclient.ToAppError(ProviderOpenAI, err)
		observability.EndSpan(span, appErr)
		return nil, appErr
	}
	observability.EndSpan(span, nil)

	c.usage.Add(resp.Usage)
	c.opts.recordCost(ctx, c.log, c.model, resp.Usage)

	choices := resp.Choices
	if len(choices) == 0 {
		choices = []string{resp.Content}
	}
	return choices, nil
}

func retryableChatGPT(err error) bool {
	return httpclient.IsRateLimit(err) || httpclient.IsTimeout(err) ||
		httpclient.IsServerError(err) || httpclient.IsConnection(err)
}

func chatGPTBackoff(_ int, err error) time.Duration {
	if httpclient.IsRateLimit(err) || httpclient.IsTimeout(err) {
		return shortRetryWait
	}
	return longRetryWait
}

func retryReason(err error) string {
	switch {
	case httpclient.IsRateLimit(err):
		return "rate limit!"
	case httpclient.IsTimeout(err):
		return "TIMEOUT"
	}
	return "Other API error"
}
