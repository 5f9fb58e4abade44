// Package chat provides conversation-level chat APIs over the llm adapters:
// ChatGPT on the OpenAI API and Claude on AWS Bedrock, plus a response
// cache and stateful sessions.
package chat

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	apperrors "github.com/plasma-umass/llm-utils/errors"
	"github.com/plasma-umass/llm-utils/llm"
	"github.com/plasma-umass/llm-utils/logger"
	"github.com/plasma-umass/llm-utils/observability"
	"github.com/plasma-umass/llm-utils/resilience"
	"github.com/plasma-umass/llm-utils/tokens"
	"github.com/plasma-umass/llm-utils/validation"
)

// Provider names accepted by FromName and Config.Provider.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// ChatAPI sends conversations to a chat model.
type ChatAPI interface {
	// Name returns the provider name.
	Name() string
	// AssistantMessage wraps msg in the provider's instruction role.
	AssistantMessage(msg string) llm.Message
	// UserMessage wraps msg in the provider's user role.
	UserMessage(msg string) llm.Message
	// SendMessage returns up to n replies to conversation.
	SendMessage(ctx context.Context, conversation []llm.Message, n int) ([]string, error)
	// Usage returns the tokens consumed so far.
	Usage() llm.Usage
}

// Config builds a ChatAPI with New.
type Config struct {
	Provider        string        `mapstructure:"provider" validate:"required,oneof=openai claude OpenAI Claude"`
	Model           string        `mapstructure:"model"`
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url" validate:"omitempty,url"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key" validate:"required_with=AccessKeyID"`
	MaxRetry        int           `mapstructure:"max_retry" validate:"gte=0"`
	MaxAttempts     int           `mapstructure:"max_attempts" validate:"gte=0"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// Validate checks the config fields.
func (c Config) Validate() error { return validation.Validate(c) }

// options collects the settings shared by every provider.
type options struct {
	model       string
	apiKey      string
	baseURL     string
	region      string
	creds       aws.CredentialsProvider
	maxAttempts int
	maxRetry    int
	timeout     time.Duration
	completer   llm.Completer
	transport   http.RoundTripper
	log         *logger.Logger
	metrics     *observability.Metrics
	pricing     *tokens.PriceTable
	sleep       func(context.Context, time.Duration) error
}

// Option configures a ChatAPI.
type Option func(*options)

// WithModel overrides the provider's default model.
func WithModel(model string) Option { return func(o *options) { o.model = model } }

// WithAPIKey sets the OpenAI API key. Defaults to $OPENAI_API_KEY.
func WithAPIKey(key string) Option { return func(o *options) { o.apiKey = key } }

// WithBaseURL points the provider at another endpoint.
func WithBaseURL(url string) Option { return func(o *options) { o.baseURL = url } }

// WithRegion sets the AWS region for Claude.
func WithRegion(region string) Option { return func(o *options) { o.region = region } }

// WithCredentials sets the AWS credentials for Claude. Defaults to the AWS
// default chain.
func WithCredentials(creds aws.CredentialsProvider) Option {
	return func(o *options) { o.creds = creds }
}

// WithMaxAttempts bounds ChatGPT transport retries.
func WithMaxAttempts(n int) Option { return func(o *options) { o.maxAttempts = n } }

// WithMaxRetry bounds Claude's malformed-response retries.
func WithMaxRetry(n int) Option { return func(o *options) { o.maxRetry = n } }

// WithTimeout bounds each provider request.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithCompleter replaces the provider adapter, e.g. with a fake in tests.
func WithCompleter(c llm.Completer) Option { return func(o *options) { o.completer = c } }

// WithTransport overrides the HTTP transport of the provider adapter.
func WithTransport(rt http.RoundTripper) Option { return func(o *options) { o.transport = rt } }

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(l *logger.Logger) Option { return func(o *options) { o.log = l } }

// WithMetrics records token, latency and cost metrics.
func WithMetrics(m *observability.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithPricing sets the table used for cost metrics. Defaults to DefaultPricing.
func WithPricing(t *tokens.PriceTable) Option { return func(o *options) { o.pricing = t } }

// WithSleep replaces the wait between retries.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(o *options) { o.sleep = fn }
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.GetGlobalLogger()
	}
	if o.pricing == nil {
		o.pricing = tokens.DefaultPricing()
	}
	if o.sleep == nil {
		o.sleep = resilience.SleepContext
	}
	if o.maxAttempts <= 0 {
		o.maxAttempts = DefaultMaxAttempts
	}
	if o.maxRetry <= 0 {
		o.maxRetry = DefaultMaxRetry
	}
	return o
}

func (o options) llmConfig() llm.Config {
	return llm.Config{
		Model:     o.model,
		BaseURL:   o.baseURL,
		Timeout:   o.timeout,
		Transport: o.transport,
		Metrics:   o.metrics,
		Logger:    o.log,
	}
}

// FromName builds the ChatAPI named by name, case-insensitively. For
// "claude", malformedMaxRetry bounds the malformed-response retries.
func FromName(ctx context.Context, name string, malformedMaxRetry int, opts ...Option) (ChatAPI, error) {
	switch strings.ToLower(name) {
	case ProviderOpenAI:
		return NewChatGPT(opts...)
	case ProviderClaude:
		return NewClaude(ctx, append(append([]Option(nil), opts...), WithMaxRetry(malformedMaxRetry))...)
	}
	return nil, apperrors.UnknownModel(name, []string{ProviderOpenAI, ProviderClaude})
}

// New validates cfg and builds the configured ChatAPI. opts are applied
// after the config fields.
func New(ctx context.Context, cfg Config, opts ...Option) (ChatAPI, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := []Option{
		WithModel(cfg.Model),
		WithAPIKey(cfg.APIKey),
		WithBaseURL(cfg.BaseURL),
		WithRegion(cfg.Region),
		WithMaxAttempts(cfg.MaxAttempts),
		WithTimeout(cfg.Timeout),
	}
	if cfg.AccessKeyID != "" {
		base = append(base, WithCredentials(staticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey)))
	}
	return FromName(ctx, cfg.Provider, cfg.MaxRetry, append(base, opts...)...)
}

// recordCost reports the spend of one call when model is priced.
func (o options) recordCost(ctx context.Context, log *logger.Logger, model string, u llm.Usage) {
	usd, err := o.pricing.Cost(u.PromptTokens, u.CompletionTokens, model)
	if err != nil {
		return
	}
	o.metrics.RecordCost(ctx, model, usd)
	log.Debug("chat cost", logger.Fields(logger.FieldModel, model, logger.FieldCostUSD, usd))
}
