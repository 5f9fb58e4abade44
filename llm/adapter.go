package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/plasma-umass/llm-utils/httpclient"
	"github.com/plasma-umass/llm-utils/logger"
	"github.com/plasma-umass/llm-utils/observability"
)

// Sentinel errors.
var (
	ErrNoDialect    = errors.New("llm: dialect is required")
	ErrNoSSEReader  = errors.New("llm: expected SSE stream but got no SSE reader")
	ErrNoStreamBody = errors.New("llm: expected stream body but got nil")
)

// Adapter is a config-driven LLM client that works with any provider via
// the Dialect pattern. The HTTP client carries auth, pacing, retry and
// error classification; the Dialect carries the provider mapping.
type Adapter struct {
	name      string
	http      *httpclient.Client
	dialect   Dialect
	model     string
	temp      float64
	maxTokens int
	metrics   *observability.Metrics
	log       *logger.Logger
}

// New creates an LLM adapter from config using the global dialect registry.
// The config's Dialect field must match a registered dialect name.
func New(cfg Config) (*Adapter, error) {
	cfg.applyDefaults()

	dialect, err := GetDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	return newAdapter(dialect, cfg)
}

// NewWithDialect creates an LLM adapter with an explicit dialect instance.
func NewWithDialect(dialect Dialect, cfg Config) (*Adapter, error) {
	if dialect == nil {
		return nil, ErrNoDialect
	}
	cfg.applyDefaults()
	if cfg.Name == "" {
		cfg.Name = dialect.Name() + "-llm"
	}
	return newAdapter(dialect, cfg)
}

func newAdapter(dialect Dialect, cfg Config) (*Adapter, error) {
	client, err := httpclient.New(httpclient.Config{
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		Auth:        cfg.Auth,
		Headers:     cfg.Headers,
		Retry:       cfg.Retry,
		RateLimiter: cfg.RateLimiter,
		Transport:   cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create http client: %w", err)
	}

	return &Adapter{
		name:      cfg.Name,
		http:      client,
		dialect:   dialect,
		model:     cfg.Model,
		temp:      cfg.Temperature,
		maxTokens: cfg.MaxTokens,
		metrics:   cfg.Metrics,
		log:       cfg.Logger.WithComponent(cfg.Name),
	}, nil
}

// Name returns the adapter name.
func (a *Adapter) Name() string { return a.name }

// IsAvailable checks if the LLM provider is reachable through the dialect's
// health endpoint. Dialects without one are assumed available.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	hp := a.dialect.HealthPath()
	if hp == "" {
		return true
	}
	_, err := a.http.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: hp})
	return err == nil
}

// Close releases resources.
func (a *Adapter) Close(_ context.Context) error { return nil }

// Execute sends a completion request and returns the full response.
func (a *Adapter) Execute(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	a.applyDefaults(&req)

	ctx, span := observability.StartSpan(ctx, observability.SpanLLMCompletion,
		attribute.String(observability.AttrProvider, a.dialect.Name()),
		attribute.String(observability.AttrModel, req.Model),
		attribute.Int(observability.AttrChoices, max(req.N, 1)),
	)
	start := time.Now()

	result, err := a.execute(ctx, req)

	a.metrics.RecordCompletion(ctx, a.dialect.Name(), req.Model,
		result.Usage.PromptTokens, result.Usage.CompletionTokens, time.Since(start), err)
	if err == nil {
		span.SetAttributes(
			attribute.Int(observability.AttrPromptTokens, result.Usage.PromptTokens),
			attribute.Int(observability.AttrCompletionTokens, result.Usage.CompletionTokens),
		)
	}
	observability.EndSpan(span, err)

	if err != nil {
		a.log.WithContext(ctx).WithError(err).Debug("completion failed",
			logger.Fields(logger.FieldModel, req.Model))
		return CompletionResponse{}, err
	}
	a.log.WithContext(ctx).Debug("completion done", logger.Fields(
		logger.FieldModel, req.Model,
		logger.FieldPromptTokens, result.Usage.PromptTokens,
		logger.FieldCompletionTokens, result.Usage.CompletionTokens,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return result, nil
}

func (a *Adapter) execute(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: build request: %w", err)
	}

	resp, err := a.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   a.dialect.ChatPath(req.Model),
		Body:   body,
	})
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: execute: %w", err)
	}

	result, err := a.dialect.ParseResponse(resp.Body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: parse response: %w", err)
	}
	if hp, ok := a.dialect.(HeaderUsageParser); ok && result.Usage.IsZero() {
		result.Usage = hp.ParseUsage(resp.Headers)
	}
	if result.Usage.TotalTokens == 0 {
		result.Usage.TotalTokens = result.Usage.PromptTokens + result.Usage.CompletionTokens
	}
	if result.Model == "" {
		result.Model = req.Model
	}
	if len(result.Choices) == 0 {
		result.Choices = []string{result.Content}
	}
	return *result, nil
}

// Stream sends a completion request and returns a channel of streamed chunks.
// The channel is closed when the stream ends or an error occurs.
func (a *Adapter) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	a.applyDefaults(&req)
	req.Stream = true

	ctx, span := observability.StartSpan(ctx, observability.SpanLLMStream,
		attribute.String(observability.AttrProvider, a.dialect.Name()),
		attribute.String(observability.AttrModel, req.Model),
	)

	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		err = fmt.Errorf("llm: build stream request: %w", err)
		observability.EndSpan(span, err)
		return nil, err
	}

	streamResp, err := a.http.DoStream(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   a.dialect.ChatPath(req.Model),
		Body:   body,
	})
	if err != nil {
		err = fmt.Errorf("llm: stream: %w", err)
		observability.EndSpan(span, err)
		return nil, err
	}

	ch := make(chan StreamChunk)
	go func() {
		err := a.readStream(ctx, streamResp, ch)
		observability.EndSpan(span, err)
	}()
	return ch, nil
}

// Dialect returns the dialect used by this adapter.
func (a *Adapter) Dialect() Dialect { return a.dialect }

// Model returns the adapter's default model.
func (a *Adapter) Model() string { return a.model }

// HTTP returns the underlying HTTP client for advanced use cases.
func (a *Adapter) HTTP() *httpclient.Client { return a.http }

func (a *Adapter) applyDefaults(req *CompletionRequest) {
	if req.Model == "" {
		req.Model = a.model
	}
	if req.Temperature == 0 {
		req.Temperature = a.temp
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = a.maxTokens
	}
}
