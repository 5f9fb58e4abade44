package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/plasma-umass/llm-utils/logger"
)

// InitMeter installs a global meter provider exporting over OTLP/HTTP.
// The caller must Shutdown the returned provider.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", interval.String(),
	))
	return mp, nil
}

// Meter returns the llm-utils meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics holds the llm-utils instruments.
type Metrics struct {
	tokens          metric.Int64Counter
	llmDuration     metric.Float64Histogram
	llmErrors       metric.Int64Counter
	cost            metric.Float64Counter
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var err error

	if m.tokens, err = meter.Int64Counter("llm.tokens",
		metric.WithDescription("Tokens consumed by LLM calls, by direction"),
		metric.WithUnit("{token}"),
	); err != nil {
		return nil, fmt.Errorf("creating llm.tokens counter: %w", err)
	}
	if m.llmDuration, err = meter.Float64Histogram("llm.request.duration",
		metric.WithDescription("Duration of LLM calls in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating llm.request.duration histogram: %w", err)
	}
	if m.llmErrors, err = meter.Int64Counter("llm.errors",
		metric.WithDescription("Failed LLM calls"),
	); err != nil {
		return nil, fmt.Errorf("creating llm.errors counter: %w", err)
	}
	if m.cost, err = meter.Float64Counter("llm.cost",
		metric.WithDescription("Estimated spend in USD"),
		metric.WithUnit("USD"),
	); err != nil {
		return nil, fmt.Errorf("creating llm.cost counter: %w", err)
	}
	if m.requestTotal, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("HTTP requests served"),
	); err != nil {
		return nil, fmt.Errorf("creating http.server.requests counter: %w", err)
	}
	if m.requestDuration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating http.server.duration histogram: %w", err)
	}
	return &m, nil
}

// RecordCompletion records one LLM call. A nil receiver is a no-op.
func (m *Metrics) RecordCompletion(ctx context.Context, provider, model string, promptTokens, completionTokens int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	base := []attribute.KeyValue{
		attribute.String("provider", provider),
		attribute.String("model", model),
	}
	m.llmDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(base...))
	if err != nil {
		m.llmErrors.Add(ctx, 1, metric.WithAttributes(base...))
		return
	}
	if promptTokens > 0 {
		m.tokens.Add(ctx, int64(promptTokens), metric.WithAttributes(append(base, attribute.String("direction", "input"))...))
	}
	if completionTokens > 0 {
		m.tokens.Add(ctx, int64(completionTokens), metric.WithAttributes(append(base, attribute.String("direction", "output"))...))
	}
}

// RecordCost adds an estimated spend for model. A nil receiver is a no-op.
func (m *Metrics) RecordCost(ctx context.Context, model string, usd float64) {
	if m == nil || usd <= 0 {
		return
	}
	m.cost.Add(ctx, usd, metric.WithAttributes(attribute.String("model", model)))
}

// RecordRequest records one served HTTP request. A nil receiver is a no-op.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
	))
}
