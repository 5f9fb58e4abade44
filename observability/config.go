package observability

import "time"

// Config configures OTLP export for traces and metrics.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP collector host:port (e.g. "localhost:4318").
	Endpoint string
	Insecure bool
	// SampleRatio is the trace sampling ratio (0.0 to 1.0).
	SampleRatio float64
	// Interval is the metric export interval. Defaults to 15s.
	Interval time.Duration
}

// DefaultConfig returns development defaults.
func DefaultConfig(serviceName string) Config {
	return Config{
		ServiceName: serviceName,
		Environment: "development",
		Endpoint:    "localhost:4318",
		Insecure:    true,
		SampleRatio: 1.0,
		Interval:    15 * time.Second,
	}
}
