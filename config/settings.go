package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/plasma-umass/llm-utils/validation"
)

// Settings is the root configuration of the llm-utils binary.
type Settings struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        ServerSettings        `yaml:"server" mapstructure:"server"`
	Chat          ChatSettings          `yaml:"chat" mapstructure:"chat"`
	Cache         CacheSettings         `yaml:"cache" mapstructure:"cache"`
	Observability ObservabilitySettings `yaml:"observability" mapstructure:"observability"`

	// PricingFile optionally points at a YAML price table merged over the defaults.
	PricingFile string `yaml:"pricing_file" mapstructure:"pricing_file"`
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	// MaxBodyBytes bounds request bodies; 0 means the default.
	MaxBodyBytes int64 `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"gte=0"`
}

// Addr returns host:port.
func (s ServerSettings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ChatSettings selects and configures the chat provider. An empty Provider
// disables the /v1/chat endpoint.
type ChatSettings struct {
	Provider string `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=openai claude OpenAI Claude"`
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	Region   string `yaml:"region" mapstructure:"region"`

	// AccessKeyID and SecretAccessKey select static AWS credentials for
	// claude. Empty uses the AWS default credential chain.
	AccessKeyID     string `yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" mapstructure:"secret_access_key"`

	MaxRetry    int           `yaml:"max_retry" mapstructure:"max_retry" validate:"gte=0,lte=50"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=0,lte=50"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	CacheTTL    time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// Enabled reports whether a chat provider is configured.
func (c ChatSettings) Enabled() bool { return c.Provider != "" }

// CacheSettings configures the chat response cache.
type CacheSettings struct {
	// Backend is "memory", "redis" or empty for no cache.
	Backend   string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=memory redis"`
	Addr      string `yaml:"addr" mapstructure:"addr" validate:"required_if=Backend redis"`
	Password  string `yaml:"password" mapstructure:"password"`
	DB        int    `yaml:"db" mapstructure:"db" validate:"gte=0"`
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// ObservabilitySettings configures OpenTelemetry export.
type ObservabilitySettings struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint    string  `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure    bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio" mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}

// ApplyDefaults fills every unset field.
func (s *Settings) ApplyDefaults() {
	s.ServiceConfig.ApplyDefaults()

	if s.Server.Host == "" {
		s.Server.Host = "0.0.0.0"
	}
	if s.Server.Port == 0 {
		s.Server.Port = 8080
	}
	if s.Server.ReadTimeout == 0 {
		s.Server.ReadTimeout = 15 * time.Second
	}
	if s.Server.WriteTimeout == 0 {
		s.Server.WriteTimeout = 5 * time.Minute
	}
	if s.Server.ShutdownTimeout == 0 {
		s.Server.ShutdownTimeout = 10 * time.Second
	}
	if s.Server.MaxBodyBytes == 0 {
		s.Server.MaxBodyBytes = 4 << 20
	}

	if s.Chat.MaxRetry == 0 {
		s.Chat.MaxRetry = 5
	}
	if s.Chat.MaxAttempts == 0 {
		s.Chat.MaxAttempts = 5
	}
	if s.Chat.Timeout == 0 {
		s.Chat.Timeout = 2 * time.Minute
	}

	if s.Cache.KeyPrefix == "" {
		s.Cache.KeyPrefix = "llm-utils:chat:"
	}
	if s.Observability.SampleRatio == 0 {
		s.Observability.SampleRatio = 1
	}
}

// Validate checks the service fields, then every tagged field.
func (s *Settings) Validate() error {
	if err := s.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(s); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
