package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

type fakeFS struct {
	files  map[string]bool
	loaded []string
}

func (f *fakeFS) Exists(path string) bool { return f.files[path] }
func (f *fakeFS) LoadEnv(path string) error {
	f.loaded = append(f.loaded, path)
	return nil
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	var cfg ServiceConfig
	cfg.ApplyDefaults()
	if cfg.Name != "llm-utils" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Environment != "development" || !cfg.Debug {
		t.Errorf("expected development with debug, got %q debug=%v", cfg.Environment, cfg.Debug)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug logging in development, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.ServiceName != "llm-utils" {
		t.Errorf("logging service name = %q", cfg.Logging.ServiceName)
	}

	prod := ServiceConfig{Name: "svc", Environment: "production"}
	prod.ApplyDefaults()
	if prod.Debug {
		t.Error("expected debug=false for production")
	}
	if prod.Logging.Level != "info" {
		t.Errorf("expected info logging, got %q", prod.Logging.Level)
	}
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ServiceConfig
		errMsg string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"bad environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
		{"bad logging", ServiceConfig{Name: "svc", Environment: "production"}, "config.logging"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.Logging.ApplyDefaults()
			if tc.name == "bad logging" {
				cfg.Logging.Level = "loud"
			}
			err := cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Fatalf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestSettingsDefaultsAndValidate(t *testing.T) {
	var s Settings
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if s.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr = %q", s.Server.Addr())
	}
	if s.Chat.MaxRetry != 5 || s.Chat.MaxAttempts != 5 {
		t.Errorf("chat retry defaults = %d/%d", s.Chat.MaxRetry, s.Chat.MaxAttempts)
	}
	if s.Chat.Enabled() {
		t.Error("chat should be disabled without a provider")
	}
	if s.Observability.SampleRatio != 1 {
		t.Errorf("SampleRatio = %v", s.Observability.SampleRatio)
	}
}

func TestSettingsValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		field  string
	}{
		{"bad port", func(s *Settings) { s.Server.Port = 70000 }, "server.port"},
		{"bad provider", func(s *Settings) { s.Chat.Provider = "bard" }, "chat.provider"},
		{"bad base url", func(s *Settings) { s.Chat.BaseURL = "::nope" }, "chat.base_url"},
		{"redis without addr", func(s *Settings) { s.Cache.Backend = "redis" }, "cache.addr"},
		{"otel without endpoint", func(s *Settings) { s.Observability.Enabled = true }, "observability.endpoint"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var s Settings
			s.ApplyDefaults()
			tc.mutate(&s)
			err := s.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.field) {
				t.Fatalf("expected error naming %q, got %v", tc.field, err)
			}
		})
	}
}

func TestLoadConfigFromYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
name: llm-utils-test
environment: staging
server:
  port: 9090
  read_timeout: 3s
chat:
  provider: claude
  model: anthropic.claude-v2
  max_retry: 3
pricing_file: prices.yml
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHAT_REGION", "eu-central-1")
	t.Setenv("SERVER_HOST", "127.0.0.1")

	var s Settings
	if err := LoadConfig("llm-utils", &s, WithConfigFile(path), WithEnvFile(filepath.Join(dir, "missing.env"))); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if s.Name != "llm-utils-test" || s.Environment != "staging" {
		t.Errorf("service fields = %q/%q", s.Name, s.Environment)
	}
	if s.Server.Port != 9090 || s.Server.ReadTimeout != 3*time.Second {
		t.Errorf("server = %+v", s.Server)
	}
	if s.Server.Host != "127.0.0.1" {
		t.Errorf("env override for server.host missing, got %q", s.Server.Host)
	}
	if s.Chat.Provider != "claude" || s.Chat.MaxRetry != 3 || s.Chat.Region != "eu-central-1" {
		t.Errorf("chat = %+v", s.Chat)
	}
	if s.PricingFile != "prices.yml" {
		t.Errorf("PricingFile = %q", s.PricingFile)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	var s Settings
	err := LoadConfig("llm-utils", &s, WithConfigFile(filepath.Join(t.TempDir(), "nope.yml")))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadConfigDiscoversEnvFile(t *testing.T) {
	fs := &fakeFS{files: map[string]bool{filepath.Join("config", ".env"): true}}
	var s Settings
	if err := LoadConfig("llm-utils", &s, WithFileSystem(fs)); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !slices.Equal(fs.loaded, []string{filepath.Join("config", ".env")}) {
		t.Errorf("loaded env files = %v", fs.loaded)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("CHAT_MAX_RETRY")
	for _, want := range []string{"chat_max_retry", "chat.max.retry", "chat.max_retry", "chat_max.retry"} {
		if !slices.Contains(got, want) {
			t.Errorf("missing variant %q in %v", want, got)
		}
	}
	if got := envKeyVariants("HOME"); !slices.Equal(got, []string{"home"}) {
		t.Errorf("single part = %v", got)
	}
}
