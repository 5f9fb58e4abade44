package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newJSONLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := &Config{Level: level, Format: FormatJSON}
	return NewWithWriter(cfg, "llm-utils", &buf), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid json log line %q: %v", line, err)
	}
	return m
}

func TestNewWithWriter_JSONFields(t *testing.T) {
	l, buf := newJSONLogger(t, "info")
	l.WithComponent("chat").Info("completion received", Fields(FieldModel, "gpt-4", FieldPromptTokens, 12))

	m := decodeLine(t, buf)
	if m["message"] != "completion received" {
		t.Errorf("message = %v", m["message"])
	}
	if m[FieldComponent] != "chat" {
		t.Errorf("component = %v", m[FieldComponent])
	}
	if m[FieldModel] != "gpt-4" {
		t.Errorf("model = %v", m[FieldModel])
	}
	if m[FieldPromptTokens] != float64(12) {
		t.Errorf("prompt_tokens = %v", m[FieldPromptTokens])
	}
	if m["service"] != "llm-utils" {
		t.Errorf("service = %v", m["service"])
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	l, buf := newJSONLogger(t, "warn")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
}

func TestNewWithWriter_InvalidLevel(t *testing.T) {
	l, buf := newJSONLogger(t, "nonsense")
	l.Info("still logs")
	if !strings.Contains(buf.String(), "still logs") {
		t.Error("invalid level should fall back to info")
	}
}

func TestWithContext(t *testing.T) {
	l, buf := newJSONLogger(t, "info")
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithSessionID(ctx, "sess-1")
	l.WithContext(ctx).Info("hi")

	m := decodeLine(t, buf)
	if m[FieldRequestID] != "req-1" || m[FieldSessionID] != "sess-1" {
		t.Errorf("expected ids from context, got %v", m)
	}
	if RequestIDFromContext(ctx) != "req-1" {
		t.Error("RequestIDFromContext mismatch")
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Error("expected empty request id")
	}
}

func TestWithError(t *testing.T) {
	l, buf := newJSONLogger(t, "info")
	l.WithError(errors.New("boom")).Error("failed")
	m := decodeLine(t, buf)
	if m["error"] != "boom" {
		t.Errorf("error = %v", m["error"])
	}
}

func TestWithFields(t *testing.T) {
	l, buf := newJSONLogger(t, "info")
	l.WithFields(map[string]any{FieldProvider: "claude"}).Info("x")
	if decodeLine(t, buf)[FieldProvider] != "claude" {
		t.Error("expected provider field")
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: FormatConsole, NoColor: true}, "llm-utils", &buf)
	l.Info("hello", Fields("k", "v"))
	out := buf.String()
	if !strings.Contains(out, "[LLM][INF]") {
		t.Errorf("expected service and level tags, got %q", out)
	}
	if !strings.Contains(out, "k:") {
		t.Errorf("expected field name formatting, got %q", out)
	}
}

func TestNop(t *testing.T) {
	Nop().Info("nothing")
}

func TestGlobalLogger(t *testing.T) {
	prev := globalLogger
	t.Cleanup(func() { globalLogger = prev })

	l, buf := newJSONLogger(t, "debug")
	SetGlobalLogger(l)
	Debug("d")
	Info("i")
	Warn("w")
	Error("e")
	WithComponent("server").Info("c")
	if got := strings.Count(buf.String(), "\n"); got != 5 {
		t.Errorf("expected 5 lines, got %d", got)
	}

	globalLogger = nil
	if GetGlobalLogger() == nil {
		t.Error("expected default logger to be created")
	}
}

func TestInit(t *testing.T) {
	prev := globalLogger
	t.Cleanup(func() { globalLogger = prev })
	Init(Config{Level: "debug", Format: FormatJSON, ServiceName: "llm-utils"})
	if GetGlobalLogger().service != "llm-utils" {
		t.Errorf("service = %q", GetGlobalLogger().service)
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" || !cfg.Timestamp {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json", Output: "stdout"}, false},
		{"bad level", Config{Level: "loud", Format: "json", Output: "stdout"}, true},
		{"bad format", Config{Level: "info", Format: "xml", Output: "stdout"}, true},
		{"bad output", Config{Level: "info", Format: "json", Output: "file"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if len(m) != 2 || m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestErrorAndDurationFields(t *testing.T) {
	ef := ErrorFields("count", errors.New("bad"))
	if ef[FieldOperation] != "count" || ef[FieldError] != "bad" {
		t.Errorf("ErrorFields = %v", ef)
	}
	df := DurationFields("send", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("DurationFields = %v", df)
	}
	cf := CallFields("openai", "gpt-4", 2)
	if cf[FieldAttempt] != 2 || cf[FieldProvider] != "openai" {
		t.Errorf("CallFields = %v", cf)
	}
}
