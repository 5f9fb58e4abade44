package validation

import (
	"strings"
	"testing"

	"github.com/plasma-umass/llm-utils/errors"
)

type chatSettings struct {
	Provider   string  `mapstructure:"provider" validate:"required,oneof=openai claude"`
	Model      string  `mapstructure:"model" validate:"nonblank"`
	MaxRetry   int     `mapstructure:"max_retry" validate:"gte=1,lte=20"`
	BaseURL    string  `json:"base_url" validate:"omitempty,url"`
	Temperature float64 `validate:"gte=0,lte=2"`
}

func TestValidate_Valid(t *testing.T) {
	s := chatSettings{Provider: "openai", Model: "gpt-4", MaxRetry: 5, BaseURL: "https://api.openai.com"}
	if err := Validate(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	s := chatSettings{Provider: "bard", Model: "  ", MaxRetry: 0, BaseURL: "not a url", Temperature: 3}
	err := Validate(s)
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("code = %s", appErr.Code)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok {
		t.Fatalf("expected []FieldError details, got %T", appErr.Details["fields"])
	}
	got := map[string]string{}
	for _, f := range fields {
		got[f.Field] = f.Message
	}
	want := map[string]string{
		"provider":    "must be one of: openai claude",
		"model":       "is required",
		"max_retry":   "must be greater than or equal to 1",
		"base_url":    "must be a valid URL",
		"temperature": "must be less than or equal to 2",
	}
	for field, msg := range want {
		if got[field] != msg {
			t.Errorf("field %s: got %q, want %q", field, got[field], msg)
		}
	}
	if !strings.Contains(appErr.Message, "provider: must be one of") {
		t.Errorf("message should list fields, got %q", appErr.Message)
	}
}

func TestValidate_NestedPath(t *testing.T) {
	type outer struct {
		Chat chatSettings `mapstructure:"chat"`
	}
	err := Validate(outer{Chat: chatSettings{Provider: "openai", Model: "m", MaxRetry: 99}})
	appErr, _ := errors.AsAppError(err)
	if appErr == nil {
		t.Fatal("expected error")
	}
	fields := appErr.Details["fields"].([]FieldError)
	if len(fields) != 1 || fields[0].Field != "chat.max_retry" {
		t.Errorf("unexpected fields %+v", fields)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"MaxRetry":  "max_retry",
		"Model":     "model",
		"baseURL":   "base_u_r_l",
		"":          "",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEngine(t *testing.T) {
	if Engine() == nil {
		t.Fatal("expected shared validator")
	}
}
