package tokens

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/plasma-umass/llm-utils/errors"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateCost(t *testing.T) {
	tests := []struct {
		in, out int
		model   string
		want    float64
	}{
		{1000, 2000, "gpt-3.5-turbo", 0.0055},
		{1000, 2000, "gpt-3.5-turbo-16k", 0.011},
		{1000, 2000, "gpt-4", 0.15},
		{1000, 2000, "gpt-4-32k", 0.3},
		{10000, 20000, "gpt-3.5-turbo-1106", 0.05},
		{10000, 2000, "gpt-4-1106-preview", 0.16},
		{0, 0, "gpt-4-0314", 0},
	}
	for _, tc := range tests {
		t.Run(tc.model, func(t *testing.T) {
			got, err := CalculateCost(tc.in, tc.out, tc.model)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !almostEqual(got, tc.want) {
				t.Errorf("CalculateCost(%d, %d, %q) = %v, want %v", tc.in, tc.out, tc.model, got, tc.want)
			}
		})
	}
}

func TestCalculateCostUnknownModel(t *testing.T) {
	_, err := CalculateCost(0, 0, "not-an-llm")
	if !errors.HasCode(err, errors.ErrCodeUnknownModel) {
		t.Fatalf("expected UNKNOWN_MODEL, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	want := `Unknown model "not-an-llm". Choose from: gpt-3.5-turbo-1106, gpt-3.5-turbo, gpt-3.5-turbo-0613, ` +
		`gpt-3.5-turbo-0301, gpt-3.5-turbo-16k, gpt-3.5-turbo-16k-0613, gpt-4-1106-preview, gpt-4, gpt-4-0314, ` +
		`gpt-4-32k, gpt-4-32k-0314.`
	if appErr.Message != want {
		t.Errorf("message = %q", appErr.Message)
	}
}

func TestPriceTableOrderAndOverride(t *testing.T) {
	table := NewPriceTable(
		ModelPrice{Name: "b", Price: Price{Input: 1, Output: 1}},
		ModelPrice{Name: "a", Price: Price{Input: 2, Output: 2}},
		ModelPrice{Name: "b", Price: Price{Input: 3, Output: 4}},
	)
	if got := strings.Join(table.Models(), ","); got != "b,a" {
		t.Errorf("order = %s", got)
	}
	p, ok := table.Lookup("b")
	if !ok || p.Input != 3 || p.Output != 4 {
		t.Errorf("override lost: %+v", p)
	}
	entries := table.Entries()
	if len(entries) != 2 || entries[0].Name != "b" {
		t.Errorf("entries = %+v", entries)
	}

	models := table.Models()
	models[0] = "mutated"
	if table.Models()[0] != "b" {
		t.Error("Models must return a copy")
	}
}

func TestDefaultPricingIsIndependent(t *testing.T) {
	p := DefaultPricing()
	p.Set("gpt-4", Price{Input: 99, Output: 99})
	got, _ := CalculateCost(1000, 0, "gpt-4")
	if !almostEqual(got, 0.03) {
		t.Errorf("mutating a copy changed the default table: %v", got)
	}
}

func TestLoadPricing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.yml")
	content := `
models:
  - name: gpt-4
    input: 0.02
    output: 0.04
  - name: gpt-4o
    input: 0.005
    output: 0.015
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadPricing(path)
	if err != nil {
		t.Fatalf("LoadPricing: %v", err)
	}
	models := table.Models()
	if models[len(models)-1] != "gpt-4o" {
		t.Errorf("new model should be appended, got %v", models)
	}
	cost, err := table.Cost(1000, 1000, "gpt-4")
	if err != nil || !almostEqual(cost, 0.06) {
		t.Errorf("override cost = %v, %v", cost, err)
	}
	if _, ok := table.Lookup("gpt-3.5-turbo"); !ok {
		t.Error("defaults should still be present")
	}
}

func TestLoadPricingErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadPricing(filepath.Join(dir, "missing.yml")); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("missing file: %v", err)
	}

	bad := filepath.Join(dir, "bad.yml")
	_ = os.WriteFile(bad, []byte("models: [{input: 1}]"), 0o644)
	if _, err := LoadPricing(bad); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nameless entry: %v", err)
	}

	neg := filepath.Join(dir, "neg.yml")
	_ = os.WriteFile(neg, []byte("models: [{name: x, input: -1, output: 0}]"), 0o644)
	if _, err := LoadPricing(neg); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("negative price: %v", err)
	}

	broken := filepath.Join(dir, "broken.yml")
	_ = os.WriteFile(broken, []byte("models: {"), 0o644)
	if _, err := LoadPricing(broken); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("invalid yaml: %v", err)
	}
}

func TestCountTokens(t *testing.T) {
	tests := []struct {
		model, text string
		want        int
	}{
		{"gpt-4", "hello world", 2},
		{"openai/gpt-4", "hello world", 2},
		{"gpt-3.5-turbo", "", 0},
		{"not-an-llm", "hello world", 0},
	}
	for _, tc := range tests {
		if got := CountTokens(tc.model, tc.text); got != tc.want {
			t.Errorf("CountTokens(%q, %q) = %d, want %d", tc.model, tc.text, got, tc.want)
		}
	}
}

func TestCountTokensSpecialTokensAsText(t *testing.T) {
	if got := CountTokens("gpt-4", "<|endoftext|>"); got <= 1 {
		t.Errorf("special token should be counted as plain text, got %d", got)
	}
}

func TestCountTokensConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if CountTokens("gpt-3.5-turbo", "hello world") != 2 {
				t.Error("unexpected count")
			}
		}()
	}
	wg.Wait()
}

func TestStripProvider(t *testing.T) {
	tests := map[string]string{
		"openai/gpt-4": "gpt-4",
		"a/b/c":        "b/c",
		"gpt-4":        "gpt-4",
		"/gpt-4":       "gpt-4",
	}
	for in, want := range tests {
		if got := StripProvider(in); got != want {
			t.Errorf("StripProvider(%q) = %q, want %q", in, got, want)
		}
	}
}
