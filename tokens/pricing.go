package tokens

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/plasma-umass/llm-utils/errors"
)

// Price is the USD cost per 1000 tokens.
type Price struct {
	Input  float64 `yaml:"input" json:"input"`
	Output float64 `yaml:"output" json:"output"`
}

// ModelPrice is a named price table entry.
type ModelPrice struct {
	Name  string `yaml:"name" json:"model"`
	Price `yaml:",inline"`
}

// PriceTable maps model names to prices, remembering insertion order.
type PriceTable struct {
	order  []string
	prices map[string]Price
}

// NewPriceTable builds a table from entries; later duplicates override
// earlier ones in place.
func NewPriceTable(entries ...ModelPrice) *PriceTable {
	t := &PriceTable{prices: make(map[string]Price, len(entries))}
	for _, e := range entries {
		t.Set(e.Name, e.Price)
	}
	return t
}

// Set adds or replaces the price for model.
func (t *PriceTable) Set(model string, p Price) {
	if _, ok := t.prices[model]; !ok {
		t.order = append(t.order, model)
	}
	t.prices[model] = p
}

// Lookup returns the price for model.
func (t *PriceTable) Lookup(model string) (Price, bool) {
	p, ok := t.prices[model]
	return p, ok
}

// Models returns the model names in table order.
func (t *PriceTable) Models() []string {
	return slices.Clone(t.order)
}

// Entries returns the table in order.
func (t *PriceTable) Entries() []ModelPrice {
	out := make([]ModelPrice, 0, len(t.order))
	for _, m := range t.order {
		out = append(out, ModelPrice{Name: m, Price: t.prices[m]})
	}
	return out
}

// Cost returns the USD cost of a request. Unknown models yield an
// UNKNOWN_MODEL error listing the known models in order.
func (t *PriceTable) Cost(inputTokens, outputTokens int, model string) (float64, error) {
	p, ok := t.prices[model]
	if !ok {
		return 0, errors.UnknownModel(model, t.order)
	}
	return float64(inputTokens)/1000*p.Input + float64(outputTokens)/1000*p.Output, nil
}

// OpenAI pricing per 1000 tokens as of November 9, 2023.
var defaultPrices = []ModelPrice{
	{"gpt-3.5-turbo-1106", Price{0.001, 0.002}},
	{"gpt-3.5-turbo", Price{0.0015, 0.002}},
	{"gpt-3.5-turbo-0613", Price{0.0015, 0.002}},
	{"gpt-3.5-turbo-0301", Price{0.0015, 0.002}},
	{"gpt-3.5-turbo-16k", Price{0.003, 0.004}},
	{"gpt-3.5-turbo-16k-0613", Price{0.003, 0.004}},
	{"gpt-4-1106-preview", Price{0.01, 0.03}},
	{"gpt-4", Price{0.03, 0.06}},
	{"gpt-4-0314", Price{0.03, 0.06}},
	{"gpt-4-32k", Price{0.06, 0.12}},
	{"gpt-4-32k-0314", Price{0.06, 0.12}},
}

var defaultTable = NewPriceTable(defaultPrices...)

// DefaultPricing returns a fresh copy of the built-in OpenAI table.
func DefaultPricing() *PriceTable {
	return NewPriceTable(defaultPrices...)
}

// CalculateCost prices a request against the built-in table.
func CalculateCost(inputTokens, outputTokens int, model string) (float64, error) {
	return defaultTable.Cost(inputTokens, outputTokens, model)
}

type pricingFile struct {
	Models []ModelPrice `yaml:"models"`
}

// LoadPricing reads a YAML file of the form
//
//	models:
//	  - name: gpt-4o
//	    input: 0.005
//	    output: 0.015
//
// and applies it over the default table in file order.
func LoadPricing(path string) (*PriceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("pricing file", path).WithCause(err)
		}
		return nil, fmt.Errorf("read pricing file: %w", err)
	}
	var f pricingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.InvalidInput("pricing_file", err.Error()).WithCause(err)
	}
	t := DefaultPricing()
	for i, m := range f.Models {
		if m.Name == "" {
			return nil, errors.InvalidInput("pricing_file", fmt.Sprintf("models[%d] has no name", i))
		}
		if m.Input < 0 || m.Output < 0 {
			return nil, errors.InvalidInput("pricing_file", fmt.Sprintf("models[%d] (%s) has a negative price", i, m.Name))
		}
		t.Set(m.Name, m.Price)
	}
	return t, nil
}
