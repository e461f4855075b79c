package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLegacyTourPrefix precedes the tour ID in notes of debts written
// before debts carried a tourId field.
const DefaultLegacyTourPrefix = "Tour ID: "

// Rules holds the ledger rules that vary between installations.
type Rules struct {
	DefaultCurrency       string   `yaml:"default_currency"`
	GenericPaymentPhrases []string `yaml:"generic_payment_phrases"`
	LegacyTourPrefix      string   `yaml:"legacy_tour_reference_prefix"`
}

// DefaultRules returns the built-in rules.
func DefaultRules() *Rules {
	return &Rules{
		DefaultCurrency: "TRY",
		GenericPaymentPhrases: []string{
			"genel ödeme",
			"genel odeme",
			"general payment",
			"cari ödeme",
		},
		LegacyTourPrefix: DefaultLegacyTourPrefix,
	}
}

// LoadRules reads rules from a YAML file. A missing file yields the built-in
// rules; fields left out of the file keep their built-in values.
func LoadRules(path string) (*Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return rules, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var parsed Rules
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if code := strings.ToUpper(strings.TrimSpace(parsed.DefaultCurrency)); code != "" {
		rules.DefaultCurrency = code
	}
	if parsed.GenericPaymentPhrases != nil {
		rules.GenericPaymentPhrases = parsed.GenericPaymentPhrases
	}
	if parsed.LegacyTourPrefix != "" {
		rules.LegacyTourPrefix = parsed.LegacyTourPrefix
	}

	return rules, nil
}

// Override applies settings that take precedence over the rules file.
func (r *Rules) Override(cfg *Config) *Rules {
	if cfg != nil && cfg.DefaultCurrency != "" {
		r.DefaultCurrency = cfg.DefaultCurrency
	}
	return r
}
