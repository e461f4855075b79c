package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRulesMissingFile(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "rules.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)

	rules, err = LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLegacyTourPrefix, rules.LegacyTourPrefix)
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
default_currency: eur
generic_payment_phrases:
  - "Genel Ödeme"
  - "avans"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)

	assert.Equal(t, "EUR", rules.DefaultCurrency)
	assert.Equal(t, []string{"Genel Ödeme", "avans"}, rules.GenericPaymentPhrases)
	assert.Equal(t, DefaultLegacyTourPrefix, rules.LegacyTourPrefix)
}

func TestLoadRulesInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generic_payment_phrases: [unclosed"), 0o644))

	_, err := LoadRules(path)
	assert.Error(t, err)
}

func TestRulesOverride(t *testing.T) {
	rules := DefaultRules().Override(&Config{DefaultCurrency: "USD"})
	assert.Equal(t, "USD", rules.DefaultCurrency)

	rules = DefaultRules().Override(&Config{})
	assert.Equal(t, "TRY", rules.DefaultCurrency)
}
