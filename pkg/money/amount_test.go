package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain integer", "1000", "1000"},
		{"machine decimal", "1234.5", "1234.5"},
		{"turkish format", "1.234,56", "1234.56"},
		{"english format", "1,234.56", "1234.56"},
		{"decimal comma only", "99,9", "99.9"},
		{"comma thousands", "1,500", "1500"},
		{"dot thousands", "1.500", "1500"},
		{"dot thousands negative", "-12.500", "-12500"},
		{"dot fraction after zero", "0.500", "0.5"},
		{"comma fraction after zero", "0,500", "0.5"},
		{"long integer keeps dot fraction", "1234.567", "1234.567"},
		{"long integer keeps comma fraction", "1234,567", "1234.567"},
		{"two decimals with dot", "12.50", "12.5"},
		{"many dot thousands", "1.250.000", "1250000"},
		{"many comma thousands", "1,250,000", "1250000"},
		{"lira symbol", "₺ 1.500,00", "1500"},
		{"currency code suffix", "250 EUR", "250"},
		{"leading minus", "-100", "-100"},
		{"trailing minus", "100-", "-100"},
		{"parentheses", "(42,50)", "-42.5"},
		{"nbsp thousands", "12 000", "12000"},
		{"explicit plus", "+7", "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmountString(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)),
				"ParseAmountString(%q) = %s, expected %s", tt.input, got, tt.expected)
		})
	}
}

func TestParseAmountStringErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   error
	}{
		{"empty", "", ErrEmptyAmount},
		{"blank", "   ", ErrEmptyAmount},
		{"letters only", "abc", ErrInvalidAmount},
		{"dangling sign", "-", ErrInvalidAmount},
		{"inner minus", "1-2", ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmountString(tt.input)
			assert.ErrorIs(t, err, tt.err)
			assert.True(t, got.IsZero())
		})
	}
}

func TestParseAmountTypes(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"float64", float64(12.25), "12.25"},
		{"int", 7, "7"},
		{"int64", int64(-3), "-3"},
		{"json number", json.Number("10.5"), "10.5"},
		{"json number with three decimals", json.Number("1.500"), "1.5"},
		{"decimal", decimal.NewFromInt(9), "9"},
		{"string", "1.000,5", "1000.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.String())
		})
	}

	_, err := ParseAmount(nil)
	assert.ErrorIs(t, err, ErrEmptyAmount)

	_, err = ParseAmount(true)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseAmount([]int{1})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, "EUR", NormalizeCurrency(" eur ", "TRY"))
	assert.Equal(t, "TRY", NormalizeCurrency("", "try"))
	assert.Equal(t, "USD", NormalizeCurrency("USD", ""))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1500.00 EUR", Format(decimal.NewFromInt(1500), "EUR"))
	assert.Equal(t, "-0.50", Format(decimal.RequireFromString("-0.5"), ""))
}
