// Package money parses monetary amounts that arrive from forms and legacy
// documents in several shapes and normalizes currency codes.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyAmount is returned when the amount is missing or blank.
	ErrEmptyAmount = errors.New("empty amount")

	// ErrInvalidAmount is returned when the amount cannot be read as a number.
	ErrInvalidAmount = errors.New("invalid amount")
)

// ParseAmount converts v into a decimal. It accepts numbers, decimals and
// strings formatted with either "." or "," as the decimal separator, with
// optional thousands separators, currency symbols and accounting-style
// parentheses for negatives. The returned value is zero whenever err != nil.
func ParseAmount(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, ErrEmptyAmount
	case decimal.Decimal:
		return n, nil
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero, ErrEmptyAmount
		}
		return *n, nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case float32:
		return decimal.NewFromFloat32(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int32:
		return decimal.NewFromInt32(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case uint:
		return decimal.NewFromString(strconv.FormatUint(uint64(n), 10))
	case uint64:
		return decimal.NewFromString(strconv.FormatUint(n, 10))
	case json.Number:
		// JSON numbers always use "." as the decimal point.
		amount, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, n)
		}
		return amount, nil
	case string:
		return ParseAmountString(n)
	case bool:
		return decimal.Zero, fmt.Errorf("%w: boolean %v", ErrInvalidAmount, n)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, v)
	}
}

// ParseAmountString parses a locale-formatted amount string.
//
// Separator rules: when both "." and "," occur, the one that appears last is
// the decimal separator. A separator that occurs more than once groups
// thousands. A single separator of either kind groups thousands when it is
// followed by exactly three digits and preceded by one to three digits other
// than a lone "0"; otherwise it is the decimal separator. So "1.500" and
// "1,500" are both 1500 while "0.500", "1234.567" and "12,50" keep their
// fraction.
func ParseAmountString(s string) (decimal.Decimal, error) {
	raw := s
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}

	// Keep digits, separators and signs only.
	cleaned = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',', r == '-', r == '+':
			return r
		default:
			return -1
		}
	}, cleaned)

	if strings.HasPrefix(cleaned, "-") {
		negative = !negative
		cleaned = cleaned[1:]
	} else if strings.HasSuffix(cleaned, "-") {
		negative = !negative
		cleaned = cleaned[:len(cleaned)-1]
	}
	cleaned = strings.TrimPrefix(cleaned, "+")

	if cleaned == "" || strings.ContainsAny(cleaned, "+-") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	cleaned = normalizeSeparators(cleaned)

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// normalizeSeparators rewrites s so that "." is the only decimal separator
// and no thousands separators remain.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")

	case lastComma >= 0:
		if groupsThousands(s, ",") {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)

	case lastDot >= 0:
		if groupsThousands(s, ".") {
			return strings.ReplaceAll(s, ".", "")
		}
		return s
	}

	return s
}

// groupsThousands reports whether sep, the only kind of separator in s, is a
// thousands separator.
func groupsThousands(s, sep string) bool {
	if strings.Count(s, sep) > 1 {
		return true
	}
	i := strings.Index(s, sep)
	whole, fraction := s[:i], s[i+1:]
	return len(fraction) == 3 && len(whole) >= 1 && len(whole) <= 3 && whole != "0"
}

// NormalizeCurrency trims and upper-cases a currency code. Empty input yields
// fallback. Codes are opaque grouping keys and are not validated.
func NormalizeCurrency(code, fallback string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return strings.ToUpper(strings.TrimSpace(fallback))
	}
	return code
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Format renders an amount with two decimals followed by its currency code.
func Format(amount decimal.Decimal, currency string) string {
	if currency == "" {
		return amount.StringFixed(2)
	}
	return amount.StringFixed(2) + " " + currency
}
