package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func debt(id, currency, amount, paid string) DebtRecord {
	d := DebtRecord{
		ID:         id,
		AccountID:  "acc-1",
		Amount:     dec(amount),
		Currency:   currency,
		PaidAmount: dec(paid),
		CreatedAt:  day("2024-01-10"),
	}
	d.Status = DebtStatusFor(d.Amount, d.PaidAmount)
	return d
}

func payment(id, currency, amount string) PaymentRecord {
	return PaymentRecord{
		ID:          id,
		AccountID:   "acc-1",
		Amount:      dec(amount),
		Currency:    currency,
		PaymentDate: day("2024-01-20"),
	}
}
