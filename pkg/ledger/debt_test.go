package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebtStatusFor(t *testing.T) {
	tests := []struct {
		amount string
		paid   string
		want   DebtStatus
	}{
		{"100", "0", StatusUnpaid},
		{"100", "0.01", StatusPartiallyPaid},
		{"100", "99.99", StatusPartiallyPaid},
		{"100", "100", StatusPaid},
		{"100", "120", StatusPaid},
		{"0", "0", StatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.amount+"/"+tt.paid, func(t *testing.T) {
			assert.Equal(t, tt.want, DebtStatusFor(dec(tt.amount), dec(tt.paid)))
		})
	}
}

func TestApplyPaymentToDebt(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	d := debt("d1", "EUR", "500", "0")

	d = ApplyPaymentToDebt(d, dec("200"), at)
	assertDecimal(t, "200", d.PaidAmount)
	assert.Equal(t, StatusPartiallyPaid, d.Status)
	assert.Equal(t, at, d.UpdatedAt)
	assertDecimal(t, "300", d.Remaining())

	d = ApplyPaymentToDebt(d, dec("300"), at)
	assert.Equal(t, StatusPaid, d.Status)
	assertDecimal(t, "0", d.Remaining())

	d = ApplyPaymentToDebt(d, dec("-900"), at)
	assertDecimal(t, "0", d.PaidAmount)
	assert.Equal(t, StatusUnpaid, d.Status)
}
