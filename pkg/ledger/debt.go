package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtStatusFor derives the status of a debt: paid once paid reaches amount,
// partially paid for anything strictly between zero and amount.
func DebtStatusFor(amount, paid decimal.Decimal) DebtStatus {
	switch {
	case paid.GreaterThanOrEqual(amount):
		return StatusPaid
	case paid.IsPositive():
		return StatusPartiallyPaid
	default:
		return StatusUnpaid
	}
}

// ApplyPaymentToDebt returns d with amount added to its paid amount. A refund
// can lower the paid amount but never below zero.
func ApplyPaymentToDebt(d DebtRecord, amount decimal.Decimal, at time.Time) DebtRecord {
	d.PaidAmount = d.PaidAmount.Add(amount)
	if d.PaidAmount.IsNegative() {
		d.PaidAmount = decimal.Zero
	}
	d.Status = DebtStatusFor(d.Amount, d.PaidAmount)
	d.UpdatedAt = at
	return d
}
