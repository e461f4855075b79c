package ledger

import (
	"github.com/shopspring/decimal"
)

// RecordSnapshot returns the balance in currency over the records that exist
// before a new payment is added. The caller freezes the result onto the new
// payment; it is never recomputed afterwards.
func RecordSnapshot(debts []DebtRecord, payments []PaymentRecord, currency string) decimal.Decimal {
	return Aggregate(debts, payments).For(currency).Balance
}

// StampPayment sets p.BalanceSnapshot from the existing records of its
// account. debts and payments must not contain p itself.
func StampPayment(p *PaymentRecord, debts []DebtRecord, payments []PaymentRecord) {
	snapshot := RecordSnapshot(debts, payments, p.Currency)
	p.BalanceSnapshot = &snapshot
}
