package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/money"
)

// Totals are the aggregated figures of one currency.
type Totals struct {
	Currency  string          `json:"currency"`
	TotalDebt decimal.Decimal `json:"totalDebt"`
	TotalPaid decimal.Decimal `json:"totalPaid"`
	// Remaining is max(0, Balance).
	Remaining decimal.Decimal `json:"remaining"`
	// Balance is TotalDebt - TotalPaid and may be negative when overpaid.
	Balance decimal.Decimal `json:"balance"`
}

// Position is how a balance reads from the agency's side.
type Position string

const (
	PositionSettled    Position = "settled"
	PositionPayable    Position = "payable"
	PositionReceivable Position = "receivable"
)

// Position reads the balance for an account of the given kind. A positive
// supplier balance is payable, a positive customer balance is receivable.
func (t Totals) Position(kind AccountKind) Position {
	switch t.Balance.Sign() {
	case 0:
		return PositionSettled
	case 1:
		if kind == KindCustomer {
			return PositionReceivable
		}
		return PositionPayable
	default:
		if kind == KindCustomer {
			return PositionPayable
		}
		return PositionReceivable
	}
}

// Summary holds Totals keyed by currency code.
type Summary map[string]Totals

// For returns the totals of currency, zero when the currency has no records.
func (s Summary) For(currency string) Totals {
	if t, ok := s[currency]; ok {
		return t
	}
	return Totals{
		Currency:  currency,
		TotalDebt: decimal.Zero,
		TotalPaid: decimal.Zero,
		Remaining: decimal.Zero,
		Balance:   decimal.Zero,
	}
}

// Currencies returns the currency codes in s, sorted.
func (s Summary) Currencies() []string {
	codes := make([]string, 0, len(s))
	for code := range s {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Aggregate folds debts and payments into per-currency totals. Paid amounts
// recorded on debts cover linked payments, so only general payments are
// added on top of them.
func Aggregate(debts []DebtRecord, payments []PaymentRecord) Summary {
	summary := make(Summary)

	for _, d := range debts {
		t := summary.For(d.Currency)
		t.TotalDebt = t.TotalDebt.Add(d.Amount)
		t.TotalPaid = t.TotalPaid.Add(d.PaidAmount)
		summary[d.Currency] = t
	}

	for _, p := range payments {
		if Classify(p) == Linked {
			// Still makes the currency visible.
			summary[p.Currency] = summary.For(p.Currency)
			continue
		}
		t := summary.For(p.Currency)
		t.TotalPaid = t.TotalPaid.Add(p.Amount)
		summary[p.Currency] = t
	}

	for code, t := range summary {
		t.Balance = t.TotalDebt.Sub(t.TotalPaid)
		t.Remaining = money.Max(decimal.Zero, t.Balance)
		summary[code] = t
	}

	return summary
}
