package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Statement row kinds.
const (
	RowDebt    = "debt"
	RowPayment = "payment"
)

// StatementRow is one line of an account statement in a single currency.
type StatementRow struct {
	Kind        string          `json:"kind"`
	RecordID    string          `json:"recordId"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Linkage     Linkage         `json:"linkage,omitempty"`

	// Snapshot and BalanceAfter come from the payment's frozen snapshot.
	Snapshot     *decimal.Decimal `json:"snapshot,omitempty"`
	BalanceAfter *decimal.Decimal `json:"balanceAfter,omitempty"`

	// RunningBalance is replayed from the rows above.
	RunningBalance decimal.Decimal `json:"runningBalance"`

	// MissingSnapshot marks payments stored before snapshots were recorded.
	MissingSnapshot bool `json:"missingSnapshot,omitempty"`
}

// BuildStatement interleaves the debts and payments of currency by date.
// Debts come before payments on the same instant. Every payment lowers the
// running balance; settled amounts on debts are not counted again.
func BuildStatement(debts []DebtRecord, payments []PaymentRecord, currency string) []StatementRow {
	rows := make([]StatementRow, 0, len(debts)+len(payments))

	for _, d := range debts {
		if d.Currency != currency {
			continue
		}
		rows = append(rows, StatementRow{
			Kind:        RowDebt,
			RecordID:    d.ID,
			Date:        d.Date(),
			Description: firstNonEmpty(d.Description, d.Notes),
			Debit:       d.Amount,
			Credit:      decimal.Zero,
		})
	}

	for _, p := range payments {
		if p.Currency != currency {
			continue
		}
		row := StatementRow{
			Kind:        RowPayment,
			RecordID:    p.ID,
			Date:        p.Date(),
			Description: p.Description,
			Debit:       decimal.Zero,
			Credit:      p.Amount,
			Linkage:     Classify(p),
		}
		if after, ok := p.BalanceAfter(); ok {
			snapshot := *p.BalanceSnapshot
			row.Snapshot = &snapshot
			row.BalanceAfter = &after
		} else {
			row.MissingSnapshot = true
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Kind != b.Kind {
			return a.Kind == RowDebt
		}
		return a.RecordID < b.RecordID
	})

	balance := decimal.Zero
	for i := range rows {
		balance = balance.Add(rows[i].Debit).Sub(rows[i].Credit)
		rows[i].RunningBalance = balance
	}

	return rows
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
