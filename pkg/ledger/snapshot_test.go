package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotScenario(t *testing.T) {
	debts := []DebtRecord{debt("d1", "EUR", "1000", "0")}
	var payments []PaymentRecord

	first := payment("p1", "EUR", "400")
	StampPayment(&first, debts, payments)
	require.NotNil(t, first.BalanceSnapshot)
	assertDecimal(t, "1000", *first.BalanceSnapshot)
	payments = append(payments, first)
	assertDecimal(t, "600", Aggregate(debts, payments).For("EUR").Remaining)

	refund := payment("p2", "EUR", "-100")
	StampPayment(&refund, debts, payments)
	require.NotNil(t, refund.BalanceSnapshot)
	assertDecimal(t, "600", *refund.BalanceSnapshot)
	payments = append(payments, refund)
	assertDecimal(t, "700", Aggregate(debts, payments).For("EUR").Remaining)

	after, ok := refund.BalanceAfter()
	assert.True(t, ok)
	assertDecimal(t, "700", after)
}

func TestSnapshotConsistency(t *testing.T) {
	debts := []DebtRecord{
		debt("d1", "TRY", "2500", "0"),
		debt("d2", "USD", "90", "0"),
	}
	amounts := []string{"100", "250.75", "-20", "1000", "12.5"}

	var payments []PaymentRecord
	for i, amount := range amounts {
		p := payment(string(rune('a'+i)), "TRY", amount)
		StampPayment(&p, debts, payments)

		// The snapshot of each payment is the balance after the previous one.
		if i > 0 {
			prevAfter, ok := payments[i-1].BalanceAfter()
			require.True(t, ok)
			assert.True(t, prevAfter.Equal(*p.BalanceSnapshot), "payment %d", i)
		}
		payments = append(payments, p)
	}

	last, ok := payments[len(payments)-1].BalanceAfter()
	require.True(t, ok)
	assert.True(t, last.Equal(Aggregate(debts, payments).For("TRY").Balance))
	assertDecimal(t, "90", Aggregate(debts, payments).For("USD").Balance)
}

func TestRecordSnapshotOtherCurrency(t *testing.T) {
	debts := []DebtRecord{debt("d1", "EUR", "1000", "0")}
	assertDecimal(t, "0", RecordSnapshot(debts, nil, "USD"))
}

func TestBalanceAfterWithoutSnapshot(t *testing.T) {
	_, ok := payment("p1", "EUR", "10").BalanceAfter()
	assert.False(t, ok)
}
