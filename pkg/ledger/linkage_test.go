package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		debtID        string
		reservationID string
		want          Linkage
	}{
		{"general", "", "", General},
		{"blank ids", "  ", "", General},
		{"debt", "d1", "", Linked},
		{"reservation", "", "r1", Linked},
		{"both", "d1", "r1", Linked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PaymentRecord{ID: "p", DebtID: tt.debtID, ReservationID: tt.reservationID}
			got := Classify(p)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Classify(p), "classification must be stable")
		})
	}
}

func TestResolverCheckMutable(t *testing.T) {
	r := NewResolver(nil)

	err := r.CheckMutable(PaymentRecord{ID: "p1"})
	assert.NoError(t, err)

	err = r.CheckMutable(PaymentRecord{ID: "p2", DebtID: "d1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLinkedPayment))

	var linkErr *LinkedPaymentError
	require.True(t, errors.As(err, &linkErr))
	assert.Equal(t, "p2", linkErr.PaymentID)
	assert.Equal(t, WorkflowDebtSettlement, linkErr.Workflow)
	assert.Contains(t, linkErr.Reason, WorkflowDebtSettlement)

	err = r.CheckMutable(PaymentRecord{ID: "p3", ReservationID: "r1"})
	require.True(t, errors.As(err, &linkErr))
	assert.Equal(t, WorkflowReservation, linkErr.Workflow)
}

func TestResolverLegacyGenericPhrase(t *testing.T) {
	r := NewResolver([]string{" Genel Ödeme ", ""})

	ok, reason := r.Editable(PaymentRecord{ID: "p1", DebtID: "d1", Description: "GENEL ÖDEME - Mart"})
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, reason = r.Editable(PaymentRecord{ID: "p2", DebtID: "d1", Description: "Tur ödemesi"})
	assert.False(t, ok)
	assert.NotEmpty(t, reason)
}
