package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store/storetest"
)

func TestReferenceQuery(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	for _, doc := range []store.Document{
		{"id": "D1", "cariId": "acc-1"},
		{"id": "D2", "accountId": "acc-1"},
		{"id": "D3", "cari_id": "acc-1"},
		{"id": "D4", "account_id": "acc-1"},
		{"id": "D5", "cariId": "acc-2", "accountId": "acc-1"},
		{"id": "D6", "cariId": "acc-2"},
	} {
		_, err := st.Create(ctx, store.CollectionDebts, doc)
		require.NoError(t, err)
	}

	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{"every alias", "acc-1", []string{"D1", "D2", "D3", "D4"}},
		{"canonical name wins", "acc-2", []string{"D5", "D6"}},
		{"no match", "acc-3", nil},
		{"empty value", "  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := AccountRef.Query(ctx, st, store.CollectionDebts, tt.value)
			require.NoError(t, err)

			var ids []string
			for _, doc := range docs {
				ids = append(ids, doc.ID())
			}
			assert.ElementsMatch(t, tt.expected, ids)
		})
	}
}

func TestReferenceResolveMatchesNormalizer(t *testing.T) {
	n := NewNormalizer("TRY")
	doc := store.Document{"id": "E1", "tourId": "T1", "related_tour_id": "T2"}

	assert.Equal(t, n.FinancialEntry(doc).RelatedTourID, RelatedTourRef.Resolve(doc))
	assert.Equal(t, "T2", RelatedTourRef.Resolve(doc))
	assert.Equal(t, "T1", TourRef.Resolve(doc))
	assert.Equal(t, "cariId", AccountRef.Field())
}

func TestReferenceQueryError(t *testing.T) {
	st := storetest.NewFaultyStore(store.NewMemoryStore())
	st.FailQueries(store.CollectionPayments)

	_, err := DebtRef.Query(context.Background(), st, store.CollectionPayments, "D1")
	assert.True(t, storetest.IsInjected(err))
}
