package cascade

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/ledger"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store/storetest"
)

type seed struct {
	collection string
	doc        store.Document
}

func seedStore(t *testing.T, st store.Store, docs ...seed) {
	t.Helper()
	for _, s := range docs {
		_, err := st.Create(context.Background(), s.collection, s.doc)
		require.NoError(t, err)
	}
}

func tourScenario() []seed {
	return []seed{
		{store.CollectionTours, store.Document{
			"id": "T1", "customerName": "Ayşe Yılmaz", "customerPhone": "+90 555 111 2233",
			"customerPassportNumber": "U1234567",
		}},
		{store.CollectionTours, store.Document{"id": "T10", "customerName": "Other"}},
		{store.CollectionFinancialEntries, store.Document{"id": "F1", "relatedTourId": "T1", "amount": 2500.0, "type": "income"}},
		{store.CollectionFinancialEntries, store.Document{"id": "F2", "relatedTourId": "T2", "amount": 10.0}},
		{store.CollectionFinancialEntries, store.Document{"id": "F8", "relatedTourId": "T2", "tourId": "T1"}},
		{store.CollectionFinancialEntries, store.Document{"id": "F9", "tourId": "T1", "amount": 75.0}},
		{store.CollectionCustomerDebts, store.Document{"id": "CD9", "tour_id": "T1", "amount": 20.0}},
		{store.CollectionDebts, store.Document{"id": "D9", "cari_id": "acc-4", "tour_id": "T1", "amount": 40.0}},
		{store.CollectionCustomerDebts, store.Document{"id": "CD1", "tourId": "T1", "amount": 500.0}},
		{store.CollectionDebts, store.Document{"id": "D1", "cariId": "acc-1", "tourId": "T1", "amount": 300.0, "currency": "EUR"}},
		{store.CollectionDebts, store.Document{"id": "D2", "cariId": "acc-2", "amount": 200.0, "paidAmount": 50.0, "currency": "EUR", "notes": "Tour ID: T1"}},
		{store.CollectionDebts, store.Document{"id": "D3", "cariId": "acc-2", "amount": 200.0, "paidAmount": 200.0, "currency": "EUR", "notes": "Tour ID: T1"}},
		{store.CollectionDebts, store.Document{"id": "D4", "cariId": "acc-3", "amount": 90.0, "notes": "Tour ID: T10"}},
		{store.CollectionCustomers, store.Document{"id": "C0", "name": "Ayşe Yılmaz"}},
		{store.CollectionCustomers, store.Document{"id": "C1", "name": "Ayse", "passportNumber": "u1234567"}},
	}
}

type recordingRefresher struct {
	accounts []string
	err      error
}

func (r *recordingRefresher) RefreshTotals(_ context.Context, accountID string) error {
	r.accounts = append(r.accounts, accountID)
	return r.err
}

type recordingJournal struct {
	results []*Result
	fatals  []error
}

func (j *recordingJournal) Record(_ context.Context, result *Result, fatal error) error {
	j.results = append(j.results, result)
	j.fatals = append(j.fatals, fatal)
	return nil
}

func exists(t *testing.T, st store.Store, collection, id string) bool {
	t.Helper()
	_, err := st.Get(context.Background(), collection, id)
	if errors.Is(err, store.ErrNotFound) {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestDeleteSourceTransaction(t *testing.T) {
	st := store.NewMemoryStore()
	seedStore(t, st, tourScenario()...)

	refresher := &recordingRefresher{}
	journal := &recordingJournal{}
	m := NewManager(st, ledger.NewNormalizer("TRY")).WithRefresher(refresher).WithJournal(journal)

	result, err := m.DeleteSourceTransaction(context.Background(), "T1")
	require.NoError(t, err)

	assert.True(t, result.TourDeleted)
	assert.Equal(t, []string{"F1", "F9"}, result.FinancialEntries)
	assert.Equal(t, []string{"CD1", "CD9"}, result.CustomerDebts)
	assert.ElementsMatch(t, []string{"D1", "D2", "D9"}, result.SupplierDebts)
	assert.Equal(t, []string{"D3"}, result.PreservedDebts)
	assert.Equal(t, []string{"D4"}, result.AmbiguousDebts)
	assert.Equal(t, []string{"C1"}, result.Customers, "passport match wins over name match")

	assert.False(t, exists(t, st, store.CollectionTours, "T1"))
	assert.False(t, exists(t, st, store.CollectionFinancialEntries, "F1"))
	assert.False(t, exists(t, st, store.CollectionCustomerDebts, "CD1"))
	assert.False(t, exists(t, st, store.CollectionDebts, "D1"))
	assert.False(t, exists(t, st, store.CollectionDebts, "D2"))
	assert.False(t, exists(t, st, store.CollectionCustomers, "C1"))
	assert.False(t, exists(t, st, store.CollectionFinancialEntries, "F9"))
	assert.False(t, exists(t, st, store.CollectionCustomerDebts, "CD9"))
	assert.False(t, exists(t, st, store.CollectionDebts, "D9"))

	assert.True(t, exists(t, st, store.CollectionDebts, "D3"), "paid debts are kept")
	assert.True(t, exists(t, st, store.CollectionDebts, "D4"), "ambiguous legacy references are kept")
	assert.True(t, exists(t, st, store.CollectionFinancialEntries, "F2"))
	assert.True(t, exists(t, st, store.CollectionFinancialEntries, "F8"), "relatedTourId wins over tourId")
	assert.True(t, exists(t, st, store.CollectionTours, "T10"))
	assert.True(t, exists(t, st, store.CollectionCustomers, "C0"))

	// A note naming a longer tour ID is listed but is not a failure.
	assert.Empty(t, result.Warnings)
	assert.True(t, result.Complete())

	assert.ElementsMatch(t, []string{"acc-1", "acc-2", "acc-4"}, refresher.accounts)

	require.Len(t, journal.results, 1)
	assert.Same(t, result, journal.results[0])
	assert.NoError(t, journal.fatals[0])
}

func TestDeleteSourceTransactionPartialFailure(t *testing.T) {
	st := storetest.NewFaultyStore(store.NewMemoryStore())
	seedStore(t, st, tourScenario()...)

	st.FailQueries(store.CollectionFinancialEntries)
	st.FailDeleteOf(store.CollectionDebts, "D1")

	m := NewManager(st, ledger.NewNormalizer("TRY"))
	result, err := m.DeleteSourceTransaction(context.Background(), "T1")
	require.NoError(t, err, "only the tour phase is fatal")

	assert.True(t, result.TourDeleted)
	assert.Empty(t, result.FinancialEntries)
	assert.ElementsMatch(t, []string{"D2", "D9"}, result.SupplierDebts)
	assert.Equal(t, []string{"CD1", "CD9"}, result.CustomerDebts)

	phases := map[Phase]int{}
	for _, w := range result.Warnings {
		phases[w.Phase]++
	}
	assert.Equal(t, 1, phases[PhaseFinancialEntries])
	assert.Equal(t, 1, phases[PhaseSupplierDebts])

	// A second run after the store recovers finishes the job.
	st.Heal()
	again, err := m.DeleteSourceTransaction(context.Background(), "T1")
	require.NoError(t, err)
	assert.True(t, again.TourDeleted)
	assert.Equal(t, []string{"F1", "F9"}, again.FinancialEntries)
	assert.Equal(t, []string{"D1"}, again.SupplierDebts)
	assert.True(t, again.Complete(), "nothing is left to retry")
	assert.Empty(t, again.Customers, "customer phase needs the tour, which is gone")
}

func TestDeleteSourceTransactionTourFailureIsFatal(t *testing.T) {
	st := storetest.NewFaultyStore(store.NewMemoryStore())
	seedStore(t, st, tourScenario()...)
	st.FailDeletes(store.CollectionTours)

	journal := &recordingJournal{}
	m := NewManager(st, ledger.NewNormalizer("TRY")).WithJournal(journal)

	result, err := m.DeleteSourceTransaction(context.Background(), "T1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTourDeletion)
	assert.True(t, storetest.IsInjected(err))

	assert.False(t, result.TourDeleted)
	assert.Equal(t, []string{"F1", "F9"}, result.FinancialEntries, "earlier phases still ran")

	require.Len(t, journal.fatals, 1)
	assert.ErrorIs(t, journal.fatals[0], ErrTourDeletion)
}

func TestDeleteSourceTransactionRefreshWarnings(t *testing.T) {
	st := store.NewMemoryStore()
	seedStore(t, st, tourScenario()...)

	m := NewManager(st, ledger.NewNormalizer("TRY")).WithRefresher(&recordingRefresher{err: store.ErrNotFound})
	result, err := m.DeleteSourceTransaction(context.Background(), "T1")
	require.NoError(t, err)

	var totals int
	for _, w := range result.Warnings {
		if w.Phase == PhaseTotals {
			totals++
		}
	}
	assert.Equal(t, 3, totals)
}

func TestDeleteSourceTransactionEmptyID(t *testing.T) {
	m := NewManager(store.NewMemoryStore(), ledger.NewNormalizer("TRY"))
	_, err := m.DeleteSourceTransaction(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrTourDeletion)
	assert.ErrorIs(t, err, store.ErrInvalidID)
}

func TestDeleteSourceTransactionCustomLegacyPrefix(t *testing.T) {
	st := store.NewMemoryStore()
	seedStore(t, st,
		seed{store.CollectionTours, store.Document{"id": "T7"}},
		seed{store.CollectionDebts, store.Document{"id": "D1", "amount": 10.0, "notes": "Tur No: T7"}},
	)

	m := NewManager(st, ledger.NewNormalizer("TRY")).WithLegacyPrefix("Tur No: ")
	result, err := m.DeleteSourceTransaction(context.Background(), "T7")
	require.NoError(t, err)
	assert.Equal(t, []string{"D1"}, result.SupplierDebts)
}

func TestResolveCustomer(t *testing.T) {
	customers := []ledger.CustomerRecord{
		{ID: "name-only", Name: "Mehmet Demir"},
		{ID: "name-phone", Name: "mehmet  demir", Phone: "0555 123 45 67"},
		{ID: "licence", Name: "M. Demir", DrivingLicense: "DL-9"},
		{ID: "national", NationalID: "12345678901"},
	}

	tests := []struct {
		name string
		tour ledger.Tour
		want string
		ok   bool
	}{
		{"national id", ledger.Tour{CustomerNationalID: "12345678901", CustomerName: "Mehmet Demir"}, "national", true},
		{"licence", ledger.Tour{CustomerDrivingLicense: "dl-9", CustomerName: "Mehmet Demir"}, "licence", true},
		{"name and phone", ledger.Tour{CustomerName: "Mehmet Demir", CustomerPhone: "0555-123-45-67"}, "name-phone", true},
		{"name", ledger.Tour{CustomerName: "Mehmet Demir"}, "name-only", true},
		{"nothing", ledger.Tour{CustomerName: "Zeynep"}, "", false},
		{"blank tour", ledger.Tour{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resolveCustomer(tt.tour, customers)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestMatchLegacyTourReference(t *testing.T) {
	tests := []struct {
		name  string
		notes string
		want  legacyMatch
	}{
		{"exact", "Tour ID: T1", legacyExact},
		{"embedded", "Balon - Tour ID: T1, 2 kişi", legacyExact},
		{"longer id", "Tour ID: T10", legacyAmbiguous},
		{"longer then exact", "Tour ID: T10 / Tour ID: T1", legacyExact},
		{"other", "Tour ID: T2", legacyNone},
		{"empty", "", legacyNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchLegacyTourReference(tt.notes, "Tour ID: ", "T1"))
		})
	}
}
