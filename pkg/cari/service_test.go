package cari

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/config"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/ledger"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store/storetest"
)

var fixedNow = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, st store.Store) *Service {
	t.Helper()
	svc := NewService(st, config.DefaultRules())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func amt(s string) Amount {
	return NewAmount(dec(s))
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func mustAccount(t *testing.T, svc *Service, name, currency string) *ledger.Account {
	t.Helper()
	acc, err := svc.CreateAccount(context.Background(), AccountInput{Name: name, Currency: currency})
	require.NoError(t, err)
	return acc
}

func TestSnapshotScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemoryStore())
	acc := mustAccount(t, svc, "Kapadokya Balon", "EUR")

	_, err := svc.AddDebt(ctx, DebtInput{AccountID: acc.ID, Amount: amt("1000")})
	require.NoError(t, err)

	p1, err := svc.AddPayment(ctx, PaymentInput{AccountID: acc.ID, Amount: amt("400")})
	require.NoError(t, err)
	require.NotNil(t, p1.BalanceSnapshot)
	assertDecimal(t, "1000", *p1.BalanceSnapshot)

	summary, err := svc.Summary(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, summary.Totals, 1)
	assertDecimal(t, "600", summary.Totals[0].Remaining)

	refund, err := svc.AddPayment(ctx, PaymentInput{AccountID: acc.ID, Amount: amt("-100")})
	require.NoError(t, err)
	assertDecimal(t, "600", *refund.BalanceSnapshot)

	summary, err = svc.Summary(ctx, acc.ID)
	require.NoError(t, err)
	assertDecimal(t, "700", summary.Totals[0].Remaining)
	assert.Equal(t, ledger.PositionPayable, summary.Positions["EUR"])

	// Cached totals follow every mutation.
	cached, err := svc.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assertDecimal(t, "1000", cached.TotalDebt)
	assertDecimal(t, "300", cached.TotalPayment)
	assertDecimal(t, "700", cached.Balance)
	assertDecimal(t, "700", cached.Totals["EUR"].Remaining)

	// The stored snapshot survives a round trip through the store.
	stored, err := svc.GetPayment(ctx, refund.ID)
	require.NoError(t, err)
	assertDecimal(t, "600", *stored.BalanceSnapshot)
}

func TestSettleDebt(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemoryStore())
	acc := mustAccount(t, svc, "Otel Ürgüp", "TRY")

	d, err := svc.AddDebt(ctx, DebtInput{AccountID: acc.ID, Amount: amt("500"), Currency: "try"})
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusUnpaid, d.Status)

	p, updated, err := svc.SettleDebt(ctx, d.ID, SettleInput{Amount: amt("200"), Method: "bank"})
	require.NoError(t, err)
	assert.Equal(t, ledger.Linked, ledger.Classify(*p))
	assertDecimal(t, "500", *p.BalanceSnapshot)
	assert.Equal(t, ledger.StatusPartiallyPaid, updated.Status)

	stored, err := svc.GetDebt(ctx, d.ID)
	require.NoError(t, err)
	assertDecimal(t, "200", stored.PaidAmount)

	summary, err := svc.Summary(ctx, acc.ID)
	require.NoError(t, err)
	totals := summary.Totals[0]
	assertDecimal(t, "200", totals.TotalPaid)
	assertDecimal(t, "300", totals.Remaining)
	assert.Equal(t, 1, summary.Linkage[ledger.Linked])

	// Snapshot minus amount is the balance after the payment.
	after, ok := p.BalanceAfter()
	require.True(t, ok)
	assert.True(t, after.Equal(totals.Balance))

	_, updated, err = svc.SettleDebt(ctx, d.ID, SettleInput{Amount: amt("300")})
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPaid, updated.Status)
}

func TestLinkedPaymentGuard(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemoryStore())
	acc := mustAccount(t, svc, "Rehber Ahmet", "TRY")

	d, err := svc.AddDebt(ctx, DebtInput{AccountID: acc.ID, Amount: amt("100")})
	require.NoError(t, err)
	linked, _, err := svc.SettleDebt(ctx, d.ID, SettleInput{Amount: amt("100"), Description: "Tur ödemesi"})
	require.NoError(t, err)

	amount := amt("5")
	_, err = svc.UpdatePayment(ctx, linked.ID, PaymentUpdate{Amount: &amount})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrLinkedPayment))

	err = svc.DeletePayment(ctx, linked.ID)
	var linkErr *ledger.LinkedPaymentError
	require.True(t, errors.As(err, &linkErr))
	assert.Equal(t, ledger.WorkflowDebtSettlement, linkErr.Workflow)

	unchanged, err := svc.GetPayment(ctx, linked.ID)
	require.NoError(t, err)
	assertDecimal(t, "100", unchanged.Amount)

	err = svc.DeleteDebt(ctx, d.ID)
	assert.ErrorIs(t, err, ErrDebtHasPayments)
}

func TestUpdateAndDeleteGeneralPayment(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemoryStore())
	acc := mustAccount(t, svc, "Transfer Co", "EUR")

	_, err := svc.AddDebt(ctx, DebtInput{AccountID: acc.ID, Amount: amt("1000")})
	require.NoError(t, err)
	p, err := svc.AddPayment(ctx, PaymentInput{AccountID: acc.ID, Amount: amt("400")})
	require.NoError(t, err)

	amount := amt("450")
	note := "corrected"
	updated, err := svc.UpdatePayment(ctx, p.ID, PaymentUpdate{Amount: &amount, Description: &note})
	require.NoError(t, err)
	assertDecimal(t, "450", updated.Amount)
	assert.Equal(t, "corrected", updated.Description)
	assertDecimal(t, "1000", *updated.BalanceSnapshot)

	cached, err := svc.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assertDecimal(t, "550", cached.Balance)

	require.NoError(t, svc.DeletePayment(ctx, p.ID))
	cached, err = svc.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assertDecimal(t, "1000", cached.Balance)

	_, err = svc.GetPayment(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAddDebtCreatesAccountImplicitly(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemoryStore())

	d1, err := svc.AddDebt(ctx, DebtInput{AccountName: "Yeni Tedarikçi", Period: "2024", Amount: amt("10")})
	require.NoError(t, err)
	d2, err := svc.AddDebt(ctx, DebtInput{AccountName: "yeni tedarikçi", Period: "2024", Amount: amt("20")})
	require.NoError(t, err)
	assert.Equal(t, d1.AccountID, d2.AccountID)

	accounts, err := svc.ListAccounts(ctx, "2024")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assertDecimal(t, "30", accounts[0].TotalDebt)
	assert.Equal(t, "TRY", accounts[0].Currency)

	_, err = svc.AddDebt(ctx, DebtInput{Amount: amt("10")})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AddDebt(ctx, DebtInput{AccountID: d1.AccountID, Amount: amt("0")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteAccountLeavesNoOrphans(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemoryStore())
	acc := mustAccount(t, svc, "Silinecek", "TRY")
	other := mustAccount(t, svc, "Kalacak", "TRY")

	for _, id := range []string{acc.ID, other.ID} {
		_, err := svc.AddDebt(ctx, DebtInput{AccountID: id, Amount: amt("100")})
		require.NoError(t, err)
		_, err = svc.AddPayment(ctx, PaymentInput{AccountID: id, Amount: amt("10")})
		require.NoError(t, err)
	}

	// Records written by older clients under other field names.
	for _, raw := range []struct {
		collection string
		doc        store.Document
	}{
		{store.CollectionDebts, store.Document{"id": "LD1", "accountId": acc.ID, "amount": "1.000,00", "currency": "EUR"}},
		{store.CollectionDebts, store.Document{"id": "LD2", "account_id": acc.ID, "amount": "20", "currency": "EUR"}},
		{store.CollectionPayments, store.Document{"id": "LP1", "cari_id": acc.ID, "amount": "250", "currency": "EUR"}},
	} {
		_, err := svc.store.Create(ctx, raw.collection, raw.doc)
		require.NoError(t, err)
	}

	summary, err := svc.Summary(ctx, acc.ID)
	require.NoError(t, err)
	var eur *ledger.Totals
	for i := range summary.Totals {
		if summary.Totals[i].Currency == "EUR" {
			eur = &summary.Totals[i]
		}
	}
	require.NotNil(t, eur, "aliased records are part of the account")
	assertDecimal(t, "1020", eur.TotalDebt)
	assertDecimal(t, "250", eur.TotalPaid)

	require.NoError(t, svc.DeleteAccount(ctx, acc.ID))

	for _, collection := range []string{store.CollectionDebts, store.CollectionPayments} {
		docs, err := ledger.AccountRef.Query(ctx, svc.store, collection, acc.ID)
		require.NoError(t, err)
		assert.Empty(t, docs, collection)

		docs, err = ledger.AccountRef.Query(ctx, svc.store, collection, other.ID)
		require.NoError(t, err)
		assert.Len(t, docs, 1, collection)
	}
	for _, id := range []string{"LD1", "LD2"} {
		_, err := svc.store.Get(ctx, store.CollectionDebts, id)
		assert.ErrorIs(t, err, store.ErrNotFound, id)
	}
	_, err = svc.store.Get(ctx, store.CollectionPayments, "LP1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.GetAccount(ctx, acc.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteAccountStopsOnFailure(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewFaultyStore(store.NewMemoryStore())
	svc := newTestService(t, st)
	acc := mustAccount(t, svc, "Yarım", "TRY")

	_, err := svc.AddPayment(ctx, PaymentInput{AccountID: acc.ID, Amount: amt("10")})
	require.NoError(t, err)

	st.FailDeletes(store.CollectionPayments)
	err = svc.DeleteAccount(ctx, acc.ID)
	require.Error(t, err)
	assert.True(t, IsRetryable(err))

	_, err = svc.GetAccount(ctx, acc.ID)
	assert.NoError(t, err, "the account stays while it still has records")
}

func TestStoreUnavailableIsRetryable(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewFaultyStore(store.NewMemoryStore())
	svc := newTestService(t, st)
	acc := mustAccount(t, svc, "Acente", "TRY")

	st.FailQueries(store.CollectionPayments)
	_, err := svc.AddPayment(ctx, PaymentInput{AccountID: acc.ID, Amount: amt("10")})
	require.Error(t, err)
	assert.True(t, IsRetryable(err))

	assert.False(t, IsRetryable(ErrInvalidInput))
}

func TestReconcileAll(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := newTestService(t, st)
	acc := mustAccount(t, svc, "Müze Kart", "EUR")

	_, err := svc.AddDebt(ctx, DebtInput{AccountID: acc.ID, Amount: amt("80")})
	require.NoError(t, err)

	// Records written behind the service's back leave the cache stale.
	_, err = st.Create(ctx, store.CollectionDebts, store.Document{"cariId": acc.ID, "amount": "20", "currency": "EUR"})
	require.NoError(t, err)

	report, err := svc.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Accounts)
	assert.Empty(t, report.Failed)

	cached, err := svc.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assertDecimal(t, "100", cached.TotalDebt)
}

func TestStatementAndTrends(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemoryStore())
	acc := mustAccount(t, svc, "Balon", "EUR")

	_, err := svc.AddDebt(ctx, DebtInput{AccountID: acc.ID, Amount: amt("1000")})
	require.NoError(t, err)
	_, err = svc.AddPayment(ctx, PaymentInput{AccountID: acc.ID, Amount: amt("400"), Date: NewDate(fixedNow.Add(time.Hour))})
	require.NoError(t, err)
	_, err = svc.AddDebt(ctx, DebtInput{AccountID: acc.ID, Amount: amt("50"), Currency: "USD"})
	require.NoError(t, err)

	rows, err := svc.Statement(ctx, acc.ID, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assertDecimal(t, "600", rows[1].RunningBalance)

	trend, err := svc.AccountTrend(ctx, acc.ID, "EUR")
	require.NoError(t, err)
	require.Len(t, trend, ledger.TrendMonths)
	assert.Equal(t, "2024-06", trend[11].Month)
	assertDecimal(t, "600", trend[11].Remaining)

	global, err := svc.GlobalTrend(ctx, "")
	require.NoError(t, err)
	assertDecimal(t, "650", global[11].Remaining)

	_, err = svc.AccountTrend(ctx, "missing", "EUR")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSupplierDebtOverview(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemoryStore())
	a := mustAccount(t, svc, "Alfa", "TRY")
	b := mustAccount(t, svc, "Beta", "TRY")

	_, err := svc.AddDebt(ctx, DebtInput{AccountID: a.ID, Amount: amt("100"), PaidAmount: amt("40")})
	require.NoError(t, err)
	_, err = svc.AddDebt(ctx, DebtInput{AccountID: a.ID, Amount: amt("10"), Currency: "USD"})
	require.NoError(t, err)
	_, err = svc.AddDebt(ctx, DebtInput{AccountID: b.ID, Amount: amt("70"), PaidAmount: amt("70")})
	require.NoError(t, err)

	lines, err := svc.SupplierDebtOverview(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Alfa", lines[0].AccountName)
	assert.Equal(t, "TRY", lines[0].Currency)
	assertDecimal(t, "60", lines[0].Outstanding)
	assert.Equal(t, "USD", lines[1].Currency)
}

func TestUpdateAccount(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemoryStore())
	acc, err := svc.CreateAccount(ctx, AccountInput{Name: "Rehber", Phone: "0384", Notes: "eski", Kind: ledger.KindCustomer})
	require.NoError(t, err)
	assert.Equal(t, ledger.KindCustomer, acc.Kind)

	updated, err := svc.UpdateAccount(ctx, acc.ID, AccountInput{Phone: "0555", Email: "r@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Rehber", updated.Name)
	assert.Equal(t, "0555", updated.Phone)
	assert.Equal(t, "r@example.com", updated.Email)
	assert.Empty(t, updated.Notes)

	_, err = svc.CreateAccount(ctx, AccountInput{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
