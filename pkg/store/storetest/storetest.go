// Package storetest provides a behavioural test suite shared by every
// store.Store backend, plus a fault-injecting wrapper for callers' tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store"
)

// Run exercises a backend created by newStore.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Create(ctx, store.CollectionDebts, store.Document{
			"cariId":   "acc-1",
			"amount":   1000,
			"currency": "EUR",
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := s.Get(ctx, store.CollectionDebts, id)
		require.NoError(t, err)
		assert.Equal(t, id, doc.ID())
		assert.Equal(t, "acc-1", doc["cariId"])
		assert.Equal(t, float64(1000), doc["amount"])
	})

	t.Run("create keeps explicit id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Create(ctx, store.CollectionTours, store.Document{"id": "T1", "customerName": "Ayşe"})
		require.NoError(t, err)
		assert.Equal(t, "T1", id)

		doc, err := s.Get(ctx, store.CollectionTours, "T1")
		require.NoError(t, err)
		assert.Equal(t, "Ayşe", doc["customerName"])
	})

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), store.CollectionDebts, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.Get(context.Background(), "unknownCollection", "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("query filters", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for i, acc := range []string{"acc-1", "acc-1", "acc-2"} {
			_, err := s.Create(ctx, store.CollectionPayments, store.Document{
				"id":     fmt.Sprintf("p%d", i),
				"cariId": acc,
				"amount": float64(100 * (i + 1)),
			})
			require.NoError(t, err)
		}

		docs, err := s.Query(ctx, store.CollectionPayments, store.Eq("cariId", "acc-1"))
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "p0", docs[0].ID())
		assert.Equal(t, "p1", docs[1].ID())

		docs, err = s.Query(ctx, store.CollectionPayments, store.Gte("amount", 200))
		require.NoError(t, err)
		assert.Len(t, docs, 2)

		docs, err = s.Query(ctx, store.CollectionPayments,
			store.Eq("cariId", "acc-1"), store.Lte("amount", 100))
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "p0", docs[0].ID())

		docs, err = s.Query(ctx, store.CollectionPayments)
		require.NoError(t, err)
		assert.Len(t, docs, 3)

		docs, err = s.Query(ctx, "emptyCollection")
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("update merges and removes nil keys", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Create(ctx, store.CollectionAccounts, store.Document{
			"name":  "Kapadokya Balon",
			"phone": "0384",
			"notes": "old",
		})
		require.NoError(t, err)

		err = s.Update(ctx, store.CollectionAccounts, id, store.Document{
			"phone": "0555",
			"notes": nil,
			"id":    "ignored",
		})
		require.NoError(t, err)

		doc, err := s.Get(ctx, store.CollectionAccounts, id)
		require.NoError(t, err)
		assert.Equal(t, id, doc.ID())
		assert.Equal(t, "Kapadokya Balon", doc["name"])
		assert.Equal(t, "0555", doc["phone"])
		_, hasNotes := doc["notes"]
		assert.False(t, hasNotes)

		err = s.Update(ctx, store.CollectionAccounts, "missing", store.Document{"x": 1})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Create(ctx, store.CollectionCustomers, store.Document{"name": "Mehmet"})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, store.CollectionCustomers, id))
		require.NoError(t, s.Delete(ctx, store.CollectionCustomers, id))

		_, err = s.Get(ctx, store.CollectionCustomers, id)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("returned documents are copies", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Create(ctx, store.CollectionDebts, store.Document{"amount": 5})
		require.NoError(t, err)

		doc, err := s.Get(ctx, store.CollectionDebts, id)
		require.NoError(t, err)
		doc["amount"] = 99.0

		again, err := s.Get(ctx, store.CollectionDebts, id)
		require.NoError(t, err)
		assert.Equal(t, float64(5), again["amount"])
	})
}

// ErrInjected is returned by FaultyStore for operations configured to fail.
var ErrInjected = fmt.Errorf("%w: injected failure", store.ErrUnavailable)

// FaultyStore wraps a Store and fails selected operations.
type FaultyStore struct {
	store.Store

	mu            sync.Mutex
	failDelete    map[string]bool
	failQuery     map[string]bool
	failGet       map[string]bool
	failCreate    map[string]bool
	failDeleteOne map[string]bool
}

// NewFaultyStore wraps inner.
func NewFaultyStore(inner store.Store) *FaultyStore {
	return &FaultyStore{
		Store:         inner,
		failDelete:    make(map[string]bool),
		failQuery:     make(map[string]bool),
		failGet:       make(map[string]bool),
		failCreate:    make(map[string]bool),
		failDeleteOne: make(map[string]bool),
	}
}

// FailDeletes makes every Delete in collection fail.
func (f *FaultyStore) FailDeletes(collection string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failDelete[collection] = true
}

// FailDeleteOf makes Delete of one document fail.
func (f *FaultyStore) FailDeleteOf(collection, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failDeleteOne[collection+"/"+id] = true
}

// FailQueries makes every Query in collection fail.
func (f *FaultyStore) FailQueries(collection string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failQuery[collection] = true
}

// FailGets makes every Get in collection fail.
func (f *FaultyStore) FailGets(collection string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet[collection] = true
}

// FailCreates makes every Create in collection fail.
func (f *FaultyStore) FailCreates(collection string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCreate[collection] = true
}

// Heal clears every configured failure.
func (f *FaultyStore) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failDelete = make(map[string]bool)
	f.failQuery = make(map[string]bool)
	f.failGet = make(map[string]bool)
	f.failCreate = make(map[string]bool)
	f.failDeleteOne = make(map[string]bool)
}

// Create implements store.Store.
func (f *FaultyStore) Create(ctx context.Context, collection string, doc store.Document) (string, error) {
	f.mu.Lock()
	fail := f.failCreate[collection]
	f.mu.Unlock()
	if fail {
		return "", ErrInjected
	}
	return f.Store.Create(ctx, collection, doc)
}

// Get implements store.Store.
func (f *FaultyStore) Get(ctx context.Context, collection, id string) (store.Document, error) {
	f.mu.Lock()
	fail := f.failGet[collection]
	f.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return f.Store.Get(ctx, collection, id)
}

// Query implements store.Store.
func (f *FaultyStore) Query(ctx context.Context, collection string, filters ...store.Filter) ([]store.Document, error) {
	f.mu.Lock()
	fail := f.failQuery[collection]
	f.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return f.Store.Query(ctx, collection, filters...)
}

// Delete implements store.Store.
func (f *FaultyStore) Delete(ctx context.Context, collection, id string) error {
	f.mu.Lock()
	fail := f.failDelete[collection] || f.failDeleteOne[collection+"/"+id]
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Store.Delete(ctx, collection, id)
}

// IsInjected reports whether err came from a FaultyStore.
func IsInjected(err error) bool {
	return errors.Is(err, ErrInjected)
}
