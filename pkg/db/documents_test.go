package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store/storetest"
)

func openTestStore(t *testing.T) *DocumentStore {
	t.Helper()

	s, err := OpenDocumentStore(filepath.Join(t.TempDir(), "cari.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestDocumentStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTestStore(t)
	})
}
