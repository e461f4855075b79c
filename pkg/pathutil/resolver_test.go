package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	p := New(Config{DataRoot: "/srv/cari"})

	assert.Equal(t, "/srv/cari", p.GetDataRoot())
	assert.Equal(t, filepath.Join("/srv/cari", BoltFile), p.GetBoltPath())
	assert.Equal(t, filepath.Join("/srv/cari", SQLiteFile), p.GetSQLitePath())
	assert.Equal(t, filepath.Join("/srv/cari", JournalFile), p.GetJournalPath())
	assert.Equal(t, filepath.Join("/srv/cari", RulesFile), p.GetRulesPath())
}

func TestNewOverrides(t *testing.T) {
	p := New(Config{
		DataRoot:     "/srv/cari",
		DatabasePath: "/var/lib/ledger.db",
		JournalPath:  "/var/lib/journal.db",
		RulesPath:    "/etc/cari/rules.yaml",
	})

	assert.Equal(t, "/var/lib/ledger.db", p.GetBoltPath())
	assert.Equal(t, "/var/lib/ledger.db", p.GetSQLitePath())
	assert.Equal(t, "/var/lib/journal.db", p.GetJournalPath())
	assert.Equal(t, "/etc/cari/rules.yaml", p.GetRulesPath())
}

func TestEnsureDataRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "data")
	p := New(Config{DataRoot: root})

	require.NoError(t, p.EnsureDataRoot())
	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.True(t, p.FileExists(root))
	assert.False(t, p.FileExists(p.GetRulesPath()))
}
