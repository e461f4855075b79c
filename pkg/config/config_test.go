package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CARI_STORE_BACKEND", "CARI_DATA_ROOT", "CARI_DB_PATH", "CARI_JOURNAL_PATH",
		"CARI_RULES_PATH", "CARI_DEFAULT_CURRENCY", "CARI_LISTEN_ADDR",
		"CARI_REQUEST_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT", "LOG_OUTPUT", "DEBUG",
	} {
		// Setenv registers the restore; godotenv only fills unset keys.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendBolt, cfg.Store.Backend)
	assert.Equal(t, "./data", cfg.Store.DataRoot)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.DefaultCurrency)
	assert.False(t, cfg.Debug)
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)

	envPath := filepath.Join(t.TempDir(), ".env")
	content := "CARI_STORE_BACKEND=SQLite\nCARI_DEFAULT_CURRENCY=eur\nCARI_REQUEST_TIMEOUT=5s\nDEBUG=true\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o644))

	cfg, err := Load(envPath)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "EUR", cfg.DefaultCurrency)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Debug)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad backend", "CARI_STORE_BACKEND", "mongo"},
		{"bad timeout", "CARI_REQUEST_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Store:  StoreConfig{Backend: BackendBolt, DataRoot: "./data"},
		Server: ServerConfig{ListenAddr: ":8080"},
	}

	assert.NoError(t, cfg.Validate([]string{"store", "backend"}, []string{"server", "listenAddr"}))

	err := cfg.Validate([]string{"store", "dbPath"}, []string{"server", "requestTimeout"}, []string{"defaultCurrency"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.dbPath")
	assert.Contains(t, err.Error(), "server.requestTimeout")
	assert.Contains(t, err.Error(), "defaultCurrency")
}
