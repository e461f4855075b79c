// Package config provides configuration management for the cari ledger.
// It loads configuration from environment variables and .env files, and the
// ledger rules from a YAML file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config represents the application configuration.
type Config struct {
	Store  StoreConfig
	Server ServerConfig
	Log    LogConfig
	// DefaultCurrency overrides the rules file when set.
	DefaultCurrency string
	Debug           bool
}

// StoreConfig represents document store configuration.
type StoreConfig struct {
	Backend     string
	DataRoot    string
	DBPath      string
	JournalPath string
	RulesPath   string
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	ListenAddr     string
	RequestTimeout time.Duration
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	// Load .env file
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	timeout, err := parseDurationEnv("CARI_REQUEST_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid CARI_REQUEST_TIMEOUT: %w", err)
	}

	backend := strings.ToLower(getEnvOrDefault("CARI_STORE_BACKEND", BackendBolt))
	switch backend {
	case BackendBolt, BackendSQLite, BackendMemory:
	default:
		return nil, fmt.Errorf("invalid CARI_STORE_BACKEND: %s (expected bolt, sqlite or memory)", backend)
	}

	debug := os.Getenv("DEBUG") == "true"
	level := getEnvOrDefault("LOG_LEVEL", "info")
	if debug {
		level = "debug"
	}

	config := &Config{
		Store: StoreConfig{
			Backend:     backend,
			DataRoot:    getEnvOrDefault("CARI_DATA_ROOT", "./data"),
			DBPath:      os.Getenv("CARI_DB_PATH"),
			JournalPath: os.Getenv("CARI_JOURNAL_PATH"),
			RulesPath:   os.Getenv("CARI_RULES_PATH"),
		},
		Server: ServerConfig{
			ListenAddr:     getEnvOrDefault("CARI_LISTEN_ADDR", ":8080"),
			RequestTimeout: timeout,
		},
		Log: LogConfig{
			Level:  level,
			Format: getEnvOrDefault("LOG_FORMAT", "console"),
			Output: getEnvOrDefault("LOG_OUTPUT", "stderr"),
		},
		DefaultCurrency: strings.ToUpper(strings.TrimSpace(os.Getenv("CARI_DEFAULT_CURRENCY"))),
		Debug:           debug,
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) == 0 {
			continue
		}

		var value string
		switch path[0] {
		case "store":
			if len(path) < 2 {
				continue
			}
			switch path[1] {
			case "backend":
				value = c.Store.Backend
			case "dataRoot":
				value = c.Store.DataRoot
			case "dbPath":
				value = c.Store.DBPath
			case "journalPath":
				value = c.Store.JournalPath
			case "rulesPath":
				value = c.Store.RulesPath
			}
		case "server":
			if len(path) < 2 {
				continue
			}
			switch path[1] {
			case "listenAddr":
				value = c.Server.ListenAddr
			case "requestTimeout":
				if c.Server.RequestTimeout > 0 {
					value = "set"
				}
			}
		case "defaultCurrency":
			value = c.DefaultCurrency
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDurationEnv parses a duration from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %s", key, value)
	}

	return parsed, nil
}
