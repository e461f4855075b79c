// Package pathutil provides centralized path management for the ledger's
// data files.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// Default file names under the data root.
const (
	BoltFile    = "cari.db"
	SQLiteFile  = "cari.sqlite"
	JournalFile = "journal.sqlite"
	RulesFile   = "rules.yaml"
)

// PathResolver manages paths for the document store, cascade journal and
// rules file.
type PathResolver struct {
	dataRoot    string
	boltPath    string
	sqlitePath  string
	journalPath string
	rulesPath   string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// DataRoot is the directory holding every data file (e.g. ./data)
	DataRoot string
	// DatabasePath overrides the document store file of the selected backend
	DatabasePath string
	// JournalPath is the SQLite database of cascade runs
	JournalPath string
	// RulesPath is the ledger rules YAML file
	RulesPath string
}

// New creates a new PathResolver with the given configuration.
// Paths left empty default to files under DataRoot.
func New(config Config) *PathResolver {
	root := config.DataRoot
	if root == "" {
		root = "."
	}

	resolver := &PathResolver{
		dataRoot:    root,
		boltPath:    filepath.Join(root, BoltFile),
		sqlitePath:  filepath.Join(root, SQLiteFile),
		journalPath: config.JournalPath,
		rulesPath:   config.RulesPath,
	}

	if config.DatabasePath != "" {
		resolver.boltPath = config.DatabasePath
		resolver.sqlitePath = config.DatabasePath
	}
	if resolver.journalPath == "" {
		resolver.journalPath = filepath.Join(root, JournalFile)
	}
	if resolver.rulesPath == "" {
		resolver.rulesPath = filepath.Join(root, RulesFile)
	}

	return resolver
}

// GetDataRoot returns the data root directory.
func (p *PathResolver) GetDataRoot() string {
	return p.dataRoot
}

// GetBoltPath returns the bbolt document store file path.
func (p *PathResolver) GetBoltPath() string {
	return p.boltPath
}

// GetSQLitePath returns the SQLite document store file path.
func (p *PathResolver) GetSQLitePath() string {
	return p.sqlitePath
}

// GetJournalPath returns the cascade journal database path.
func (p *PathResolver) GetJournalPath() string {
	return p.journalPath
}

// GetRulesPath returns the rules file path.
func (p *PathResolver) GetRulesPath() string {
	return p.rulesPath
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureDataRoot creates the data root directory.
func (p *PathResolver) EnsureDataRoot() error {
	return p.EnsureDir(p.dataRoot)
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
