// Package db provides SQLite storage: a document store backend for the ledger
// collections and the journal of cascade deletion runs.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Documents table
-- One row per document; body holds the JSON document including its id
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    body TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (collection, id)
);

-- Cascade runs table
-- One row per tour deletion attempt
CREATE TABLE IF NOT EXISTS cascade_runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    tour_id TEXT NOT NULL,
    financial_entries INTEGER NOT NULL DEFAULT 0,
    customer_debts INTEGER NOT NULL DEFAULT 0,
    supplier_debts INTEGER NOT NULL DEFAULT 0,
    customers INTEGER NOT NULL DEFAULT 0,
    tour_deleted INTEGER NOT NULL DEFAULT 0,
    warnings TEXT NOT NULL DEFAULT '[]',     -- JSON array of warning strings
    error TEXT,                              -- fatal error, NULL on success
    ran_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_cascade_runs_tour
    ON cascade_runs(tour_id);

CREATE INDEX IF NOT EXISTS idx_cascade_runs_ran_at
    ON cascade_runs(ran_at);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.db.Exec(Schema); err != nil {
		return err
	}
	return nil
}
