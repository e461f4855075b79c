package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store"
)

// DocumentStore implements store.Store on the documents table.
type DocumentStore struct {
	conn *Connection
}

// NewDocumentStore creates a new DocumentStore instance.
func NewDocumentStore(conn *Connection) *DocumentStore {
	return &DocumentStore{conn: conn}
}

// OpenDocumentStore opens the database at dbPath and returns a store that
// owns the connection.
func OpenDocumentStore(dbPath string) (*DocumentStore, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return &DocumentStore{conn: conn}, nil
}

// Create inserts a document.
func (s *DocumentStore) Create(ctx context.Context, collection string, doc store.Document) (string, error) {
	prepared, err := store.Prepare(doc, uuid.NewString())
	if err != nil {
		return "", err
	}

	body, err := store.Encode(prepared)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, id, body)
		VALUES (?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			body = excluded.body,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := s.conn.ExecContext(ctx, query, collection, prepared.ID(), string(body)); err != nil {
		return "", unavailable("failed to create document", err)
	}

	return prepared.ID(), nil
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(ctx context.Context, collection, id string) (store.Document, error) {
	if id == "" {
		return nil, store.ErrInvalidID
	}

	query := `SELECT body FROM documents WHERE collection = ? AND id = ?`

	var body string
	err := s.conn.QueryRowContext(ctx, query, collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("failed to get document", err)
	}

	doc, err := store.Decode([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

// Query returns the documents of a collection matching every filter.
// Filtering happens in Go with store.Match so semantics stay identical
// across backends.
func (s *DocumentStore) Query(ctx context.Context, collection string, filters ...store.Filter) ([]store.Document, error) {
	query := `SELECT id, body FROM documents WHERE collection = ? ORDER BY id`

	rows, err := s.conn.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, unavailable("failed to query documents", err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, unavailable("failed to scan document", err)
		}

		doc, err := store.Decode([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s/%s: %w", collection, id, err)
		}
		if store.Match(doc, filters) {
			docs = append(docs, doc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("failed to iterate documents", err)
	}

	return docs, nil
}

// Update merges partial into the stored document.
func (s *DocumentStore) Update(ctx context.Context, collection, id string, partial store.Document) error {
	if id == "" {
		return store.ErrInvalidID
	}

	err := s.conn.Transaction(ctx, func(tx *sql.Tx) error {
		var body string
		err := tx.QueryRowContext(ctx,
			`SELECT body FROM documents WHERE collection = ? AND id = ?`,
			collection, id,
		).Scan(&body)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return unavailable("failed to read document", err)
		}

		doc, err := store.Decode([]byte(body))
		if err != nil {
			return fmt.Errorf("failed to unmarshal %s/%s: %w", collection, id, err)
		}
		if _, err := store.ApplyUpdate(doc, partial); err != nil {
			return err
		}

		updated, err := store.Encode(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE documents SET body = ?, updated_at = CURRENT_TIMESTAMP WHERE collection = ? AND id = ?`,
			string(updated), collection, id,
		)
		if err != nil {
			return unavailable("failed to update document", err)
		}
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return store.ErrNotFound
	}
	return err
}

// Delete removes a document.
func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	if id == "" {
		return store.ErrInvalidID
	}

	query := `DELETE FROM documents WHERE collection = ? AND id = ?`
	if _, err := s.conn.ExecContext(ctx, query, collection, id); err != nil {
		return unavailable("failed to delete document", err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *DocumentStore) Close() error {
	return s.conn.Close()
}

// Connection returns the connection backing the store.
func (s *DocumentStore) Connection() *Connection {
	return s.conn
}

// unavailable wraps a driver failure with store.ErrUnavailable.
func unavailable(msg string, err error) error {
	if errors.Is(err, store.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", store.ErrUnavailable, msg, err)
}

var _ store.Store = (*DocumentStore)(nil)
