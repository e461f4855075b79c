package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// BoltStore is a Store on top of a bbolt database. Each collection is a
// bucket; documents are stored as JSON keyed by their ID.
type BoltStore struct {
	db *bolt.DB
}

// DefaultCollections are the buckets created when a BoltStore is opened.
var DefaultCollections = []string{
	CollectionAccounts,
	CollectionDebts,
	CollectionPayments,
	CollectionFinancialEntries,
	CollectionCustomerDebts,
	CollectionCustomers,
	CollectionTours,
}

// OpenBolt opens (or creates) the database at dbPath and initializes buckets.
func OpenBolt(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrUnavailable, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range DefaultCollections {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Create implements Store.
func (s *BoltStore) Create(_ context.Context, collection string, doc Document) (string, error) {
	prepared, err := Prepare(doc, uuid.NewString())
	if err != nil {
		return "", err
	}

	data, err := Encode(prepared)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", collection, err)
		}
		return b.Put([]byte(prepared.ID()), data)
	})
	if err != nil {
		return "", unavailable("create", collection, err)
	}
	return prepared.ID(), nil
}

// Get implements Store.
func (s *BoltStore) Get(_ context.Context, collection, id string) (Document, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	var doc Document
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return ErrNotFound
		}

		data := b.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}

		var err error
		doc, err = decodeStored(collection, id, data)
		return err
	})
	if err != nil {
		return nil, txError("get", collection, err)
	}
	return doc, nil
}

// Query implements Store.
func (s *BoltStore) Query(_ context.Context, collection string, filters ...Filter) ([]Document, error) {
	var results []Document

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			doc, err := decodeStored(collection, string(k), v)
			if err != nil {
				return err
			}
			if Match(doc, filters) {
				results = append(results, doc)
			}
			return nil
		})
	})
	if err != nil {
		return nil, txError("query", collection, err)
	}

	return results, nil
}

// Update implements Store.
func (s *BoltStore) Update(_ context.Context, collection, id string, partial Document) error {
	if id == "" {
		return ErrInvalidID
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return ErrNotFound
		}

		data := b.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}

		doc, err := decodeStored(collection, id, data)
		if err != nil {
			return err
		}
		if _, err := ApplyUpdate(doc, partial); err != nil {
			return &documentError{collection: collection, id: id, err: err}
		}

		updated, err := Encode(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		return b.Put([]byte(id), updated)
	})
	if err != nil {
		return txError("update", collection, err)
	}
	return nil
}

// Delete implements Store.
func (s *BoltStore) Delete(_ context.Context, collection, id string) error {
	if id == "" {
		return ErrInvalidID
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(id))
	})
	if err != nil {
		return unavailable("delete", collection, err)
	}
	return nil
}

// unavailable wraps an engine failure with ErrUnavailable.
func unavailable(op, collection string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, op, collection, err)
}

// documentError is a failure caused by a document's contents rather than by
// the database. Retrying does not help, so it is never ErrUnavailable.
type documentError struct {
	collection string
	id         string
	err        error
}

func (e *documentError) Error() string {
	return fmt.Sprintf("failed to decode %s/%s: %v", e.collection, e.id, e.err)
}

func (e *documentError) Unwrap() error {
	return e.err
}

func decodeStored(collection, id string, data []byte) (Document, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, &documentError{collection: collection, id: id, err: err}
	}
	return doc, nil
}

// txError maps an error returned from a transaction. ErrNotFound and
// document errors pass through; anything else came from bbolt.
func txError(op, collection string, err error) error {
	var docErr *documentError
	if errors.Is(err, ErrNotFound) || errors.As(err, &docErr) {
		return err
	}
	return unavailable(op, collection, err)
}

var _ Store = (*BoltStore)(nil)
