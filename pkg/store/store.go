// Package store defines the document collection API the ledger runs against
// and ships in-memory and bbolt backends for it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a document is not found.
	ErrNotFound = errors.New("document not found")

	// ErrUnavailable wraps failures of the underlying storage engine. Callers
	// may retry operations that fail with it; backends never retry on their own.
	ErrUnavailable = errors.New("store unavailable")

	// ErrInvalidID is returned when an empty or malformed ID is provided.
	ErrInvalidID = errors.New("invalid ID")
)

// Collection names.
const (
	CollectionAccounts         = "cariAccounts"
	CollectionDebts            = "cariDebts"
	CollectionPayments         = "cariPayments"
	CollectionFinancialEntries = "financialEntries"
	CollectionCustomerDebts    = "customerDebts"
	CollectionCustomers        = "customers"
	CollectionTours            = "tours"
)

// FieldID is the document field holding the document key.
const FieldID = "id"

// Document is one record in a collection. Values are JSON-native: strings,
// float64, bool, nil, []any and map[string]any.
type Document map[string]any

// ID returns the document key.
func (d Document) ID() string {
	id, _ := d[FieldID].(string)
	return id
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out, err := roundTrip(d)
	if err != nil {
		// Documents only ever hold JSON-native values, so this cannot happen
		// for anything a backend returned.
		panic(fmt.Sprintf("store: clone document: %v", err))
	}
	return out
}

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "=="
	OpNe  Op = "!="
	OpLt  Op = "<"
	OpLte Op = "<="
	OpGt  Op = ">"
	OpGte Op = ">="
)

// Filter restricts a query to documents whose Field compares to Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq returns an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Gte returns a greater-or-equal filter.
func Gte(field string, value any) Filter {
	return Filter{Field: field, Op: OpGte, Value: value}
}

// Lte returns a less-or-equal filter.
func Lte(field string, value any) Filter {
	return Filter{Field: field, Op: OpLte, Value: value}
}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %v", f.Field, f.Op, f.Value)
}

// Store is the persistent collection API.
type Store interface {
	// Create inserts doc and returns its ID. A non-empty doc["id"] is used as
	// the key; otherwise a new one is generated.
	Create(ctx context.Context, collection string, doc Document) (string, error)

	// Get returns the document with the given ID or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Query returns every document matching all filters.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)

	// Update merges partial into the stored document. Keys with nil values
	// are removed. Returns ErrNotFound when the document does not exist.
	Update(ctx context.Context, collection, id string, partial Document) error

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Close releases the backend.
	Close() error
}

// Match reports whether doc satisfies every filter. A filter on a missing
// field only matches OpNe.
func Match(doc Document, filters []Filter) bool {
	for _, f := range filters {
		value, ok := doc[f.Field]
		if !ok || value == nil {
			if f.Op != OpNe || f.Value == nil {
				return false
			}
			continue
		}

		cmp, comparable := compare(value, normalizeValue(f.Value))
		if !comparable {
			if f.Op == OpNe {
				continue
			}
			return false
		}

		var pass bool
		switch f.Op {
		case OpEq:
			pass = cmp == 0
		case OpNe:
			pass = cmp != 0
		case OpLt:
			pass = cmp < 0
		case OpLte:
			pass = cmp <= 0
		case OpGt:
			pass = cmp > 0
		case OpGte:
			pass = cmp >= 0
		}
		if !pass {
			return false
		}
	}
	return true
}

// normalizeValue brings filter values into the JSON-native domain documents use.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case time.Time:
		return n.UTC().Format(time.RFC3339Nano)
	case interface{ InexactFloat64() float64 }:
		return n.InexactFloat64()
	case fmt.Stringer:
		return n.String()
	default:
		return v
	}
}

// compare orders a and b. The second result is false when the values are of
// incompatible kinds.
func compare(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		default:
			return 0, true
		}
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if av == bv {
			return 0, true
		}
		if !av {
			return -1, true
		}
		return 1, true
	default:
		return 0, false
	}
}

// merge applies partial onto doc in place.
func merge(doc, partial Document) {
	for k, v := range partial {
		if k == FieldID {
			continue
		}
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}
}

// roundTrip converts v into a JSON-native Document.
func roundTrip(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out Document
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SortByID orders documents by key so backends return stable results.
func SortByID(docs []Document) {
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID() < docs[j].ID()
	})
}

// Encode marshals a document for storage.
func Encode(doc Document) ([]byte, error) {
	return json.Marshal(doc)
}

// Decode unmarshals stored bytes into a document.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Prepare normalizes a document for insertion: it assigns id when empty and
// returns a JSON-native copy.
func Prepare(doc Document, id string) (Document, error) {
	prepared, err := roundTrip(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if prepared == nil {
		prepared = Document{}
	}
	if prepared.ID() == "" {
		prepared[FieldID] = id
	}
	return prepared, nil
}

// ApplyUpdate merges partial into stored after normalizing it.
func ApplyUpdate(stored, partial Document) (Document, error) {
	normalized, err := roundTrip(partial)
	if err != nil {
		return nil, fmt.Errorf("failed to encode update: %w", err)
	}
	merge(stored, normalized)
	return stored, nil
}
