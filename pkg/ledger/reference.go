package ledger

import (
	"context"
	"strings"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store"
)

// Reference is a field that points at another record, with every name it has
// been stored under. The first name is the one the encoders write.
type Reference []string

// References resolved the same way the Normalizer resolves them.
var (
	AccountRef     = Reference(fieldAccountID)
	TourRef        = Reference(fieldTourID)
	RelatedTourRef = Reference(fieldRelatedTourID)
	DebtRef        = Reference(fieldDebtID)
)

// Field returns the canonical field name.
func (r Reference) Field() string {
	return r[0]
}

// Resolve returns the value the Normalizer reads for r from doc.
func (r Reference) Resolve(doc store.Document) string {
	return stringField(doc, r...)
}

// Query returns the documents of collection that refer to value under any
// name of r. A document that carries several names counts only for the one
// the Normalizer would read, so a record is never claimed by two owners.
// Results are unique and keep the order of the names in r.
func (r Reference) Query(ctx context.Context, st store.Store, collection, value string) ([]store.Document, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	seen := make(map[string]bool)
	var out []store.Document
	for _, field := range r {
		docs, err := st.Query(ctx, collection, store.Eq(field, value))
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			if seen[doc.ID()] || r.Resolve(doc) != value {
				continue
			}
			seen[doc.ID()] = true
			out = append(out, doc)
		}
	}
	return out, nil
}
