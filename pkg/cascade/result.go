// Package cascade removes every record that depends on a tour when the tour
// is deleted.
package cascade

import (
	"context"
	"errors"
	"fmt"
)

// ErrTourDeletion wraps the only failure that makes a cascade fatal.
var ErrTourDeletion = errors.New("failed to delete tour")

// Phase names a step of the cascade.
type Phase string

// Phases in execution order.
const (
	PhaseFinancialEntries Phase = "financial_entries"
	PhaseCustomerDebts    Phase = "customer_debts"
	PhaseSupplierDebts    Phase = "supplier_debts"
	PhaseCustomer         Phase = "customer"
	PhaseTour             Phase = "tour"
	PhaseTotals           Phase = "totals"
)

// Warning is a non-fatal failure inside a phase.
type Warning struct {
	Phase      Phase  `json:"phase"`
	DocumentID string `json:"documentId,omitempty"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (w Warning) String() string {
	s := string(w.Phase)
	if w.DocumentID != "" {
		s += " " + w.DocumentID
	}
	s += ": " + w.Message
	if w.Err != nil {
		s += ": " + w.Err.Error()
	}
	return s
}

// Result reports what a cascade run removed and what it could not.
type Result struct {
	TourID           string   `json:"tourId"`
	FinancialEntries []string `json:"financialEntries"`
	CustomerDebts    []string `json:"customerDebts"`
	SupplierDebts    []string `json:"supplierDebts"`
	Customers        []string `json:"customers"`
	PreservedDebts   []string `json:"preservedDebts,omitempty"`
	// AmbiguousDebts name a longer tour ID in their legacy notes. They are
	// kept and do not count as warnings.
	AmbiguousDebts []string  `json:"ambiguousDebts,omitempty"`
	TourDeleted    bool      `json:"tourDeleted"`
	Warnings       []Warning `json:"warnings"`
}

// Complete reports whether the run removed everything without warnings.
func (r *Result) Complete() bool {
	return r.TourDeleted && len(r.Warnings) == 0
}

func (r *Result) warn(phase Phase, docID, msg string, err error) {
	r.Warnings = append(r.Warnings, Warning{Phase: phase, DocumentID: docID, Message: msg, Err: err})
}

// TotalsRefresher recomputes the cached totals of an account.
type TotalsRefresher interface {
	RefreshTotals(ctx context.Context, accountID string) error
}

// Journal records cascade runs.
type Journal interface {
	Record(ctx context.Context, result *Result, fatal error) error
}

func tourDeletionError(tourID string, err error) error {
	return fmt.Errorf("%w %s: %w", ErrTourDeletion, tourID, err)
}
