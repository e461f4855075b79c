package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Linkage tells whether a payment belongs to another workflow.
type Linkage string

const (
	// General payments are entered on the ledger directly.
	General Linkage = "general"
	// Linked payments were recorded by settling a debt or a reservation.
	Linked Linkage = "linked"
)

// Owning workflows of linked payments.
const (
	WorkflowDebtSettlement = "debt settlement"
	WorkflowReservation    = "reservation"
)

// ErrLinkedPayment is matched by every LinkedPaymentError.
var ErrLinkedPayment = errors.New("payment is linked to another workflow")

// LinkedPaymentError rejects a direct edit or delete of a linked payment.
type LinkedPaymentError struct {
	PaymentID string
	Workflow  string
	Reason    string
}

func (e *LinkedPaymentError) Error() string {
	return fmt.Sprintf("payment %s: %s", e.PaymentID, e.Reason)
}

// Is reports whether target is ErrLinkedPayment.
func (e *LinkedPaymentError) Is(target error) bool {
	return target == ErrLinkedPayment
}

// Classify returns Linked when the payment references a debt or a
// reservation, General otherwise.
func Classify(p PaymentRecord) Linkage {
	if strings.TrimSpace(p.DebtID) != "" || strings.TrimSpace(p.ReservationID) != "" {
		return Linked
	}
	return General
}

// DefaultGenericPhrases mark linked payments from older data that were in
// fact entered as general payments.
var DefaultGenericPhrases = []string{
	"genel ödeme",
	"genel odeme",
	"general payment",
	"cari ödeme",
}

// Resolver decides whether a payment may be changed from the ledger surface.
type Resolver struct {
	phrases []string
}

// NewResolver creates a Resolver. A nil phrases list uses DefaultGenericPhrases.
func NewResolver(phrases []string) *Resolver {
	if phrases == nil {
		phrases = DefaultGenericPhrases
	}
	normalized := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase != "" {
			normalized = append(normalized, phrase)
		}
	}
	return &Resolver{phrases: normalized}
}

// Editable reports whether p may be edited or deleted directly. When it may
// not, the second result names the reason.
func (r *Resolver) Editable(p PaymentRecord) (bool, string) {
	if Classify(p) == General {
		return true, ""
	}
	if r.isLegacyGeneral(p) {
		return true, ""
	}
	return false, fmt.Sprintf("this payment was recorded through the %s workflow; change it there", owningWorkflow(p))
}

// CheckMutable returns a *LinkedPaymentError when p may not be edited or
// deleted directly.
func (r *Resolver) CheckMutable(p PaymentRecord) error {
	ok, reason := r.Editable(p)
	if ok {
		return nil
	}
	return &LinkedPaymentError{
		PaymentID: p.ID,
		Workflow:  owningWorkflow(p),
		Reason:    reason,
	}
}

func (r *Resolver) isLegacyGeneral(p PaymentRecord) bool {
	description := strings.ToLower(p.Description)
	for _, phrase := range r.phrases {
		if strings.Contains(description, phrase) {
			return true
		}
	}
	return false
}

func owningWorkflow(p PaymentRecord) string {
	if strings.TrimSpace(p.DebtID) != "" {
		return WorkflowDebtSettlement
	}
	return WorkflowReservation
}
