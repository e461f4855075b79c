// Package ledger holds the typed cari records and the pure functions that
// compute balances, snapshots, linkage, trends and statements over them.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtStatus is the settlement state of a debt.
type DebtStatus string

const (
	StatusUnpaid        DebtStatus = "unpaid"
	StatusPartiallyPaid DebtStatus = "partially_paid"
	StatusPaid          DebtStatus = "paid"
)

// AccountKind decides how a positive balance is read.
type AccountKind string

const (
	// KindSupplier accounts accumulate what the agency owes.
	KindSupplier AccountKind = "supplier"
	// KindCustomer accounts accumulate what is owed to the agency.
	KindCustomer AccountKind = "customer"
)

// Account is a cari card. The cached totals are best-effort copies of the
// aggregated ledger and are never read back as the source of truth.
type Account struct {
	ID            string      `json:"id,omitempty"`
	Name          string      `json:"name,omitempty"`
	Kind          AccountKind `json:"kind"`
	Phone         string      `json:"phone,omitempty"`
	Email         string      `json:"email,omitempty"`
	Address       string      `json:"address,omitempty"`
	TaxNumber     string      `json:"taxNumber,omitempty"`
	ContactPerson string      `json:"contactPerson,omitempty"`
	Period        string      `json:"period,omitempty"`
	Currency      string      `json:"currency,omitempty"`
	Notes         string      `json:"notes,omitempty"`

	TotalDebt    decimal.Decimal   `json:"totalDebt"`
	TotalPayment decimal.Decimal   `json:"totalPayment"`
	Balance      decimal.Decimal   `json:"balance"`
	Totals       map[string]Totals `json:"totals,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DebtRecord is one amount owed on an account.
type DebtRecord struct {
	ID            string          `json:"id,omitempty"`
	AccountID     string          `json:"accountId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency,omitempty"`
	ReservationID string          `json:"reservationId,omitempty"`
	TourID        string          `json:"tourId,omitempty"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	Status        DebtStatus      `json:"status"`
	Description   string          `json:"description,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	DueDate       time.Time       `json:"dueDate"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Remaining returns the unpaid part of the debt, never negative.
func (d DebtRecord) Remaining() decimal.Decimal {
	remaining := d.Amount.Sub(d.PaidAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// Date is the date the debt counts from.
func (d DebtRecord) Date() time.Time {
	if !d.CreatedAt.IsZero() {
		return d.CreatedAt
	}
	return d.DueDate
}

// PaymentRecord is a collection (positive amount) or refund (negative amount).
type PaymentRecord struct {
	ID            string          `json:"id,omitempty"`
	AccountID     string          `json:"accountId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency,omitempty"`
	PaymentDate   time.Time       `json:"paymentDate"`
	Description   string          `json:"description,omitempty"`
	Method        string          `json:"paymentMethod,omitempty"`
	Counterparty  string          `json:"counterparty,omitempty"`
	DebtID        string          `json:"debtId,omitempty"`
	ReservationID string          `json:"reservationId,omitempty"`

	// BalanceSnapshot is the balance in Currency immediately before this
	// payment. Nil for records written before snapshots existed.
	BalanceSnapshot *decimal.Decimal `json:"balanceSnapshot,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Date is the date the payment counts from.
func (p PaymentRecord) Date() time.Time {
	if !p.PaymentDate.IsZero() {
		return p.PaymentDate
	}
	return p.CreatedAt
}

// BalanceAfter returns the balance right after the payment. The second result
// is false when the payment carries no snapshot.
func (p PaymentRecord) BalanceAfter() (decimal.Decimal, bool) {
	if p.BalanceSnapshot == nil {
		return decimal.Zero, false
	}
	return p.BalanceSnapshot.Sub(p.Amount), true
}

// FinancialEntry is an income or expense line, optionally tied to a tour.
type FinancialEntry struct {
	ID            string          `json:"id,omitempty"`
	Type          string          `json:"type,omitempty"`
	Category      string          `json:"category,omitempty"`
	Description   string          `json:"description,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency,omitempty"`
	Date          time.Time       `json:"date"`
	RelatedTourID string          `json:"relatedTourId,omitempty"`
}

// CustomerRecord is a customer card, often created automatically from a tour.
type CustomerRecord struct {
	ID             string `json:"id,omitempty"`
	Name           string `json:"name,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	NationalID     string `json:"nationalId,omitempty"`
	PassportNumber string `json:"passportNumber,omitempty"`
	DrivingLicense string `json:"drivingLicense,omitempty"`
	SourceTourID   string `json:"sourceTourId,omitempty"`
}

// Tour is a sold tour. Only the fields used to find its dependents are kept.
type Tour struct {
	ID                     string    `json:"id,omitempty"`
	CustomerName           string    `json:"customerName,omitempty"`
	CustomerPhone          string    `json:"customerPhone,omitempty"`
	CustomerNationalID     string    `json:"customerNationalId,omitempty"`
	CustomerPassportNumber string    `json:"customerPassportNumber,omitempty"`
	CustomerDrivingLicense string    `json:"customerDrivingLicense,omitempty"`
	TourDate               time.Time `json:"tourDate"`
}
