package cari

import (
	"context"
	"fmt"
	"strings"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/ledger"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store"
)

// DebtInput describes a new debt. Either AccountID or AccountName must be
// set; a name that matches no account in Period creates one.
type DebtInput struct {
	AccountID     string `json:"accountId"`
	AccountName   string `json:"accountName"`
	Period        string `json:"period"`
	Amount        Amount `json:"amount"`
	Currency      string `json:"currency"`
	PaidAmount    Amount `json:"paidAmount"`
	ReservationID string `json:"reservationId"`
	TourID        string `json:"tourId"`
	Description   string `json:"description"`
	Notes         string `json:"notes"`
	DueDate       Date   `json:"dueDate"`
}

// AddDebt records a debt on an account.
func (s *Service) AddDebt(ctx context.Context, in DebtInput) (*ledger.DebtRecord, error) {
	const op = "cari.AddDebt"

	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%s: %w: amount must be positive", op, ErrInvalidInput)
	}
	if in.PaidAmount.IsNegative() {
		return nil, fmt.Errorf("%s: %w: paid amount must not be negative", op, ErrInvalidInput)
	}

	account, err := s.resolveAccount(ctx, in.AccountID, in.AccountName, in.Period)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	currency := in.Currency
	if strings.TrimSpace(currency) == "" {
		currency = account.Currency
	}

	now := s.now().UTC()
	debt := ledger.DebtRecord{
		AccountID:     account.ID,
		Amount:        in.Amount.Decimal,
		Currency:      s.normalizer.Currency(currency),
		PaidAmount:    in.PaidAmount.Decimal,
		ReservationID: strings.TrimSpace(in.ReservationID),
		TourID:        strings.TrimSpace(in.TourID),
		Description:   in.Description,
		Notes:         in.Notes,
		DueDate:       in.DueDate.Time,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	debt.Status = ledger.DebtStatusFor(debt.Amount, debt.PaidAmount)

	id, err := s.store.Create(ctx, store.CollectionDebts, ledger.DebtDocument(debt))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create debt: %w", op, err)
	}
	debt.ID = id

	s.log.Info().
		Str("debt_id", id).
		Str("account_id", account.ID).
		Str("amount", debt.Amount.String()).
		Str("currency", debt.Currency).
		Msg("Added debt")

	s.afterMutation(ctx, account.ID)
	return &debt, nil
}

// GetDebt returns a debt.
func (s *Service) GetDebt(ctx context.Context, id string) (*ledger.DebtRecord, error) {
	doc, err := s.store.Get(ctx, store.CollectionDebts, id)
	if err != nil {
		return nil, fmt.Errorf("cari.GetDebt: failed to get debt %s: %w", id, err)
	}
	debt := s.normalizer.Debt(doc)
	return &debt, nil
}

// DeleteDebt deletes a debt that no linked payment references.
func (s *Service) DeleteDebt(ctx context.Context, id string) error {
	const op = "cari.DeleteDebt"

	debt, err := s.GetDebt(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	linked, err := ledger.DebtRef.Query(ctx, s.store, store.CollectionPayments, id)
	if err != nil {
		return fmt.Errorf("%s: failed to query payments: %w", op, err)
	}
	if len(linked) > 0 {
		return fmt.Errorf("%s: %w: %d payment(s) settle debt %s", op, ErrDebtHasPayments, len(linked), id)
	}

	if err := s.store.Delete(ctx, store.CollectionDebts, id); err != nil {
		return fmt.Errorf("%s: failed to delete debt %s: %w", op, id, err)
	}

	s.log.Info().Str("debt_id", id).Str("account_id", debt.AccountID).Msg("Deleted debt")
	s.afterMutation(ctx, debt.AccountID)
	return nil
}

func (s *Service) resolveAccount(ctx context.Context, id, name, period string) (*ledger.Account, error) {
	if id = strings.TrimSpace(id); id != "" {
		return s.GetAccount(ctx, id)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: account id or name is required", ErrInvalidInput)
	}
	return s.FindOrCreateAccount(ctx, name, period)
}
