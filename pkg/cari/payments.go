package cari

import (
	"context"
	"fmt"
	"strings"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/ledger"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store"
)

// PaymentInput describes a general payment. A negative amount is a refund.
type PaymentInput struct {
	AccountID    string `json:"accountId"`
	Amount       Amount `json:"amount"`
	Currency     string `json:"currency"`
	Date         Date   `json:"date"`
	Description  string `json:"description"`
	Method       string `json:"paymentMethod"`
	Counterparty string `json:"counterparty"`
}

// SettleInput describes a payment against a single debt.
type SettleInput struct {
	Amount       Amount `json:"amount"`
	Date         Date   `json:"date"`
	Description  string `json:"description"`
	Method       string `json:"paymentMethod"`
	Counterparty string `json:"counterparty"`
}

// PaymentUpdate holds the fields to change on a payment. Nil fields are kept.
type PaymentUpdate struct {
	Amount       *Amount `json:"amount"`
	Date         *Date   `json:"date"`
	Description  *string `json:"description"`
	Method       *string `json:"paymentMethod"`
	Counterparty *string `json:"counterparty"`
}

// AddPayment records a general payment. The balance of its currency before
// the payment is frozen onto it.
func (s *Service) AddPayment(ctx context.Context, in PaymentInput) (*ledger.PaymentRecord, error) {
	const op = "cari.AddPayment"

	if in.Amount.IsZero() {
		return nil, fmt.Errorf("%s: %w: amount must not be zero", op, ErrInvalidInput)
	}

	account, err := s.GetAccount(ctx, in.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	currency := in.Currency
	if strings.TrimSpace(currency) == "" {
		currency = account.Currency
	}

	now := s.now().UTC()
	date := in.Date.Time
	if date.IsZero() {
		date = now
	}

	p := ledger.PaymentRecord{
		AccountID:    account.ID,
		Amount:       in.Amount.Decimal,
		Currency:     s.normalizer.Currency(currency),
		PaymentDate:  date,
		Description:  in.Description,
		Method:       in.Method,
		Counterparty: in.Counterparty,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.createWithSnapshot(ctx, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.afterMutation(ctx, account.ID)
	return &p, nil
}

// SettleDebt records a payment linked to a debt and adds it to the debt's
// paid amount. The payment carries the balance snapshot like any other.
func (s *Service) SettleDebt(ctx context.Context, debtID string, in SettleInput) (*ledger.PaymentRecord, *ledger.DebtRecord, error) {
	const op = "cari.SettleDebt"

	if in.Amount.IsZero() {
		return nil, nil, fmt.Errorf("%s: %w: amount must not be zero", op, ErrInvalidInput)
	}

	debt, err := s.GetDebt(ctx, debtID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	date := in.Date.Time
	if date.IsZero() {
		date = now
	}

	p := ledger.PaymentRecord{
		AccountID:     debt.AccountID,
		Amount:        in.Amount.Decimal,
		Currency:      debt.Currency,
		PaymentDate:   date,
		Description:   in.Description,
		Method:        in.Method,
		Counterparty:  in.Counterparty,
		DebtID:        debt.ID,
		ReservationID: debt.ReservationID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.createWithSnapshot(ctx, &p); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	updated := ledger.ApplyPaymentToDebt(*debt, in.Amount.Decimal, now)
	partial := store.Document{
		"paidAmount": updated.PaidAmount.InexactFloat64(),
		"status":     string(updated.Status),
		"updatedAt":  now.Format(timeLayout),
	}
	if err := s.store.Update(ctx, store.CollectionDebts, debt.ID, partial); err != nil {
		// The payment stays: it is a real movement and the snapshot is frozen.
		s.log.Error().Err(err).Str("debt_id", debt.ID).Str("payment_id", p.ID).Msg("Payment recorded but debt not updated")
		return &p, debt, fmt.Errorf("%s: failed to update debt %s: %w", op, debt.ID, err)
	}

	s.log.Info().
		Str("debt_id", debt.ID).
		Str("payment_id", p.ID).
		Str("status", string(updated.Status)).
		Msg("Settled debt")

	s.afterMutation(ctx, debt.AccountID)
	return &p, &updated, nil
}

// createWithSnapshot stamps p with the balance of its account's existing
// records and stores it.
func (s *Service) createWithSnapshot(ctx context.Context, p *ledger.PaymentRecord) error {
	debts, payments, err := s.ledgerOf(ctx, p.AccountID)
	if err != nil {
		return err
	}
	ledger.StampPayment(p, debts, payments)

	id, err := s.store.Create(ctx, store.CollectionPayments, ledger.PaymentDocument(*p))
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	p.ID = id

	s.log.Info().
		Str("payment_id", id).
		Str("account_id", p.AccountID).
		Str("amount", p.Amount.String()).
		Str("currency", p.Currency).
		Str("snapshot", p.BalanceSnapshot.String()).
		Msg("Recorded payment")
	return nil
}

// GetPayment returns a payment.
func (s *Service) GetPayment(ctx context.Context, id string) (*ledger.PaymentRecord, error) {
	doc, err := s.store.Get(ctx, store.CollectionPayments, id)
	if err != nil {
		return nil, fmt.Errorf("cari.GetPayment: failed to get payment %s: %w", id, err)
	}
	p := s.normalizer.Payment(doc)
	return &p, nil
}

// UpdatePayment changes a general payment. Linked payments are refused with a
// *ledger.LinkedPaymentError. The frozen snapshot is not recomputed.
func (s *Service) UpdatePayment(ctx context.Context, id string, upd PaymentUpdate) (*ledger.PaymentRecord, error) {
	const op = "cari.UpdatePayment"

	p, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.resolver.CheckMutable(*p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	partial := store.Document{"updatedAt": s.now().UTC().Format(timeLayout)}
	if upd.Amount != nil {
		if upd.Amount.IsZero() {
			return nil, fmt.Errorf("%s: %w: amount must not be zero", op, ErrInvalidInput)
		}
		partial["amount"] = upd.Amount.InexactFloat64()
	}
	if upd.Date != nil {
		partial["date"] = upd.Date.UTC().Format(timeLayout)
	}
	if upd.Description != nil {
		partial["description"] = *upd.Description
	}
	if upd.Method != nil {
		partial["paymentMethod"] = *upd.Method
	}
	if upd.Counterparty != nil {
		partial["counterparty"] = *upd.Counterparty
	}

	if err := s.store.Update(ctx, store.CollectionPayments, id, partial); err != nil {
		return nil, fmt.Errorf("%s: failed to update payment %s: %w", op, id, err)
	}

	s.log.Info().Str("payment_id", id).Msg("Updated payment")
	s.afterMutation(ctx, p.AccountID)
	return s.GetPayment(ctx, id)
}

// DeletePayment deletes a general payment. Linked payments are refused with a
// *ledger.LinkedPaymentError.
func (s *Service) DeletePayment(ctx context.Context, id string) error {
	const op = "cari.DeletePayment"

	p, err := s.GetPayment(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.resolver.CheckMutable(*p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.Delete(ctx, store.CollectionPayments, id); err != nil {
		return fmt.Errorf("%s: failed to delete payment %s: %w", op, id, err)
	}

	s.log.Info().Str("payment_id", id).Msg("Deleted payment")
	s.afterMutation(ctx, p.AccountID)
	return nil
}
