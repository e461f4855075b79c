// Package cari implements the current-account operations on top of the
// document store: accounts, debts, payments, cached totals and analytics.
package cari

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/config"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/ledger"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/logger"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store"
)

var (
	// ErrInvalidInput is returned when a request is missing required values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDebtHasPayments is returned when deleting a debt that linked
	// payments still reference.
	ErrDebtHasPayments = errors.New("debt has linked payments")
)

const timeLayout = time.RFC3339

// IsRetryable reports whether err came from an unavailable store. Nothing in
// this package retries on its own.
func IsRetryable(err error) bool {
	return errors.Is(err, store.ErrUnavailable)
}

// Service runs ledger operations against a store.
type Service struct {
	store      store.Store
	normalizer *ledger.Normalizer
	resolver   *ledger.Resolver
	now        func() time.Time
	log        zerolog.Logger
}

// NewService creates a new Service. A nil rules uses the built-in rules.
func NewService(st store.Store, rules *config.Rules) *Service {
	if rules == nil {
		rules = config.DefaultRules()
	}
	return &Service{
		store:      st,
		normalizer: ledger.NewNormalizer(rules.DefaultCurrency),
		resolver:   ledger.NewResolver(rules.GenericPaymentPhrases),
		now:        time.Now,
		log:        logger.WithComponent("cari"),
	}
}

// Normalizer returns the normalizer used by the service.
func (s *Service) Normalizer() *ledger.Normalizer {
	return s.normalizer
}

// ledgerOf loads the debts and payments of an account under any of the
// account reference names.
func (s *Service) ledgerOf(ctx context.Context, accountID string) ([]ledger.DebtRecord, []ledger.PaymentRecord, error) {
	debtDocs, err := ledger.AccountRef.Query(ctx, s.store, store.CollectionDebts, accountID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load debts: %w", err)
	}
	paymentDocs, err := ledger.AccountRef.Query(ctx, s.store, store.CollectionPayments, accountID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load payments: %w", err)
	}
	return s.normalizer.Debts(debtDocs), s.normalizer.Payments(paymentDocs), nil
}

// allRecords loads every debt and payment.
func (s *Service) allRecords(ctx context.Context) ([]ledger.DebtRecord, []ledger.PaymentRecord, error) {
	debtDocs, err := s.store.Query(ctx, store.CollectionDebts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load debts: %w", err)
	}
	paymentDocs, err := s.store.Query(ctx, store.CollectionPayments)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load payments: %w", err)
	}
	return s.normalizer.Debts(debtDocs), s.normalizer.Payments(paymentDocs), nil
}

// afterMutation refreshes cached totals. The ledger records are the source of
// truth, so a failed refresh is only logged.
func (s *Service) afterMutation(ctx context.Context, accountID string) {
	if accountID == "" {
		return
	}
	if err := s.RefreshTotals(ctx, accountID); err != nil {
		s.log.Warn().Err(err).Str("account_id", accountID).Msg("Failed to refresh cached totals")
	}
}

// RefreshTotals recomputes the cached totals of an account from its records.
func (s *Service) RefreshTotals(ctx context.Context, accountID string) error {
	const op = "cari.RefreshTotals"

	doc, err := s.store.Get(ctx, store.CollectionAccounts, accountID)
	if err != nil {
		return fmt.Errorf("%s: failed to get account %s: %w", op, accountID, err)
	}
	account := s.normalizer.Account(doc)

	debts, payments, err := s.ledgerOf(ctx, accountID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	summary := ledger.Aggregate(debts, payments)
	if err := s.store.Update(ctx, store.CollectionAccounts, accountID, ledger.TotalsDocument(summary, account.Currency, s.now())); err != nil {
		return fmt.Errorf("%s: failed to update account %s: %w", op, accountID, err)
	}
	return nil
}

// ReconcileReport summarizes a ReconcileAll run.
type ReconcileReport struct {
	Accounts int      `json:"accounts"`
	Failed   []string `json:"failed"`
}

// ReconcileAll recomputes the cached totals of every account. Per-account
// failures are collected; only a failure to list accounts is returned.
func (s *Service) ReconcileAll(ctx context.Context) (*ReconcileReport, error) {
	const op = "cari.ReconcileAll"

	docs, err := s.store.Query(ctx, store.CollectionAccounts)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list accounts: %w", op, err)
	}

	report := &ReconcileReport{Failed: []string{}}
	for _, doc := range docs {
		report.Accounts++
		if err := s.RefreshTotals(ctx, doc.ID()); err != nil {
			s.log.Error().Err(err).Str("account_id", doc.ID()).Msg("Failed to reconcile account")
			report.Failed = append(report.Failed, doc.ID())
		}
	}

	s.log.Info().Int("accounts", report.Accounts).Int("failed", len(report.Failed)).Msg("Reconciled cached totals")
	return report, nil
}
