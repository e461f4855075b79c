package cari

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/ledger"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store"
)

// AccountInput holds the editable fields of an account.
type AccountInput struct {
	Name          string             `json:"name"`
	Kind          ledger.AccountKind `json:"kind"`
	Phone         string             `json:"phone"`
	Email         string             `json:"email"`
	Address       string             `json:"address"`
	TaxNumber     string             `json:"taxNumber"`
	ContactPerson string             `json:"contactPerson"`
	Period        string             `json:"period"`
	Currency      string             `json:"currency"`
	Notes         string             `json:"notes"`
}

// CreateAccount creates an account with zero cached totals.
func (s *Service) CreateAccount(ctx context.Context, in AccountInput) (*ledger.Account, error) {
	const op = "cari.CreateAccount"

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%s: %w: name is required", op, ErrInvalidInput)
	}

	kind := in.Kind
	if kind != ledger.KindCustomer {
		kind = ledger.KindSupplier
	}

	now := s.now().UTC()
	account := ledger.Account{
		Name:          name,
		Kind:          kind,
		Phone:         strings.TrimSpace(in.Phone),
		Email:         strings.TrimSpace(in.Email),
		Address:       strings.TrimSpace(in.Address),
		TaxNumber:     strings.TrimSpace(in.TaxNumber),
		ContactPerson: strings.TrimSpace(in.ContactPerson),
		Period:        strings.TrimSpace(in.Period),
		Currency:      s.normalizer.Currency(in.Currency),
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	doc := ledger.AccountDocument(account)
	for k, v := range ledger.TotalsDocument(ledger.Summary{}, account.Currency, now) {
		doc[k] = v
	}

	id, err := s.store.Create(ctx, store.CollectionAccounts, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create account: %w", op, err)
	}

	s.log.Info().Str("account_id", id).Str("name", name).Msg("Created account")
	return s.GetAccount(ctx, id)
}

// GetAccount returns an account.
func (s *Service) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	doc, err := s.store.Get(ctx, store.CollectionAccounts, id)
	if err != nil {
		return nil, fmt.Errorf("cari.GetAccount: failed to get account %s: %w", id, err)
	}
	account := s.normalizer.Account(doc)
	return &account, nil
}

// ListAccounts returns the accounts of a period, or all accounts when period
// is empty, sorted by name.
func (s *Service) ListAccounts(ctx context.Context, period string) ([]ledger.Account, error) {
	var filters []store.Filter
	if period = strings.TrimSpace(period); period != "" {
		filters = append(filters, store.Eq("period", period))
	}

	docs, err := s.store.Query(ctx, store.CollectionAccounts, filters...)
	if err != nil {
		return nil, fmt.Errorf("cari.ListAccounts: failed to list accounts: %w", err)
	}

	accounts := make([]ledger.Account, 0, len(docs))
	for _, doc := range docs {
		accounts = append(accounts, s.normalizer.Account(doc))
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		return strings.ToLower(accounts[i].Name) < strings.ToLower(accounts[j].Name)
	})
	return accounts, nil
}

// UpdateAccount replaces the contact fields of an account. Empty fields in
// in are cleared, except Name and Currency which keep their values.
func (s *Service) UpdateAccount(ctx context.Context, id string, in AccountInput) (*ledger.Account, error) {
	const op = "cari.UpdateAccount"

	current, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	partial := store.Document{
		"phone":         nilIfEmpty(in.Phone),
		"email":         nilIfEmpty(in.Email),
		"address":       nilIfEmpty(in.Address),
		"taxNumber":     nilIfEmpty(in.TaxNumber),
		"contactPerson": nilIfEmpty(in.ContactPerson),
		"period":        nilIfEmpty(in.Period),
		"notes":         nilIfEmpty(in.Notes),
		"updatedAt":     s.now().UTC().Format(timeLayout),
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		partial["name"] = name
	}
	if in.Kind == ledger.KindCustomer || in.Kind == ledger.KindSupplier {
		partial["kind"] = string(in.Kind)
	}
	currencyChanged := false
	if strings.TrimSpace(in.Currency) != "" {
		cur := s.normalizer.Currency(in.Currency)
		partial["currency"] = cur
		currencyChanged = cur != current.Currency
	}

	if err := s.store.Update(ctx, store.CollectionAccounts, id, partial); err != nil {
		return nil, fmt.Errorf("%s: failed to update account %s: %w", op, id, err)
	}
	if currencyChanged {
		// Scalar totals follow the primary currency.
		s.afterMutation(ctx, id)
	}
	return s.GetAccount(ctx, id)
}

// FindOrCreateAccount returns the account with the given name in period,
// creating it when none exists. Names are compared case-insensitively.
func (s *Service) FindOrCreateAccount(ctx context.Context, name, period string) (*ledger.Account, error) {
	const op = "cari.FindOrCreateAccount"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%s: %w: name is required", op, ErrInvalidInput)
	}

	accounts, err := s.ListAccounts(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, acc := range accounts {
		if strings.EqualFold(acc.Name, name) {
			return &acc, nil
		}
	}

	s.log.Debug().Str("name", name).Str("period", period).Msg("Creating account implicitly")
	return s.CreateAccount(ctx, AccountInput{Name: name, Period: period})
}

// DeleteAccount deletes an account with all of its payments and debts. The
// account itself goes last so a failure never leaves orphaned records.
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	const op = "cari.DeleteAccount"

	if _, err := s.store.Get(ctx, store.CollectionAccounts, id); err != nil {
		return fmt.Errorf("%s: failed to get account %s: %w", op, id, err)
	}

	for _, collection := range []string{store.CollectionPayments, store.CollectionDebts} {
		docs, err := ledger.AccountRef.Query(ctx, s.store, collection, id)
		if err != nil {
			return fmt.Errorf("%s: failed to query %s: %w", op, collection, err)
		}
		for _, doc := range docs {
			if err := s.store.Delete(ctx, collection, doc.ID()); err != nil {
				return fmt.Errorf("%s: failed to delete %s/%s: %w", op, collection, doc.ID(), err)
			}
		}
	}

	if err := s.store.Delete(ctx, store.CollectionAccounts, id); err != nil {
		return fmt.Errorf("%s: failed to delete account %s: %w", op, id, err)
	}

	s.log.Info().Str("account_id", id).Msg("Deleted account")
	return nil
}

func nilIfEmpty(s string) any {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}
