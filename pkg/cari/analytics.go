package cari

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/ledger"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store"
)

// AccountSummary is the live per-currency position of an account.
type AccountSummary struct {
	Account   ledger.Account             `json:"account"`
	Totals    []ledger.Totals            `json:"totals"`
	Positions map[string]ledger.Position `json:"positions"`
	Linkage   map[ledger.Linkage]int     `json:"linkage"`
	Debts     map[ledger.DebtStatus]int  `json:"debts"`
}

// Summary aggregates the records of an account. Cached totals on the account
// are not consulted.
func (s *Service) Summary(ctx context.Context, accountID string) (*AccountSummary, error) {
	const op = "cari.Summary"

	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	debts, payments, err := s.ledgerOf(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	summary := ledger.Aggregate(debts, payments)
	out := &AccountSummary{
		Account:   *account,
		Totals:    make([]ledger.Totals, 0, len(summary)),
		Positions: make(map[string]ledger.Position, len(summary)),
		Linkage:   map[ledger.Linkage]int{ledger.General: 0, ledger.Linked: 0},
		Debts:     map[ledger.DebtStatus]int{},
	}
	for _, cur := range summary.Currencies() {
		totals := summary.For(cur)
		out.Totals = append(out.Totals, totals)
		out.Positions[cur] = totals.Position(account.Kind)
	}
	for _, p := range payments {
		out.Linkage[ledger.Classify(p)]++
	}
	for _, d := range debts {
		out.Debts[d.Status]++
	}
	return out, nil
}

// Statement returns the chronological statement of an account in one
// currency. An empty currency selects the account's own.
func (s *Service) Statement(ctx context.Context, accountID, currency string) ([]ledger.StatementRow, error) {
	const op = "cari.Statement"

	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if strings.TrimSpace(currency) == "" {
		currency = account.Currency
	}

	debts, payments, err := s.ledgerOf(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ledger.BuildStatement(debts, payments, s.normalizer.Currency(currency)), nil
}

// AccountTrend returns the twelve-month trend of an account. currency may be
// ledger.AllCurrencies.
func (s *Service) AccountTrend(ctx context.Context, accountID, currency string) ([]ledger.TrendPoint, error) {
	const op = "cari.AccountTrend"

	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	debts, payments, err := s.ledgerOf(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ledger.MonthlyTrend(debts, payments, trendFilter(currency), s.now()), nil
}

// GlobalTrend returns the twelve-month trend over every account.
func (s *Service) GlobalTrend(ctx context.Context, currency string) ([]ledger.TrendPoint, error) {
	debts, payments, err := s.allRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("cari.GlobalTrend: %w", err)
	}
	return ledger.MonthlyTrend(debts, payments, trendFilter(currency), s.now()), nil
}

func trendFilter(currency string) string {
	if strings.TrimSpace(currency) == "" {
		return ledger.AllCurrencies
	}
	if strings.EqualFold(strings.TrimSpace(currency), ledger.AllCurrencies) {
		return ledger.AllCurrencies
	}
	return currency
}

// SupplierDebtLine is the open debt of one account in one currency.
type SupplierDebtLine struct {
	AccountID   string          `json:"accountId"`
	AccountName string          `json:"accountName"`
	Currency    string          `json:"currency"`
	OpenDebts   int             `json:"openDebts"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// SupplierDebtOverview lists the outstanding debt of every account per
// currency, ordered by account name then currency. Settled debts are left
// out.
func (s *Service) SupplierDebtOverview(ctx context.Context) ([]SupplierDebtLine, error) {
	const op = "cari.SupplierDebtOverview"

	debtDocs, err := s.store.Query(ctx, store.CollectionDebts)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load debts: %w", op, err)
	}
	accountDocs, err := s.store.Query(ctx, store.CollectionAccounts)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load accounts: %w", op, err)
	}

	names := make(map[string]string, len(accountDocs))
	for _, doc := range accountDocs {
		names[doc.ID()] = s.normalizer.Account(doc).Name
	}

	type key struct{ account, currency string }
	lines := make(map[key]*SupplierDebtLine)
	for _, d := range s.normalizer.Debts(debtDocs) {
		if d.Status == ledger.StatusPaid {
			continue
		}
		k := key{d.AccountID, d.Currency}
		line, ok := lines[k]
		if !ok {
			line = &SupplierDebtLine{
				AccountID:   d.AccountID,
				AccountName: names[d.AccountID],
				Currency:    d.Currency,
				Outstanding: decimal.Zero,
			}
			lines[k] = line
		}
		line.OpenDebts++
		line.Outstanding = line.Outstanding.Add(d.Remaining())
	}

	out := make([]SupplierDebtLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AccountName != out[j].AccountName {
			return out[i].AccountName < out[j].AccountName
		}
		if out[i].AccountID != out[j].AccountID {
			return out[i].AccountID < out[j].AccountID
		}
		return out[i].Currency < out[j].Currency
	})
	return out, nil
}
