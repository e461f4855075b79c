package cascade

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/config"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/ledger"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/logger"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store"
)

// Manager deletes tours together with their dependent records.
type Manager struct {
	store        store.Store
	normalizer   *ledger.Normalizer
	legacyPrefix string
	refresher    TotalsRefresher
	journal      Journal
	log          zerolog.Logger
}

// NewManager creates a new Manager.
func NewManager(st store.Store, normalizer *ledger.Normalizer) *Manager {
	return &Manager{
		store:        st,
		normalizer:   normalizer,
		legacyPrefix: config.DefaultLegacyTourPrefix,
		log:          logger.WithComponent("cascade"),
	}
}

// WithLegacyPrefix sets the prefix that precedes tour IDs in legacy notes.
func (m *Manager) WithLegacyPrefix(prefix string) *Manager {
	if prefix != "" {
		m.legacyPrefix = prefix
	}
	return m
}

// WithRefresher refreshes the cached totals of accounts that lost debts.
func (m *Manager) WithRefresher(r TotalsRefresher) *Manager {
	m.refresher = r
	return m
}

// WithJournal records every run.
func (m *Manager) WithJournal(j Journal) *Manager {
	m.journal = j
	return m
}

// DeleteSourceTransaction deletes the tour and everything that references it,
// in order: financial entries, customer debts, open supplier debts, the
// customer record created for the tour, and the tour itself.
//
// Each phase is best effort. Failures become warnings on the result and the
// remaining phases still run. Only a failure to delete the tour is returned
// as an error, wrapping ErrTourDeletion. Paid supplier debts are kept.
// Running it again for a tour that is already gone is safe.
func (m *Manager) DeleteSourceTransaction(ctx context.Context, tourID string) (*Result, error) {
	tourID = strings.TrimSpace(tourID)
	result := &Result{
		TourID:           tourID,
		FinancialEntries: []string{},
		CustomerDebts:    []string{},
		SupplierDebts:    []string{},
		Customers:        []string{},
		Warnings:         []Warning{},
	}
	if tourID == "" {
		return result, tourDeletionError(tourID, store.ErrInvalidID)
	}

	log := m.log.With().Str("tour_id", tourID).Logger()
	log.Info().Msg("Deleting tour and dependent records")

	// The tour is read first because the customer phase needs its details.
	// A missing tour does not stop the cascade.
	tour, tourFound := m.loadTour(ctx, tourID, result)

	result.FinancialEntries = m.deleteMatching(ctx, result, PhaseFinancialEntries,
		store.CollectionFinancialEntries, ledger.RelatedTourRef, tourID)

	result.CustomerDebts = m.deleteMatching(ctx, result, PhaseCustomerDebts,
		store.CollectionCustomerDebts, ledger.TourRef, tourID)

	affected := m.deleteSupplierDebts(ctx, tourID, result)

	if tourFound {
		m.deleteCustomer(ctx, tour, result)
	}

	var fatal error
	if err := m.store.Delete(ctx, store.CollectionTours, tourID); err != nil {
		fatal = tourDeletionError(tourID, err)
		result.warn(PhaseTour, tourID, "tour not deleted", err)
		log.Error().Err(err).Msg("Failed to delete tour")
	} else {
		result.TourDeleted = true
	}

	m.refreshTotals(ctx, affected, result)

	if m.journal != nil {
		if err := m.journal.Record(ctx, result, fatal); err != nil {
			log.Error().Err(err).Msg("Failed to record cascade run")
		}
	}

	log.Info().
		Int("financial_entries", len(result.FinancialEntries)).
		Int("customer_debts", len(result.CustomerDebts)).
		Int("supplier_debts", len(result.SupplierDebts)).
		Int("customers", len(result.Customers)).
		Int("warnings", len(result.Warnings)).
		Bool("tour_deleted", result.TourDeleted).
		Msg("Cascade finished")

	return result, fatal
}

func (m *Manager) loadTour(ctx context.Context, tourID string, result *Result) (ledger.Tour, bool) {
	doc, err := m.store.Get(ctx, store.CollectionTours, tourID)
	if errors.Is(err, store.ErrNotFound) {
		m.log.Debug().Str("tour_id", tourID).Msg("Tour already removed")
		return ledger.Tour{}, false
	}
	if err != nil {
		result.warn(PhaseCustomer, tourID, "failed to read tour", err)
		return ledger.Tour{}, false
	}
	return m.normalizer.Tour(doc), true
}

// deleteMatching deletes every document of collection that refers to tourID
// through ref and returns the IDs removed.
func (m *Manager) deleteMatching(ctx context.Context, result *Result, phase Phase, collection string, ref ledger.Reference, tourID string) []string {
	removed := []string{}

	docs, err := ref.Query(ctx, m.store, collection, tourID)
	if err != nil {
		result.warn(phase, "", "failed to query "+collection, err)
		m.log.Warn().Err(err).Str("phase", string(phase)).Msg("Query failed")
		return removed
	}

	for _, doc := range docs {
		if err := m.store.Delete(ctx, collection, doc.ID()); err != nil {
			result.warn(phase, doc.ID(), "failed to delete", err)
			m.log.Warn().Err(err).Str("phase", string(phase)).Str("id", doc.ID()).Msg("Delete failed")
			continue
		}
		removed = append(removed, doc.ID())
	}
	return removed
}

// deleteSupplierDebts removes the open supplier debts of the tour and
// returns the accounts that owned them.
func (m *Manager) deleteSupplierDebts(ctx context.Context, tourID string, result *Result) []string {
	candidates := make(map[string]store.Document)
	var order []string
	add := func(doc store.Document) {
		if _, seen := candidates[doc.ID()]; seen {
			return
		}
		candidates[doc.ID()] = doc
		order = append(order, doc.ID())
	}

	direct, err := ledger.TourRef.Query(ctx, m.store, store.CollectionDebts, tourID)
	if err != nil {
		result.warn(PhaseSupplierDebts, "", "failed to query debts by tour", err)
	}
	for _, doc := range direct {
		add(doc)
	}

	legacy, ambiguous, err := m.legacyDebts(ctx, tourID)
	if err != nil {
		result.warn(PhaseSupplierDebts, "", "failed to query legacy debts", err)
	}
	for _, doc := range legacy {
		add(doc)
	}
	for _, doc := range ambiguous {
		if _, seen := candidates[doc.ID()]; seen {
			continue
		}
		// The note names another tour that starts with the same ID. It is
		// listed for audit and does not make the run incomplete.
		result.AmbiguousDebts = append(result.AmbiguousDebts, doc.ID())
		m.log.Debug().Str("tour_id", tourID).Str("debt_id", doc.ID()).Msg("Legacy note references a longer tour ID; left in place")
	}

	result.SupplierDebts = []string{}
	var accounts []string
	seenAccount := make(map[string]bool)
	for _, id := range order {
		debt := m.normalizer.Debt(candidates[id])
		if debt.Status == ledger.StatusPaid {
			result.PreservedDebts = append(result.PreservedDebts, id)
			continue
		}
		if err := m.store.Delete(ctx, store.CollectionDebts, id); err != nil {
			result.warn(PhaseSupplierDebts, id, "failed to delete", err)
			continue
		}
		result.SupplierDebts = append(result.SupplierDebts, id)
		if debt.AccountID != "" && !seenAccount[debt.AccountID] {
			seenAccount[debt.AccountID] = true
			accounts = append(accounts, debt.AccountID)
		}
	}
	return accounts
}

// legacyDebts finds debts that reference the tour only through their notes.
func (m *Manager) legacyDebts(ctx context.Context, tourID string) (exact, ambiguous []store.Document, err error) {
	docs, err := m.store.Query(ctx, store.CollectionDebts)
	if err != nil {
		return nil, nil, err
	}
	for _, doc := range docs {
		notes := m.normalizer.Debt(doc).Notes
		switch matchLegacyTourReference(notes, m.legacyPrefix, tourID) {
		case legacyExact:
			exact = append(exact, doc)
		case legacyAmbiguous:
			ambiguous = append(ambiguous, doc)
		}
	}
	return exact, ambiguous, nil
}

// deleteCustomer removes the first customer record matching the tour's
// customer by identity document, then by name and phone, then by name.
func (m *Manager) deleteCustomer(ctx context.Context, tour ledger.Tour, result *Result) {
	docs, err := m.store.Query(ctx, store.CollectionCustomers)
	if err != nil {
		result.warn(PhaseCustomer, "", "failed to query customers", err)
		return
	}

	customers := make([]ledger.CustomerRecord, 0, len(docs))
	for _, doc := range docs {
		customers = append(customers, m.normalizer.Customer(doc))
	}

	match, ok := resolveCustomer(tour, customers)
	if !ok {
		m.log.Debug().Str("tour_id", tour.ID).Msg("No customer record matches the tour")
		return
	}

	if err := m.store.Delete(ctx, store.CollectionCustomers, match.ID); err != nil {
		result.warn(PhaseCustomer, match.ID, "failed to delete", err)
		return
	}
	result.Customers = append(result.Customers, match.ID)
}

func resolveCustomer(tour ledger.Tour, customers []ledger.CustomerRecord) (ledger.CustomerRecord, bool) {
	rules := []func(ledger.CustomerRecord) bool{
		func(c ledger.CustomerRecord) bool {
			return sameKey(tour.CustomerNationalID, c.NationalID)
		},
		func(c ledger.CustomerRecord) bool {
			return sameKey(tour.CustomerPassportNumber, c.PassportNumber)
		},
		func(c ledger.CustomerRecord) bool {
			return sameKey(tour.CustomerDrivingLicense, c.DrivingLicense)
		},
		func(c ledger.CustomerRecord) bool {
			return sameName(tour.CustomerName, c.Name) && sameKey(digits(tour.CustomerPhone), digits(c.Phone))
		},
		func(c ledger.CustomerRecord) bool {
			return sameName(tour.CustomerName, c.Name)
		},
	}

	for _, rule := range rules {
		for _, c := range customers {
			if rule(c) {
				return c, true
			}
		}
	}
	return ledger.CustomerRecord{}, false
}

func sameKey(a, b string) bool {
	a = strings.TrimSpace(a)
	return a != "" && strings.EqualFold(a, strings.TrimSpace(b))
}

func sameName(a, b string) bool {
	return sameKey(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func (m *Manager) refreshTotals(ctx context.Context, accounts []string, result *Result) {
	if m.refresher == nil {
		return
	}
	for _, accountID := range accounts {
		if err := m.refresher.RefreshTotals(ctx, accountID); err != nil {
			result.warn(PhaseTotals, accountID, "failed to refresh cached totals", err)
		}
	}
}
