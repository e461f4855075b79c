package cmd

import (
	"fmt"
	"io"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/cari"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/cascade"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/config"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/db"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/pathutil"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store"
)

// app holds the components shared by the commands.
type app struct {
	paths   *pathutil.PathResolver
	rules   *config.Rules
	service *cari.Service
	manager *cascade.Manager
	journal *db.CascadeJournal

	closers []io.Closer
}

// openApp opens the document store and the cascade journal and wires the
// ledger service and the cascade manager on top of them.
func openApp() (*app, error) {
	if err := cfg.Validate([]string{"store", "backend"}, []string{"store", "dataRoot"}); err != nil {
		return nil, err
	}

	a := &app{
		paths: pathutil.New(pathutil.Config{
			DataRoot:     cfg.Store.DataRoot,
			DatabasePath: cfg.Store.DBPath,
			JournalPath:  cfg.Store.JournalPath,
			RulesPath:    cfg.Store.RulesPath,
		}),
	}

	rules, err := config.LoadRules(a.paths.GetRulesPath())
	if err != nil {
		return nil, err
	}
	a.rules = rules.Override(cfg)

	if err := a.paths.EnsureDataRoot(); err != nil {
		return nil, err
	}

	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st)

	log.Debug().Str("path", a.paths.GetJournalPath()).Msg("Opening cascade journal")
	conn, err := db.Open(a.paths.GetJournalPath())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open cascade journal: %w", err)
	}
	a.closers = append(a.closers, conn)
	a.journal = db.NewCascadeJournal(conn)

	a.service = cari.NewService(st, a.rules)
	a.manager = cascade.NewManager(st, a.service.Normalizer()).
		WithLegacyPrefix(a.rules.LegacyTourPrefix).
		WithRefresher(a.service).
		WithJournal(a.journal)

	return a, nil
}

func (a *app) openStore() (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		log.Warn().Msg("Using in-memory store; nothing will be persisted")
		return store.NewMemoryStore(), nil
	case config.BackendSQLite:
		log.Debug().Str("path", a.paths.GetSQLitePath()).Msg("Opening SQLite document store")
		return db.OpenDocumentStore(a.paths.GetSQLitePath())
	default:
		log.Debug().Str("path", a.paths.GetBoltPath()).Msg("Opening bbolt document store")
		return store.OpenBolt(a.paths.GetBoltPath())
	}
}

// Close releases everything openApp opened, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close")
		}
	}
}
