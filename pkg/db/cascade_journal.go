package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/cascade"
)

// CascadeRun represents one recorded tour deletion attempt.
type CascadeRun struct {
	RunID            int64
	TourID           string
	FinancialEntries int
	CustomerDebts    int
	SupplierDebts    int
	Customers        int
	TourDeleted      bool
	Warnings         []string
	Error            sql.NullString
	RanAt            time.Time
}

// Incomplete reports whether the run left work behind.
func (r CascadeRun) Incomplete() bool {
	return !r.TourDeleted || len(r.Warnings) > 0 || r.Error.Valid
}

// CascadeJournal records cascade runs so partially failed deletions can be
// found and re-run.
type CascadeJournal struct {
	conn *Connection
}

// NewCascadeJournal creates a new CascadeJournal instance.
func NewCascadeJournal(conn *Connection) *CascadeJournal {
	return &CascadeJournal{conn: conn}
}

// Record stores the outcome of a cascade run. fatal is the error returned
// by the run, if any.
func (j *CascadeJournal) Record(ctx context.Context, result *cascade.Result, fatal error) error {
	if result == nil {
		return fmt.Errorf("failed to record cascade run: nil result")
	}

	warnings := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		warnings = append(warnings, w.String())
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}

	var fatalText sql.NullString
	if fatal != nil {
		fatalText = sql.NullString{String: fatal.Error(), Valid: true}
	}

	query := `
		INSERT INTO cascade_runs (
			tour_id, financial_entries, customer_debts, supplier_debts,
			customers, tour_deleted, warnings, error
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = j.conn.ExecContext(ctx, query,
		result.TourID,
		len(result.FinancialEntries),
		len(result.CustomerDebts),
		len(result.SupplierDebts),
		len(result.Customers),
		result.TourDeleted,
		string(warningsJSON),
		fatalText,
	)
	if err != nil {
		return fmt.Errorf("failed to record cascade run: %w", err)
	}

	return nil
}

// RunsForTour retrieves every recorded run for a tour, newest first.
func (j *CascadeJournal) RunsForTour(ctx context.Context, tourID string) ([]CascadeRun, error) {
	query := `
		SELECT run_id, tour_id, financial_entries, customer_debts, supplier_debts,
			customers, tour_deleted, warnings, error, ran_at
		FROM cascade_runs
		WHERE tour_id = ?
		ORDER BY run_id DESC
	`

	rows, err := j.conn.QueryContext(ctx, query, tourID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cascade runs for tour: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// RecentRuns retrieves the most recent runs, newest first.
func (j *CascadeJournal) RecentRuns(ctx context.Context, limit int) ([]CascadeRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id, tour_id, financial_entries, customer_debts, supplier_debts,
			customers, tour_deleted, warnings, error, ran_at
		FROM cascade_runs
		ORDER BY run_id DESC
		LIMIT ?
	`

	rows, err := j.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent cascade runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// IncompleteTours returns the tour IDs whose latest run left work behind.
func (j *CascadeJournal) IncompleteTours(ctx context.Context) ([]string, error) {
	query := `
		SELECT r.tour_id
		FROM cascade_runs r
		JOIN (
			SELECT tour_id, MAX(run_id) AS last_run
			FROM cascade_runs
			GROUP BY tour_id
		) latest ON latest.last_run = r.run_id
		WHERE r.tour_deleted = 0 OR r.warnings != '[]' OR r.error IS NOT NULL
		ORDER BY r.tour_id
	`

	rows, err := j.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get incomplete tours: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tour ID: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// JournalStats represents cascade journal statistics.
type JournalStats struct {
	TotalRuns        int
	FailedRuns       int
	RunsWithWarnings int
	LastRun          sql.NullString
}

// GetStats retrieves cascade journal statistics.
func (j *CascadeJournal) GetStats(ctx context.Context) (*JournalStats, error) {
	var stats JournalStats

	err := j.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM cascade_runs`).Scan(&stats.TotalRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to get run count: %w", err)
	}

	err = j.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM cascade_runs WHERE error IS NOT NULL`).Scan(&stats.FailedRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed run count: %w", err)
	}

	err = j.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM cascade_runs WHERE warnings != '[]'`).Scan(&stats.RunsWithWarnings)
	if err != nil {
		return nil, fmt.Errorf("failed to get warning run count: %w", err)
	}

	err = j.conn.QueryRowContext(ctx, `SELECT MAX(ran_at) FROM cascade_runs`).Scan(&stats.LastRun)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last run time: %w", err)
	}

	return &stats, nil
}

func scanRuns(rows *sql.Rows) ([]CascadeRun, error) {
	var runs []CascadeRun
	for rows.Next() {
		var run CascadeRun
		var warningsJSON string

		if err := rows.Scan(
			&run.RunID,
			&run.TourID,
			&run.FinancialEntries,
			&run.CustomerDebts,
			&run.SupplierDebts,
			&run.Customers,
			&run.TourDeleted,
			&warningsJSON,
			&run.Error,
			&run.RanAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cascade run: %w", err)
		}

		if err := json.Unmarshal([]byte(warningsJSON), &run.Warnings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal warnings of run %d: %w", run.RunID, err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cascade runs: %w", err)
	}

	return runs, nil
}

var _ cascade.Journal = (*CascadeJournal)(nil)
