package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var historyLimit int

// deleteTourCmd represents the delete-tour command.
var deleteTourCmd = &cobra.Command{
	Use:   "delete-tour <tourID>",
	Short: "Delete a tour and every record that depends on it",
	Long: `Delete a tour together with its financial entries, customer debts,
unpaid supplier debts and the customer record created for it.

Failures inside a phase are reported as warnings and the rest of the cascade
still runs. Running the command again for the same tour is safe.

Example:
  cari-ledger delete-tour T-2024-0012`,
	Args: cobra.ExactArgs(1),
	Run:  runDeleteTour,
}

// historyCmd represents the history command.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display cascade run statistics",
	Long: `Display statistics about tour deletions and list the tours whose last
run left records behind.

Example:
  cari-ledger history --limit 5`,
	Run: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of recent runs to list")
}

func runDeleteTour(cmd *cobra.Command, args []string) {
	a, err := openApp()
	exitOnError(err, "failed to initialize")
	defer a.Close()

	result, fatal := a.manager.DeleteSourceTransaction(cmd.Context(), args[0])

	fmt.Printf("\n=== Tour %s ===\n", result.TourID)
	fmt.Printf("Financial entries deleted: %d\n", len(result.FinancialEntries))
	fmt.Printf("Customer debts deleted:    %d\n", len(result.CustomerDebts))
	fmt.Printf("Supplier debts deleted:    %d\n", len(result.SupplierDebts))
	fmt.Printf("Paid debts kept:           %d\n", len(result.PreservedDebts))
	fmt.Printf("Customers deleted:         %d\n", len(result.Customers))
	fmt.Printf("Tour deleted:              %t\n", result.TourDeleted)

	if len(result.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range result.Warnings {
			fmt.Printf("  - %s\n", w.String())
		}
	}
	fmt.Println()

	exitOnError(fatal, "tour deletion failed")
}

func runHistory(cmd *cobra.Command, args []string) {
	a, err := openApp()
	exitOnError(err, "failed to initialize")
	defer a.Close()

	ctx := cmd.Context()

	stats, err := a.journal.GetStats(ctx)
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Cascade Statistics ===")
	fmt.Printf("Total runs:         %d\n", stats.TotalRuns)
	fmt.Printf("Failed runs:        %d\n", stats.FailedRuns)
	fmt.Printf("Runs with warnings: %d\n", stats.RunsWithWarnings)
	if stats.LastRun.Valid {
		fmt.Printf("Last run:           %s\n", stats.LastRun.String)
	} else {
		fmt.Printf("Last run:           (never)\n")
	}

	runs, err := a.journal.RecentRuns(ctx, historyLimit)
	exitOnError(err, "failed to list runs")
	if len(runs) > 0 {
		fmt.Println("\nRecent runs:")
		for _, run := range runs {
			state := "complete"
			if run.Incomplete() {
				state = "incomplete"
			}
			fmt.Printf("  %s  %-20s %s\n", run.RanAt.Format("2006-01-02 15:04:05"), run.TourID, state)
		}
	}

	incomplete, err := a.journal.IncompleteTours(ctx)
	exitOnError(err, "failed to list incomplete tours")
	if len(incomplete) > 0 {
		fmt.Printf("\nTours to retry: %s\n", strings.Join(incomplete, ", "))
		fmt.Fprintln(os.Stderr, "Run delete-tour again for each of them.")
	}
	fmt.Println()
}
