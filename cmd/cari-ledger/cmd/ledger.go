package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/ledger"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/money"
)

var (
	currency  string
	accountID string
)

// summaryCmd represents the summary command.
var summaryCmd = &cobra.Command{
	Use:   "summary <accountID>",
	Short: "Display the per-currency balance of an account",
	Args:  cobra.ExactArgs(1),
	Run:   runSummary,
}

// statementCmd represents the statement command.
var statementCmd = &cobra.Command{
	Use:   "statement <accountID>",
	Short: "Display the statement of an account in one currency",
	Long: `Display debts and payments of an account in date order with the running
balance. Payments show the balance snapshot frozen when they were recorded.

Example:
  cari-ledger statement acc-1 --currency EUR`,
	Args: cobra.ExactArgs(1),
	Run:  runStatement,
}

// trendCmd represents the trend command.
var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Display the twelve-month cumulative trend",
	Long: `Display cumulative debt, payment and remaining figures for the last
twelve months, for one account or for the whole ledger.

Example:
  cari-ledger trend --currency all
  cari-ledger trend --account acc-1 --currency EUR`,
	Run: runTrend,
}

// reconcileCmd represents the reconcile command.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute cached totals of every account",
	Run:   runReconcile,
}

func init() {
	statementCmd.Flags().StringVar(&currency, "currency", "", "currency (default is the account currency)")
	trendCmd.Flags().StringVar(&currency, "currency", ledger.AllCurrencies, "currency code or \"all\"")
	trendCmd.Flags().StringVar(&accountID, "account", "", "account ID (default is every account)")
}

func runSummary(cmd *cobra.Command, args []string) {
	a, err := openApp()
	exitOnError(err, "failed to initialize")
	defer a.Close()

	summary, err := a.service.Summary(cmd.Context(), args[0])
	exitOnError(err, "failed to summarize account")

	fmt.Printf("\n=== %s (%s) ===\n", summary.Account.Name, summary.Account.Kind)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Currency\tDebt\tPaid\tBalance\tRemaining\tPosition\t")
	for _, t := range summary.Totals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			t.Currency,
			money.Format(t.TotalDebt, t.Currency),
			money.Format(t.TotalPaid, t.Currency),
			money.Format(t.Balance, t.Currency),
			money.Format(t.Remaining, t.Currency),
			summary.Positions[t.Currency],
		)
	}
	_ = w.Flush()

	fmt.Printf("\nPayments: %d general, %d linked\n\n",
		summary.Linkage[ledger.General], summary.Linkage[ledger.Linked])
}

func runStatement(cmd *cobra.Command, args []string) {
	a, err := openApp()
	exitOnError(err, "failed to initialize")
	defer a.Close()

	rows, err := a.service.Statement(cmd.Context(), args[0], currency)
	exitOnError(err, "failed to build statement")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Date\tKind\tDescription\tDebit\tCredit\tSnapshot\tBalance")
	for _, row := range rows {
		snapshot := "-"
		if row.Snapshot != nil {
			snapshot = row.Snapshot.StringFixed(2)
		} else if row.MissingSnapshot {
			snapshot = "(none)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Date.Format("2006-01-02"),
			row.Kind,
			row.Description,
			row.Debit.StringFixed(2),
			row.Credit.StringFixed(2),
			snapshot,
			row.RunningBalance.StringFixed(2),
		)
	}
	_ = w.Flush()
}

func runTrend(cmd *cobra.Command, args []string) {
	a, err := openApp()
	exitOnError(err, "failed to initialize")
	defer a.Close()

	var points []ledger.TrendPoint
	if accountID != "" {
		points, err = a.service.AccountTrend(cmd.Context(), accountID, currency)
	} else {
		points, err = a.service.GlobalTrend(cmd.Context(), currency)
	}
	exitOnError(err, "failed to build trend")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Month\tDebt\tPayment\tRemaining\t")
	for _, p := range points {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", p.Month, p.Debt.StringFixed(2), p.Payment.StringFixed(2), p.Remaining.StringFixed(2))
	}
	_ = w.Flush()
}

func runReconcile(cmd *cobra.Command, args []string) {
	a, err := openApp()
	exitOnError(err, "failed to initialize")
	defer a.Close()

	report, err := a.service.ReconcileAll(cmd.Context())
	exitOnError(err, "failed to reconcile")

	fmt.Printf("Reconciled %d account(s)\n", report.Accounts)
	for _, id := range report.Failed {
		fmt.Printf("  failed: %s\n", id)
	}
	if len(report.Failed) > 0 {
		os.Exit(1)
	}
}
