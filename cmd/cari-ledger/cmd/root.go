// Package cmd provides CLI commands for cari-ledger.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/config"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/logger"
)

var (
	cfgFile string
	debug   bool

	cfg *config.Config
	log zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cari-ledger",
	Short: "Multi-currency current-account ledger for a tour agency",
	Long: `cari-ledger keeps supplier and customer current accounts (cari) with
debts and payments in several currencies.

It supports:
- Per-currency balances with frozen balance snapshots on payments
- Protection of payments that belong to a debt or reservation workflow
- Twelve-month cumulative trends
- Deleting a tour together with every record that depends on it

Example:
  cari-ledger serve
  cari-ledger summary <accountID>
  cari-ledger delete-tour <tourID>`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		cfg, err = config.Load(getConfigFile())
		exitOnError(err, "failed to load configuration")

		logCfg := logger.DefaultConfig()
		logCfg.Level = cfg.Log.Level
		logCfg.Format = cfg.Log.Format
		logCfg.Output = cfg.Log.Output
		if debug {
			logCfg.Level = "debug"
		}
		exitOnError(logger.Setup(logCfg), "failed to set up logging")

		log = logger.WithComponent("cli")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(statementCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(deleteTourCmd)
	rootCmd.AddCommand(historyCmd)
}

func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// exitOnError logs err and exits.
func exitOnError(err error, msg string) {
	if err != nil {
		log.Error().Err(err).Msg(msg)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
