package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/api"
)

var listenAddr string

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ledger HTTP API",
	Long: `Serve the ledger HTTP API under /api/v1.

Example:
  cari-ledger serve
  cari-ledger serve --addr :9090`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (default from CARI_LISTEN_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) {
	a, err := openApp()
	exitOnError(err, "failed to initialize")
	defer a.Close()

	addr := cfg.Server.ListenAddr
	if listenAddr != "" {
		addr = listenAddr
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(a.service, a.manager, cfg.Server.RequestTimeout),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().
		Str("addr", addr).
		Str("backend", cfg.Store.Backend).
		Str("default_currency", a.rules.DefaultCurrency).
		Msg("Starting cari ledger API")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		exitOnError(err, "server error")
	}

	log.Info().Msg("Server stopped")
}
