// Package api exposes the cari ledger and the tour cascade over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/cari"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/cascade"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/logger"
)

// NewRouter wires every endpoint. A zero timeout disables the request
// timeout middleware.
func NewRouter(svc *cari.Service, manager *cascade.Manager, timeout time.Duration) http.Handler {
	accounts := NewAccountsHandler(svc)
	records := NewRecordsHandler(svc)
	tours := NewToursHandler(manager)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger.WithComponent("http")))
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", accounts.List)
			r.Post("/", accounts.Create)
			r.Get("/{id}", accounts.Get)
			r.Delete("/{id}", accounts.Delete)
			r.Get("/{id}/summary", accounts.Summary)
			r.Get("/{id}/statement", accounts.Statement)
			r.Get("/{id}/trend", accounts.Trend)
			r.Post("/{id}/debts", records.AddDebt)
			r.Post("/{id}/payments", records.AddPayment)
		})

		r.Post("/debts/{id}/settle", records.SettleDebt)
		r.Delete("/debts/{id}", records.DeleteDebt)

		r.Put("/payments/{id}", records.UpdatePayment)
		r.Delete("/payments/{id}", records.DeletePayment)

		r.Get("/trend", accounts.GlobalTrend)
		r.Get("/supplier-debts", accounts.SupplierDebts)
		r.Post("/reconcile", accounts.Reconcile)

		r.Delete("/tours/{id}", tours.Delete)
	})

	return r
}
