package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/cari"
)

// AccountsHandler handles account and analytics endpoints.
type AccountsHandler struct {
	svc *cari.Service
}

// NewAccountsHandler creates a new AccountsHandler.
func NewAccountsHandler(svc *cari.Service) *AccountsHandler {
	return &AccountsHandler{svc: svc}
}

// List handles GET /api/v1/accounts.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAccounts(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"accounts": accounts})
}

// Create handles POST /api/v1/accounts.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req cari.AccountInput
	if !decodeBody(w, r, &req) {
		return
	}
	account, err := h.svc.CreateAccount(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"account": account})
}

// Get handles GET /api/v1/accounts/{id}.
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.svc.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"account": account})
}

// Delete handles DELETE /api/v1/accounts/{id}.
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /api/v1/accounts/{id}/summary.
func (h *AccountsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Statement handles GET /api/v1/accounts/{id}/statement.
func (h *AccountsHandler) Statement(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Statement(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("currency"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rows": rows})
}

// Trend handles GET /api/v1/accounts/{id}/trend.
func (h *AccountsHandler) Trend(w http.ResponseWriter, r *http.Request) {
	points, err := h.svc.AccountTrend(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("currency"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"trend": points})
}

// GlobalTrend handles GET /api/v1/trend.
func (h *AccountsHandler) GlobalTrend(w http.ResponseWriter, r *http.Request) {
	points, err := h.svc.GlobalTrend(r.Context(), r.URL.Query().Get("currency"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"trend": points})
}

// SupplierDebts handles GET /api/v1/supplier-debts.
func (h *AccountsHandler) SupplierDebts(w http.ResponseWriter, r *http.Request) {
	lines, err := h.svc.SupplierDebtOverview(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lines": lines})
}

// Reconcile handles POST /api/v1/reconcile.
func (h *AccountsHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.ReconcileAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
