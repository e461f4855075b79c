package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/cari"
)

// RecordsHandler handles debt and payment endpoints.
type RecordsHandler struct {
	svc *cari.Service
}

// NewRecordsHandler creates a new RecordsHandler.
func NewRecordsHandler(svc *cari.Service) *RecordsHandler {
	return &RecordsHandler{svc: svc}
}

// AddDebt handles POST /api/v1/accounts/{id}/debts.
func (h *RecordsHandler) AddDebt(w http.ResponseWriter, r *http.Request) {
	var req cari.DebtInput
	if !decodeBody(w, r, &req) {
		return
	}
	req.AccountID = chi.URLParam(r, "id")

	debt, err := h.svc.AddDebt(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"debt": debt})
}

// AddPayment handles POST /api/v1/accounts/{id}/payments.
func (h *RecordsHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	var req cari.PaymentInput
	if !decodeBody(w, r, &req) {
		return
	}
	req.AccountID = chi.URLParam(r, "id")

	payment, err := h.svc.AddPayment(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"payment": payment})
}

// SettleDebt handles POST /api/v1/debts/{id}/settle.
func (h *RecordsHandler) SettleDebt(w http.ResponseWriter, r *http.Request) {
	var req cari.SettleInput
	if !decodeBody(w, r, &req) {
		return
	}

	payment, debt, err := h.svc.SettleDebt(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"payment": payment,
		"debt":    debt,
	})
}

// DeleteDebt handles DELETE /api/v1/debts/{id}.
func (h *RecordsHandler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDebt(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdatePayment handles PUT /api/v1/payments/{id}.
func (h *RecordsHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req cari.PaymentUpdate
	if !decodeBody(w, r, &req) {
		return
	}

	payment, err := h.svc.UpdatePayment(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payment": payment})
}

// DeletePayment handles DELETE /api/v1/payments/{id}.
func (h *RecordsHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePayment(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
