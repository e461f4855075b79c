package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/cascade"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store"
)

// ToursHandler handles tour deletion.
type ToursHandler struct {
	manager *cascade.Manager
}

// NewToursHandler creates a new ToursHandler.
func NewToursHandler(manager *cascade.Manager) *ToursHandler {
	return &ToursHandler{manager: manager}
}

// TourDeletionResponse is the body of DELETE /api/v1/tours/{id}.
type TourDeletionResponse struct {
	Result   *cascade.Result `json:"result"`
	Complete bool            `json:"complete"`
	Warnings []string        `json:"warnings"`
	Error    string          `json:"error,omitempty"`
}

// Delete handles DELETE /api/v1/tours/{id}. Phase failures come back as
// warnings with 200; only a tour that could not be deleted gives 500.
func (h *ToursHandler) Delete(w http.ResponseWriter, r *http.Request) {
	result, err := h.manager.DeleteSourceTransaction(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrInvalidID) {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid tour ID")
		return
	}

	resp := TourDeletionResponse{
		Result:   result,
		Complete: result.Complete(),
		Warnings: make([]string, 0, len(result.Warnings)),
	}
	for _, warning := range result.Warnings {
		resp.Warnings = append(resp.Warnings, warning.String())
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}
