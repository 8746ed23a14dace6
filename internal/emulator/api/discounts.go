package api

import (
	"encoding/json"
	"net/http"

	"github.com/shweproperty/buildingbooks/internal/emulator/store"
	"github.com/shweproperty/buildingbooks/pkg/api"
)

// DiscountsHandler handles discount applications.
type DiscountsHandler struct {
	store *store.Store
}

// NewDiscountsHandler creates a new DiscountsHandler.
func NewDiscountsHandler(s *store.Store) *DiscountsHandler {
	return &DiscountsHandler{store: s}
}

// Applied handles GET .../invoices/{id}/applied-discounts.
func (h *DiscountsHandler) Applied(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid invoice ID")
		return
	}
	applied, err := h.store.AppliedDiscountsByInvoice(invoiceID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, applied)
}

// Preview handles POST .../invoices/{id}/preview-apply-discount.
func (h *DiscountsHandler) Preview(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid invoice ID")
		return
	}
	var req api.ApplyDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	preview, err := h.store.PreviewApplyDiscount(invoiceID, req)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// Apply handles POST .../invoices/{id}/apply-discount.
func (h *DiscountsHandler) Apply(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid invoice ID")
		return
	}
	var req api.ApplyDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	applied, err := h.store.ApplyDiscount(invoiceID, userIDFrom(r.Context()), req)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, applied)
}

// Delete handles DELETE .../invoice-applied-discounts/{id}.
func (h *DiscountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid applied discount ID")
		return
	}
	if err := h.store.SoftDeleteAppliedDiscount(id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
