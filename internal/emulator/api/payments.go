package api

import (
	"encoding/json"
	"net/http"

	"github.com/shweproperty/buildingbooks/internal/emulator/store"
	"github.com/shweproperty/buildingbooks/pkg/api"
)

// PaymentsHandler handles invoice payments.
type PaymentsHandler struct {
	store *store.Store
}

// NewPaymentsHandler creates a new PaymentsHandler.
func NewPaymentsHandler(s *store.Store) *PaymentsHandler {
	return &PaymentsHandler{store: s}
}

// ByInvoice handles GET .../invoices/{id}/payments.
func (h *PaymentsHandler) ByInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid invoice ID")
		return
	}
	payments, err := h.store.PaymentsByInvoice(invoiceID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, payments)
}

// Preview handles POST .../invoice-payments/preview.
func (h *PaymentsHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req api.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	preview, err := h.store.PreviewPayment(req)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// Create handles POST .../invoice-payments.
func (h *PaymentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	payment, err := h.store.CreatePayment(userIDFrom(r.Context()), req)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// Delete handles DELETE .../invoice-payments/{id}.
func (h *PaymentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid payment ID")
		return
	}
	if err := h.store.SoftDeletePayment(id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
