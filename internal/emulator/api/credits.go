package api

import (
	"encoding/json"
	"net/http"

	"github.com/shweproperty/buildingbooks/internal/emulator/models"
	"github.com/shweproperty/buildingbooks/internal/emulator/store"
	"github.com/shweproperty/buildingbooks/pkg/api"
)

// CreditsHandler handles credit memos and credit applications.
type CreditsHandler struct {
	store *store.Store
}

// NewCreditsHandler creates a new CreditsHandler.
func NewCreditsHandler(s *store.Store) *CreditsHandler {
	return &CreditsHandler{store: s}
}

// ListMemos handles GET .../credit-memos.
func (h *CreditsHandler) ListMemos(w http.ResponseWriter, r *http.Request) {
	peopleID, err := queryID(r, "people_id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid people_id")
		return
	}
	memos, err := h.store.ListCreditMemos(buildingScope(r), peopleID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, memos)
}

// CreateMemo handles POST .../credit-memos.
func (h *CreditsHandler) CreateMemo(w http.ResponseWriter, r *http.Request) {
	var req api.CreateCreditMemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	memo, err := h.store.CreateCreditMemo(buildingScope(r), req)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, memo)
}

// Available handles GET .../invoices/{id}/available-credits: the invoice
// customer's active memos that still have credit left.
func (h *CreditsHandler) Available(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid invoice ID")
		return
	}
	inv, err := h.store.GetInvoiceRecord(invoiceID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	memos, err := h.store.ListCreditMemos(buildingScope(r), inv.PeopleID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	available := make([]models.CreditMemo, 0, len(memos))
	for _, memo := range memos {
		if memo.Status.Active() && memo.AvailableAmount.Float() > 0 {
			available = append(available, memo)
		}
	}
	writeData(w, http.StatusOK, available)
}

// Applied handles GET .../invoices/{id}/applied-credits.
func (h *CreditsHandler) Applied(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid invoice ID")
		return
	}
	applied, err := h.store.AppliedCreditsByInvoice(invoiceID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, applied)
}

// Preview handles POST .../invoices/{id}/preview-apply-credit. Nothing is
// persisted; the call is repeatable.
func (h *CreditsHandler) Preview(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid invoice ID")
		return
	}
	var req api.ApplyCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	preview, err := h.store.PreviewApplyCredit(invoiceID, req)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// Apply handles POST .../invoices/{id}/apply-credit.
func (h *CreditsHandler) Apply(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid invoice ID")
		return
	}
	var req api.ApplyCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	applied, err := h.store.ApplyCredit(invoiceID, userIDFrom(r.Context()), req)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, applied)
}

// Delete handles DELETE .../invoice-applied-credits/{id}. The reversal
// cascades to the generated splits.
func (h *CreditsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid applied credit ID")
		return
	}
	if err := h.store.SoftDeleteAppliedCredit(id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
