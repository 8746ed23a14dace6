package api

import (
	"encoding/json"
	"net/http"

	"github.com/shweproperty/buildingbooks/internal/emulator/models"
	"github.com/shweproperty/buildingbooks/internal/emulator/store"
	"github.com/shweproperty/buildingbooks/pkg/api"
)

// InvoicesHandler handles invoice endpoints.
type InvoicesHandler struct {
	store *store.Store
}

// NewInvoicesHandler creates a new InvoicesHandler.
func NewInvoicesHandler(s *store.Store) *InvoicesHandler {
	return &InvoicesHandler{store: s}
}

// List handles GET .../invoices.
func (h *InvoicesHandler) List(w http.ResponseWriter, r *http.Request) {
	peopleID, err := queryID(r, "people_id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid people_id")
		return
	}
	filter := store.InvoiceFilter{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
		PeopleID:  peopleID,
		Status:    api.Status(r.URL.Query().Get("status")),
	}

	invoices, err := h.store.ListInvoices(buildingScope(r), filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, invoices)
}

// Get handles GET .../invoices/{id}, returning the full detail graph.
func (h *InvoicesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid invoice ID")
		return
	}

	inv, err := h.store.GetInvoiceRecord(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	items, err := h.store.InvoiceItems(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	splitRecords, err := h.store.SplitsByParent(models.ParentInvoice, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	splits := make([]api.Split, 0, len(splitRecords))
	for _, s := range splitRecords {
		splits = append(splits, s.Split)
	}

	writeJSON(w, http.StatusOK, api.InvoiceDetail{
		Invoice: inv.Invoice,
		Items:   items,
		Splits:  splits,
	})
}

// Create handles POST .../invoices.
func (h *InvoicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	inv, err := h.store.CreateInvoice(buildingScope(r), req)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// Update handles PUT .../invoices/{id}.
func (h *InvoicesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid invoice ID")
		return
	}
	var req api.CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	inv, err := h.store.UpdateInvoice(id, req)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// Delete handles DELETE .../invoices/{id}. Deletes are soft: the invoice
// and its splits flip to inactive.
func (h *InvoicesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid invoice ID")
		return
	}
	if err := h.store.SoftDeleteInvoice(id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
