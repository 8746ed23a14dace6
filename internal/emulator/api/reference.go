package api

import (
	"encoding/json"
	"net/http"

	"github.com/shweproperty/buildingbooks/internal/emulator/models"
	"github.com/shweproperty/buildingbooks/internal/emulator/store"
)

// ReferenceHandler handles the reference-data endpoints: buildings,
// accounts, units, people and items.
type ReferenceHandler struct {
	store *store.Store
}

// NewReferenceHandler creates a new ReferenceHandler.
func NewReferenceHandler(s *store.Store) *ReferenceHandler {
	return &ReferenceHandler{store: s}
}

// ListBuildings handles GET /v1/buildings.
func (h *ReferenceHandler) ListBuildings(w http.ResponseWriter, r *http.Request) {
	buildings, err := h.store.ListBuildings()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, buildings)
}

// CreateBuilding handles POST /v1/buildings.
func (h *ReferenceHandler) CreateBuilding(w http.ResponseWriter, r *http.Request) {
	var b models.Building
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	created, err := h.store.CreateBuilding(b)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListAccounts handles GET .../accounts.
func (h *ReferenceHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.ListAccounts(buildingScope(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, accounts)
}

// CreateAccount handles POST .../accounts.
func (h *ReferenceHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var a models.Account
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	if a.BuildingID == 0 {
		a.BuildingID = buildingScope(r)
	}
	created, err := h.store.CreateAccount(a)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListUnits handles GET .../units.
func (h *ReferenceHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.store.ListUnits(buildingScope(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, units)
}

// CreateUnit handles POST .../units.
func (h *ReferenceHandler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var u models.Unit
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	if u.BuildingID == 0 {
		u.BuildingID = buildingScope(r)
	}
	created, err := h.store.CreateUnit(u)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListPeople handles GET .../people.
func (h *ReferenceHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.store.ListPeople(buildingScope(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, people)
}

// CreatePeople handles POST .../people.
func (h *ReferenceHandler) CreatePeople(w http.ResponseWriter, r *http.Request) {
	var p models.People
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	if p.BuildingID == 0 {
		p.BuildingID = buildingScope(r)
	}
	created, err := h.store.CreatePeople(p)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListItems handles GET .../items.
func (h *ReferenceHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListItems(buildingScope(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, items)
}

// CreateItem handles POST .../items.
func (h *ReferenceHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var i models.Item
	if err := json.NewDecoder(r.Body).Decode(&i); err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	if i.BuildingID == 0 {
		i.BuildingID = buildingScope(r)
	}
	created, err := h.store.CreateItem(i)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
