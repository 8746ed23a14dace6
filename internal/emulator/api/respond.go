package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shweproperty/buildingbooks/internal/emulator/store"
)

// writeJSON writes a bare JSON response. Detail endpoints return the object
// directly.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeData wraps a response in the {"data": ...} envelope. List endpoints
// use it.
func writeData(w http.ResponseWriter, status int, v interface{}) {
	writeJSON(w, status, map[string]interface{}{"data": v})
}

// ErrorResponse is the error body; clients read the error field.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeStoreError maps store errors to HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, store.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

// buildingScope returns the building id from the route, or 0 on the
// unscoped /v1 mount.
func buildingScope(r *http.Request) int64 {
	raw := chi.URLParam(r, "buildingID")
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// pathID parses a numeric URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// queryID parses an optional numeric query parameter, 0 when absent.
func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
