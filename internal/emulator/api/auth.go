package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shweproperty/buildingbooks/internal/emulator/store"
	"github.com/shweproperty/buildingbooks/pkg/api"
)

// AuthHandler handles login.
type AuthHandler struct {
	store  *store.Store
	secret []byte
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s *store.Store, secret []byte) *AuthHandler {
	return &AuthHandler{store: s, secret: secret}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}

	user, err := h.store.GetUserByUsername(req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeStoreError(w, err)
		return
	}
	if user.Password != req.Password {
		writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := issueToken(h.secret, user.ID, user.Username)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, api.LoginResponse{
		AccessToken: token,
		Username:    user.Username,
		User: api.User{
			ID:       user.ID,
			Name:     user.Name,
			Username: user.Username,
		},
	})
}
