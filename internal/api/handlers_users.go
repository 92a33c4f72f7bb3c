package api

import (
	"encoding/json"
	"net/http"

	"github.com/brainpal/brainpal-backend/internal/api/respond"
	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GetSettings GET /api/users/me/settings
func (h *UserHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	respond.WriteJSON(w, http.StatusOK, u.Settings)
}

// UpdateSettings PUT /api/users/me/settings
func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	// Start from the stored settings so a sparse body only changes what it
	// names.
	settings := u.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	updated, err := h.users.UpdateSettings(r.Context(), u.UserID, settings)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, updated.Settings)
}

// UpdateKeys PUT /api/users/me/keys
func (h *UserHandler) UpdateKeys(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	var keys model.APIKeys
	if err := json.NewDecoder(r.Body).Decode(&keys); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.users.UpdateKeys(r.Context(), u.UserID, keys); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	// Keys are write-only; confirm without echoing them.
	respond.WriteJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// EmotionalStatus GET /api/users/me/emotional-status
func (h *UserHandler) EmotionalStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	es, err := h.users.EmotionalStatus(r.Context(), u.UserID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"emotionalStatus": es})
}

// Usage GET /api/users/me/usage
func (h *UserHandler) Usage(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	summary, err := h.users.Usage(r.Context(), u.UserID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, summary)
}
