package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/brainpal/brainpal-backend/internal/api/respond"
	"github.com/brainpal/brainpal-backend/internal/api/validate"
	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/services"
)

// AdminHandler serves the prompt-template management surface. Every route is
// gated on the admin email allowlist.
type AdminHandler struct {
	prompts *services.PromptAdminService
}

func NewAdminHandler(prompts *services.PromptAdminService) *AdminHandler {
	return &AdminHandler{prompts: prompts}
}

// ListPrompts GET /api/admin/prompts
func (h *AdminHandler) ListPrompts(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}
	out, err := h.prompts.List(r.Context())
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"prompts": out, "count": len(out)})
}

// GetPrompt GET /api/admin/prompts/{name}
func (h *AdminHandler) GetPrompt(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}
	out, err := h.prompts.Get(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// UpsertPrompt PUT /api/admin/prompts/{name}
func (h *AdminHandler) UpsertPrompt(w http.ResponseWriter, r *http.Request) {
	actor := requireAdmin(w, r)
	if actor == nil {
		return
	}
	name := mux.Vars(r)["name"]
	if err := validate.PromptName(name); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	var req struct {
		Content     string `json:"content"`
		Description string `json:"description"`
		Active      *bool  `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	out, err := h.prompts.Upsert(r.Context(), actor.Email, &model.PromptTemplate{
		Name:        name,
		Content:     req.Content,
		Description: req.Description,
		Active:      active,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeletePrompt DELETE /api/admin/prompts/{name}
func (h *AdminHandler) DeletePrompt(w http.ResponseWriter, r *http.Request) {
	actor := requireAdmin(w, r)
	if actor == nil {
		return
	}
	if err := h.prompts.Delete(r.Context(), actor.Email, mux.Vars(r)["name"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
