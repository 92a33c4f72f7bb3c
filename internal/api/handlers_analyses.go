package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/brainpal/brainpal-backend/internal/api/respond"
	"github.com/brainpal/brainpal-backend/internal/api/validate"
	"github.com/brainpal/brainpal-backend/internal/services"
)

type AnalysisHandler struct {
	analyses *services.AnalysisService
	users    *services.UserService
}

func NewAnalysisHandler(analyses *services.AnalysisService, users *services.UserService) *AnalysisHandler {
	return &AnalysisHandler{analyses: analyses, users: users}
}

// Analyze POST /api/analyses
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	var req struct {
		Transcript string `json:"transcript"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Transcript(req.Transcript); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	res, err := h.analyses.Analyze(r.Context(), u.UserID, req.Transcript)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, res)
}

// List GET /api/analyses
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	out, err := h.analyses.List(r.Context(), u.UserID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"analyses": out, "count": len(out)})
}

// Get GET /api/analyses/{analysisId}
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	out, err := h.analyses.Get(r.Context(), u.UserID, mux.Vars(r)["analysisId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Delete DELETE /api/analyses/{analysisId}
func (h *AnalysisHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	tasksDeleted, err := h.analyses.Delete(r.Context(), u.UserID, mux.Vars(r)["analysisId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]int{"tasksDeleted": tasksDeleted})
}
