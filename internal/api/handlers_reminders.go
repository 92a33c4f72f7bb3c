package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/brainpal/brainpal-backend/internal/api/respond"
	"github.com/brainpal/brainpal-backend/internal/api/validate"
	"github.com/brainpal/brainpal-backend/internal/services"
)

type ReminderHandler struct {
	reminders *services.ReminderService
	users     *services.UserService
}

func NewReminderHandler(reminders *services.ReminderService, users *services.UserService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders, users: users}
}

// List GET /api/reminders
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	out, err := h.reminders.List(r.Context(), u.UserID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"reminders": out, "count": len(out)})
}

// Create POST /api/reminders
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	var req struct {
		Name      string `json:"name"`
		Count     int    `json:"count"`
		StartTime string `json:"startTime"`
		EndTime   string `json:"endTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.Name == "" {
		req.Name = "Daily Reminders"
	}
	if err := validate.CreateReminder(req.Name, req.Count, req.StartTime, req.EndTime); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	created, err := h.reminders.Create(r.Context(), u.UserID, req.Name, req.Count, req.StartTime, req.EndTime)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, created)
}

// Delete DELETE /api/reminders/{reminderId} deactivates the schedule.
func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	if err := h.reminders.Deactivate(r.Context(), u.UserID, mux.Vars(r)["reminderId"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]bool{"deactivated": true})
}
