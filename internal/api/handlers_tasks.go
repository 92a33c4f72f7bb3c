package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/brainpal/brainpal-backend/internal/api/respond"
	"github.com/brainpal/brainpal-backend/internal/api/validate"
	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/services"
)

type TaskHandler struct {
	tasks *services.TaskService
	users *services.UserService
}

func NewTaskHandler(tasks *services.TaskService, users *services.UserService) *TaskHandler {
	return &TaskHandler{tasks: tasks, users: users}
}

// taskView adds the compound id clients address tasks by.
type taskView struct {
	ID string `json:"id"`
	*model.Task
}

func viewTask(t *model.Task) taskView {
	return taskView{ID: model.JoinTaskID(t.AnalysisID, t.TaskID), Task: t}
}

func viewTasks(ts []*model.Task) []taskView {
	out := make([]taskView, 0, len(ts))
	for _, t := range ts {
		out = append(out, viewTask(t))
	}
	return out
}

// Generate POST /api/tasks/generate
func (h *TaskHandler) Generate(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	var req services.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.NonEmpty("analysisId", req.AnalysisID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Transcript(req.Transcript); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if rs := req.ReminderSettings; rs != nil && rs.Count > 0 {
		if err := validate.CreateReminder("generated", rs.Count, rs.StartTime, rs.EndTime); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}
	res, err := h.tasks.Generate(r.Context(), u.UserID, req)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tasks":         viewTasks(res.Tasks),
		"modelUsed":     res.ModelUsed,
		"tokensUsed":    res.TokensUsed,
		"reminderSaved": res.ReminderSaved,
	})
}

// List GET /api/tasks?status=&analysisId=
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	req := model.ListTasksRequest{UserID: u.UserID}
	if v := r.URL.Query().Get("status"); v != "" {
		status := model.Status(v)
		if err := validate.Status(status); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		req.Status = &status
	}
	if v := r.URL.Query().Get("analysisId"); v != "" {
		req.AnalysisID = &v
	}
	out, err := h.tasks.List(r.Context(), req)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"tasks": viewTasks(out), "count": len(out)})
}

// Get GET /api/tasks/{taskId}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	out, err := h.tasks.Get(r.Context(), u.UserID, mux.Vars(r)["taskId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, viewTask(out))
}

// Create POST /api/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	var req struct {
		AnalysisID  string          `json:"analysisId"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Priority    model.Priority  `json:"priority"`
		Subtasks    []model.Subtask `json:"subtasks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.NonEmpty("analysisId", req.AnalysisID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.NonEmpty("title", req.Title); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.CreateTask(req.Title, req.Priority); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	created, err := h.tasks.Create(r.Context(), u.UserID, &model.Task{
		AnalysisID:  req.AnalysisID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Subtasks:    req.Subtasks,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, viewTask(created))
}

// Update PUT /api/tasks/{taskId}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	var patch model.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.TaskPatch(patch); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.tasks.Update(r.Context(), u.UserID, mux.Vars(r)["taskId"], patch)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, viewTask(out))
}

// Delete DELETE /api/tasks/{taskId}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	if err := h.tasks.Delete(r.Context(), u.UserID, mux.Vars(r)["taskId"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Reorder PUT /api/tasks/reorder
func (h *TaskHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	var req struct {
		Updates []model.PositionUpdate `json:"updates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	res, err := h.tasks.Reorder(r.Context(), u.UserID, req.Updates)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

// AddSubtask POST /api/analyses/{analysisId}/tasks/{taskId}/subtasks
func (h *TaskHandler) AddSubtask(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	var st model.Subtask
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	v := mux.Vars(r)
	out, err := h.tasks.AddSubtask(r.Context(), u.UserID, v["analysisId"], v["taskId"], st)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, viewTask(out))
}

// UpdateSubtask PUT /api/analyses/{analysisId}/tasks/{taskId}/subtasks/{index}
func (h *TaskHandler) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	v := mux.Vars(r)
	index, err := strconv.Atoi(v["index"])
	if err != nil || index < 0 {
		respond.WriteBadRequest(w, "index must be a non-negative integer")
		return
	}
	var patch model.SubtaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.tasks.UpdateSubtask(r.Context(), u.UserID, v["analysisId"], v["taskId"], index, patch)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, viewTask(out))
}

// DeleteSubtask DELETE /api/analyses/{analysisId}/tasks/{taskId}/subtasks/{index}
func (h *TaskHandler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	v := mux.Vars(r)
	index, err := strconv.Atoi(v["index"])
	if err != nil || index < 0 {
		respond.WriteBadRequest(w, "index must be a non-negative integer")
		return
	}
	out, err := h.tasks.DeleteSubtask(r.Context(), u.UserID, v["analysisId"], v["taskId"], index)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, viewTask(out))
}
