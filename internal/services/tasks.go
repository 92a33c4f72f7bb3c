package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/brainpal/brainpal-backend/internal/completion"
	"github.com/brainpal/brainpal-backend/internal/metering"
	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/parser"
	"github.com/brainpal/brainpal-backend/internal/prompts"
	"github.com/brainpal/brainpal-backend/internal/scheduler"
	"github.com/brainpal/brainpal-backend/internal/store"
)

// TaskService owns the task tree: the generation pipeline plus all CRUD on
// tasks and subtasks. Tasks are addressed externally by the compound
// "{analysisId}-{taskId}" identifier.
type TaskService struct {
	store   store.Store
	gateway completion.Gateway
	prompts *prompts.Registry
	log     zerolog.Logger
	now     func() time.Time
}

func NewTaskService(s store.Store, gw completion.Gateway, reg *prompts.Registry, log zerolog.Logger) *TaskService {
	return &TaskService{store: s, gateway: gw, prompts: reg, log: log, now: time.Now}
}

// ReminderSettings optionally accompanies a generation request and
// materializes a reminder schedule alongside the tasks.
type ReminderSettings struct {
	Count     int    `json:"count"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// GenerateRequest asks for a task list extracted from a transcript,
// replacing whatever the analysis held before.
type GenerateRequest struct {
	AnalysisID       string            `json:"analysisId"`
	Transcript       string            `json:"transcript"`
	ReminderSettings *ReminderSettings `json:"reminderSettings,omitempty"`
}

// GenerateResult is the generation response.
type GenerateResult struct {
	Tasks         []*model.Task `json:"tasks"`
	ModelUsed     string        `json:"modelUsed"`
	TokensUsed    int64         `json:"tokensUsed"`
	ReminderSaved bool          `json:"reminderSaved"`
}

// Generate runs the full pipeline: resolve the task prompt, complete, parse
// the response into tasks, and replace the analysis's task list. Reminder
// creation failures are logged but never fail the generation itself.
func (s *TaskService) Generate(ctx context.Context, userID string, req GenerateRequest) (*GenerateResult, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	// The analysis must exist before any provider money is spent.
	if _, err := s.store.Analyses().Get(ctx, userID, req.AnalysisID); err != nil {
		return nil, err
	}
	sel, err := resolveModel(u)
	if err != nil {
		return nil, err
	}

	tmpl, err := s.prompts.Resolve(ctx, prompts.IntentTaskGeneration, metering.PromptSuffix(sel.ModelKey))
	if err != nil {
		return nil, err
	}

	now := s.now()
	messages := []completion.Message{
		{Role: "system", Content: fmt.Sprintf("%s\n\nCurrent date: %s.", tmpl.Content, now.Format("Monday, January 2, 2006"))},
		{Role: "user", Content: "Generate tasks based on this brain dump: " + req.Transcript},
	}
	res, err := s.gateway.Complete(ctx, sel.ProviderModel, messages, sel.OverrideKey)
	if err != nil {
		return nil, err
	}

	extracted, err := parser.ParseTasks(res.Text, now)
	if err != nil {
		return nil, err
	}

	tasks := make([]*model.Task, 0, len(extracted))
	for _, e := range extracted {
		due := e.DueDate
		tasks = append(tasks, &model.Task{
			TaskID:        model.NewID(),
			AnalysisID:    req.AnalysisID,
			Title:         e.Title,
			Description:   e.Description,
			Priority:      e.Priority,
			Status:        model.StatusPending,
			DueDate:       &due,
			ScheduledTime: e.ScheduledTime,
			CreationTime:  now.UTC(),
			Subtasks:      e.Subtasks,
		})
	}

	var saved []*model.Task
	err = withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		var replaceErr error
		saved, replaceErr = s.store.Tasks().ReplaceList(ctx, userID, u.Version, req.AnalysisID, tasks)
		return replaceErr
	})
	if err != nil {
		return nil, err
	}

	recordTokens(ctx, s.store.Users(), s.log, userID, res)

	reminderSaved := false
	if rs := req.ReminderSettings; rs != nil && rs.Count > 0 {
		if err := s.createReminder(ctx, userID, rs); err != nil {
			s.log.Warn().Err(err).Str("userId", userID).Msg("reminder not created alongside generation")
		} else {
			reminderSaved = true
		}
	}

	return &GenerateResult{
		Tasks:         saved,
		ModelUsed:     res.Model,
		TokensUsed:    res.TokensUsed,
		ReminderSaved: reminderSaved,
	}, nil
}

func (s *TaskService) createReminder(ctx context.Context, userID string, rs *ReminderSettings) error {
	timeframe, err := scheduler.ComputeTimeframe(rs.Count, rs.StartTime, rs.EndTime)
	if err != nil {
		return err
	}
	r := &model.Reminder{
		ReminderID: model.NewID(),
		UserID:     userID,
		Name:       "Daily Reminders - " + s.now().Format("1/2/2006"),
		Count:      rs.Count,
		StartTime:  rs.StartTime,
		EndTime:    rs.EndTime,
		Timeframe:  timeframe,
		Active:     true,
	}
	return withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		_, createErr := s.store.Reminders().Create(ctx, userID, u.Version, r)
		return createErr
	})
}

// Create adds a single task under an existing analysis.
func (s *TaskService) Create(ctx context.Context, userID string, t *model.Task) (*model.Task, error) {
	if t.TaskID == "" {
		t.TaskID = model.NewID()
	}
	if t.Status == "" {
		t.Status = model.StatusPending
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	var created *model.Task
	err := withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		var createErr error
		created, createErr = s.store.Tasks().Create(ctx, userID, u.Version, t)
		return createErr
	})
	return created, err
}

// Get resolves a compound task id.
func (s *TaskService) Get(ctx context.Context, userID, compoundID string) (*model.Task, error) {
	analysisID, taskID, err := model.SplitTaskID(compoundID)
	if err != nil {
		return nil, err
	}
	return s.store.Tasks().Get(ctx, userID, analysisID, taskID)
}

// List flattens every analysis's tasks, filtered and sorted by
// (position asc, creation time desc).
func (s *TaskService) List(ctx context.Context, req model.ListTasksRequest) ([]*model.Task, error) {
	return s.store.Tasks().List(ctx, req)
}

// Update applies a partial update to one task.
func (s *TaskService) Update(ctx context.Context, userID, compoundID string, patch model.TaskPatch) (*model.Task, error) {
	analysisID, taskID, err := model.SplitTaskID(compoundID)
	if err != nil {
		return nil, err
	}
	var updated *model.Task
	err = withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		var updErr error
		updated, updErr = s.store.Tasks().Update(ctx, userID, u.Version, analysisID, taskID, patch)
		return updErr
	})
	return updated, err
}

// Delete removes one task.
func (s *TaskService) Delete(ctx context.Context, userID, compoundID string) error {
	analysisID, taskID, err := model.SplitTaskID(compoundID)
	if err != nil {
		return err
	}
	return withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		return s.store.Tasks().Delete(ctx, userID, u.Version, analysisID, taskID)
	})
}

// ReorderResult reports how much of a reorder batch stuck.
type ReorderResult struct {
	UpdatedCount   int `json:"updatedCount"`
	TotalRequested int `json:"totalRequested"`
}

// Reorder applies a batch of position updates. Entries whose compound id is
// malformed or no longer resolves are skipped, not fatal.
func (s *TaskService) Reorder(ctx context.Context, userID string, updates []model.PositionUpdate) (*ReorderResult, error) {
	result := &ReorderResult{TotalRequested: len(updates)}
	if len(updates) == 0 {
		return result, nil
	}
	err := withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		n, reorderErr := s.store.Tasks().Reorder(ctx, userID, u.Version, updates)
		result.UpdatedCount = n
		return reorderErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddSubtask appends a subtask to the task's list.
func (s *TaskService) AddSubtask(ctx context.Context, userID, analysisID, taskID string, st model.Subtask) (*model.Task, error) {
	if st.Title == "" {
		return nil, fmt.Errorf("%w: subtask title is required", model.ErrValidation)
	}
	if st.EstimatedMinutes <= 0 {
		st.EstimatedMinutes = 10
	}
	var updated *model.Task
	err := withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		var addErr error
		updated, addErr = s.store.Tasks().AddSubtask(ctx, userID, u.Version, analysisID, taskID, st)
		return addErr
	})
	return updated, err
}

// UpdateSubtask patches the subtask at the given positional index.
func (s *TaskService) UpdateSubtask(ctx context.Context, userID, analysisID, taskID string, index int, patch model.SubtaskPatch) (*model.Task, error) {
	var updated *model.Task
	err := withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		var updErr error
		updated, updErr = s.store.Tasks().UpdateSubtask(ctx, userID, u.Version, analysisID, taskID, index, patch)
		return updErr
	})
	return updated, err
}

// DeleteSubtask removes the subtask at the given positional index.
func (s *TaskService) DeleteSubtask(ctx context.Context, userID, analysisID, taskID string, index int) (*model.Task, error) {
	var updated *model.Task
	err := withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		var delErr error
		updated, delErr = s.store.Tasks().DeleteSubtask(ctx, userID, u.Version, analysisID, taskID, index)
		return delErr
	})
	return updated, err
}
