// Package storetest runs a driver-independent compliance suite against any
// store.Store implementation. Driver packages wire it up in their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/store"
)

// Factory returns a fresh empty store for each subtest.
type Factory func(t *testing.T) store.Store

// Run executes the compliance suite.
func Run(t *testing.T, factory Factory) {
	t.Run("UserLifecycle", func(t *testing.T) { testUserLifecycle(t, factory(t)) })
	t.Run("VersionConflict", func(t *testing.T) { testVersionConflict(t, factory(t)) })
	t.Run("CreditApply", func(t *testing.T) { testCreditApply(t, factory(t)) })
	t.Run("DuplicateTransaction", func(t *testing.T) { testDuplicateTransaction(t, factory(t)) })
	t.Run("AnalysisWithTasks", func(t *testing.T) { testAnalysisWithTasks(t, factory(t)) })
	t.Run("CompletionDerivation", func(t *testing.T) { testCompletionDerivation(t, factory(t)) })
	t.Run("CompletedCounter", func(t *testing.T) { testCompletedCounter(t, factory(t)) })
	t.Run("CounterOnDelete", func(t *testing.T) { testCounterOnDelete(t, factory(t)) })
	t.Run("ReplaceTaskList", func(t *testing.T) { testReplaceTaskList(t, factory(t)) })
	t.Run("TaskOrdering", func(t *testing.T) { testTaskOrdering(t, factory(t)) })
	t.Run("ReorderPartial", func(t *testing.T) { testReorderPartial(t, factory(t)) })
	t.Run("Subtasks", func(t *testing.T) { testSubtasks(t, factory(t)) })
	t.Run("Reminders", func(t *testing.T) { testReminders(t, factory(t)) })
	t.Run("Prompts", func(t *testing.T) { testPrompts(t, factory(t)) })
	t.Run("TokenUsage", func(t *testing.T) { testTokenUsage(t, factory(t)) })
}

func newUser(t *testing.T, s store.Store) *model.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), &model.User{
		UserID: model.NewID(),
		Email:  "user@example.com",
	})
	require.NoError(t, err)
	return u
}

func getUser(t *testing.T, s store.Store, id string) *model.User {
	t.Helper()
	u, err := s.Users().Get(context.Background(), id)
	require.NoError(t, err)
	return u
}

func testUserLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)
	require.Equal(t, int64(1), u.Version)
	require.Equal(t, model.SettingsSchemaVersion, u.Settings.SchemaVersion)

	got := getUser(t, s, u.UserID)
	require.Equal(t, u.UserID, got.UserID)
	require.Equal(t, "user@example.com", got.Email)
	require.Equal(t, 0, got.CompletedTasks)
	require.False(t, got.Subscription.Active)

	_, err := s.Users().Get(ctx, "missing")
	require.ErrorIs(t, err, model.ErrNotFound)

	settings := got.Settings
	settings.TaskStyle = "structured"
	require.NoError(t, s.Users().UpdateSettings(ctx, u.UserID, got.Version, settings))

	got = getUser(t, s, u.UserID)
	require.Equal(t, "structured", got.Settings.TaskStyle)
	require.Equal(t, int64(2), got.Version)
}

func testVersionConflict(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)

	require.NoError(t, s.Users().UpdateKeys(ctx, u.UserID, u.Version, model.APIKeys{OpenRouter: "sk-1"}))

	// Second writer still holding the old version must fail.
	err := s.Users().UpdateKeys(ctx, u.UserID, u.Version, model.APIKeys{OpenRouter: "sk-2"})
	require.ErrorIs(t, err, model.ErrConflict)

	got := getUser(t, s, u.UserID)
	require.Equal(t, "sk-1", got.Keys.OpenRouter)
}

func testCreditApply(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)

	sub := model.Subscription{Active: true, Plan: model.PlanBasic, AutoRenew: true}
	err := s.Credits().Apply(ctx, store.ApplyCreditRequest{
		UserID:       u.UserID,
		Version:      u.Version,
		Balance:      model.CreditBalance{SubscriptionBalance: 100},
		Entry:        model.LedgerEntry{Type: model.LedgerSubscription, Amount: 100, Description: "basic plan"},
		Subscription: &sub,
		Transaction: &model.Transaction{
			TransactionID: "txn-sub-1",
			UserID:        u.UserID,
			Type:          "subscription",
			Plan:          model.PlanBasic,
			CreditsAdded:  100,
		},
	})
	require.NoError(t, err)

	got := getUser(t, s, u.UserID)
	require.True(t, got.Subscription.Active)
	require.Equal(t, 100, got.Credits.SubscriptionBalance)
	require.Equal(t, 0, got.Credits.PurchasedBalance)

	// Usage debit without a transaction record.
	err = s.Credits().Apply(ctx, store.ApplyCreditRequest{
		UserID:  u.UserID,
		Version: got.Version,
		Balance: model.CreditBalance{SubscriptionBalance: 99},
		Entry:   model.LedgerEntry{Type: model.LedgerUsage, Amount: -1, Description: "task generation"},
	})
	require.NoError(t, err)

	hist, err := s.Credits().History(ctx, u.UserID, 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	// Newest first.
	require.Equal(t, model.LedgerUsage, hist[0].Type)
	require.Equal(t, -1, hist[0].Amount)
	require.Equal(t, model.LedgerSubscription, hist[1].Type)

	txn, err := s.Credits().GetTransaction(ctx, "txn-sub-1")
	require.NoError(t, err)
	require.Equal(t, u.UserID, txn.UserID)

	txns, err := s.Credits().ListTransactions(ctx, u.UserID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
}

func testDuplicateTransaction(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)

	req := store.ApplyCreditRequest{
		UserID:  u.UserID,
		Version: u.Version,
		Balance: model.CreditBalance{PurchasedBalance: 50},
		Entry:   model.LedgerEntry{Type: model.LedgerPurchase, Amount: 50},
		Transaction: &model.Transaction{
			TransactionID: "txn-dup",
			UserID:        u.UserID,
			Type:          "purchase",
			CreditsAdded:  50,
		},
	}
	require.NoError(t, s.Credits().Apply(ctx, req))

	got := getUser(t, s, u.UserID)
	req.Version = got.Version
	req.Balance = model.CreditBalance{PurchasedBalance: 100}
	err := s.Credits().Apply(ctx, req)
	require.ErrorIs(t, err, model.ErrDuplicateTransaction)

	// The failed replay must not have touched the balance or the ledger.
	got = getUser(t, s, u.UserID)
	require.Equal(t, 50, got.Credits.PurchasedBalance)
	hist, err := s.Credits().History(ctx, u.UserID, 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
}

func testAnalysisWithTasks(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)

	a, err := s.Analyses().Create(ctx, u.UserID, u.Version, &model.Analysis{
		Transcript:     "today was a lot",
		EmotionalState: 4,
		EnergyLevel:    6,
		BrainClarity:   5,
		Title:          "A lot going on",
		Tasks: []*model.Task{
			{Title: "Call dentist", Priority: model.PriorityHigh, Status: model.StatusPending, Position: 0},
			{Title: "Buy groceries", Priority: model.PriorityMedium, Status: model.StatusPending, Position: 1},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, a.AnalysisID)
	require.NotContains(t, a.AnalysisID, "-")

	got, err := s.Analyses().Get(ctx, u.UserID, a.AnalysisID)
	require.NoError(t, err)
	require.Len(t, got.Tasks, 2)
	require.False(t, got.Completed)
	require.Equal(t, "Call dentist", got.Tasks[0].Title)

	list, err := s.Analyses().List(ctx, u.UserID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Tasks, 2)

	user := getUser(t, s, u.UserID)
	require.NoError(t, s.Analyses().Delete(ctx, u.UserID, user.Version, a.AnalysisID))

	_, err = s.Analyses().Get(ctx, u.UserID, a.AnalysisID)
	require.ErrorIs(t, err, model.ErrNotFound)

	tasks, err := s.Tasks().List(ctx, model.ListTasksRequest{UserID: u.UserID})
	require.NoError(t, err)
	require.Empty(t, tasks)
}

func completeTask(t *testing.T, s store.Store, userID, analysisID, taskID string) {
	t.Helper()
	user := getUser(t, s, userID)
	st := model.StatusCompleted
	_, err := s.Tasks().Update(context.Background(), userID, user.Version, analysisID, taskID, model.TaskPatch{Status: &st})
	require.NoError(t, err)
}

func testCompletionDerivation(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)

	a, err := s.Analyses().Create(ctx, u.UserID, u.Version, &model.Analysis{
		Transcript: "x",
		Tasks: []*model.Task{
			{Title: "one", Priority: model.PriorityMedium, Status: model.StatusPending},
			{Title: "two", Priority: model.PriorityMedium, Status: model.StatusPending, Position: 1},
		},
	})
	require.NoError(t, err)

	completeTask(t, s, u.UserID, a.AnalysisID, a.Tasks[0].TaskID)
	got, err := s.Analyses().Get(ctx, u.UserID, a.AnalysisID)
	require.NoError(t, err)
	require.False(t, got.Completed)

	completeTask(t, s, u.UserID, a.AnalysisID, a.Tasks[1].TaskID)
	got, err = s.Analyses().Get(ctx, u.UserID, a.AnalysisID)
	require.NoError(t, err)
	require.True(t, got.Completed)

	// Reopening one task clears the flag again.
	user := getUser(t, s, u.UserID)
	st := model.StatusPending
	_, err = s.Tasks().Update(ctx, u.UserID, user.Version, a.AnalysisID, a.Tasks[0].TaskID, model.TaskPatch{Status: &st})
	require.NoError(t, err)
	got, err = s.Analyses().Get(ctx, u.UserID, a.AnalysisID)
	require.NoError(t, err)
	require.False(t, got.Completed)

	// Deleting the last incomplete task completes the analysis.
	user = getUser(t, s, u.UserID)
	require.NoError(t, s.Tasks().Delete(ctx, u.UserID, user.Version, a.AnalysisID, a.Tasks[0].TaskID))
	got, err = s.Analyses().Get(ctx, u.UserID, a.AnalysisID)
	require.NoError(t, err)
	require.True(t, got.Completed)
}

func testCompletedCounter(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)

	a, err := s.Analyses().Create(ctx, u.UserID, u.Version, &model.Analysis{
		Transcript: "x",
		Tasks: []*model.Task{
			{Title: "one", Priority: model.PriorityMedium, Status: model.StatusPending},
		},
	})
	require.NoError(t, err)
	taskID := a.Tasks[0].TaskID

	completeTask(t, s, u.UserID, a.AnalysisID, taskID)
	require.Equal(t, 1, getUser(t, s, u.UserID).CompletedTasks)

	// completed -> completed is not a transition.
	completeTask(t, s, u.UserID, a.AnalysisID, taskID)
	require.Equal(t, 1, getUser(t, s, u.UserID).CompletedTasks)

	user := getUser(t, s, u.UserID)
	st := model.StatusPostponed
	_, err = s.Tasks().Update(ctx, u.UserID, user.Version, a.AnalysisID, taskID, model.TaskPatch{Status: &st})
	require.NoError(t, err)
	require.Equal(t, 0, getUser(t, s, u.UserID).CompletedTasks)

	// Counter never goes negative.
	user = getUser(t, s, u.UserID)
	stp := model.StatusPending
	_, err = s.Tasks().Update(ctx, u.UserID, user.Version, a.AnalysisID, taskID, model.TaskPatch{Status: &stp})
	require.NoError(t, err)
	require.Equal(t, 0, getUser(t, s, u.UserID).CompletedTasks)
}

func testCounterOnDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)

	a, err := s.Analyses().Create(ctx, u.UserID, u.Version, &model.Analysis{
		Transcript: "x",
		Tasks: []*model.Task{
			{Title: "a", Status: model.StatusPending, Priority: model.PriorityMedium},
			{Title: "b", Status: model.StatusPending, Priority: model.PriorityMedium, Position: 1},
		},
	})
	require.NoError(t, err)

	completeTask(t, s, u.UserID, a.AnalysisID, a.Tasks[0].TaskID)
	require.Equal(t, 1, getUser(t, s, u.UserID).CompletedTasks)

	// Deleting a completed task removes it from the completed population.
	user := getUser(t, s, u.UserID)
	require.NoError(t, s.Tasks().Delete(ctx, u.UserID, user.Version, a.AnalysisID, a.Tasks[0].TaskID))
	require.Equal(t, 0, getUser(t, s, u.UserID).CompletedTasks)

	completeTask(t, s, u.UserID, a.AnalysisID, a.Tasks[1].TaskID)
	require.Equal(t, 1, getUser(t, s, u.UserID).CompletedTasks)

	// Deleting the analysis drops its completed tasks from the counter too.
	user = getUser(t, s, u.UserID)
	require.NoError(t, s.Analyses().Delete(ctx, u.UserID, user.Version, a.AnalysisID))
	require.Equal(t, 0, getUser(t, s, u.UserID).CompletedTasks)
}

func testReplaceTaskList(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)

	a, err := s.Analyses().Create(ctx, u.UserID, u.Version, &model.Analysis{
		Transcript: "x",
		Tasks:      []*model.Task{{Title: "old", Status: model.StatusPending, Priority: model.PriorityMedium}},
	})
	require.NoError(t, err)
	completeTask(t, s, u.UserID, a.AnalysisID, a.Tasks[0].TaskID)

	user := getUser(t, s, u.UserID)
	replaced, err := s.Tasks().ReplaceList(ctx, u.UserID, user.Version, a.AnalysisID, []*model.Task{
		{Title: "new one", Status: model.StatusPending, Priority: model.PriorityHigh, Position: 99},
		{Title: "new two", Status: model.StatusPending, Priority: model.PriorityLow},
	})
	require.NoError(t, err)
	require.Len(t, replaced, 2)
	// Position follows submission order regardless of what the caller set.
	require.Equal(t, 0, replaced[0].Position)
	require.Equal(t, 1, replaced[1].Position)

	got, err := s.Analyses().Get(ctx, u.UserID, a.AnalysisID)
	require.NoError(t, err)
	require.Len(t, got.Tasks, 2)
	require.False(t, got.Completed)
	require.Equal(t, 0, getUser(t, s, u.UserID).CompletedTasks)

	user = getUser(t, s, u.UserID)
	_, err = s.Tasks().ReplaceList(ctx, u.UserID, user.Version, "missing", nil)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func testTaskOrdering(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)

	base := time.Now().UTC()
	a, err := s.Analyses().Create(ctx, u.UserID, u.Version, &model.Analysis{
		Transcript: "x",
		Tasks: []*model.Task{
			{Title: "older", Status: model.StatusPending, Priority: model.PriorityMedium, Position: 1, CreationTime: base.Add(-time.Hour)},
			{Title: "newer", Status: model.StatusPending, Priority: model.PriorityMedium, Position: 1, CreationTime: base},
			{Title: "first", Status: model.StatusPending, Priority: model.PriorityMedium, Position: 0, CreationTime: base},
		},
	})
	require.NoError(t, err)

	got, err := s.Analyses().Get(ctx, u.UserID, a.AnalysisID)
	require.NoError(t, err)
	require.Equal(t, []string{"first", "newer", "older"},
		[]string{got.Tasks[0].Title, got.Tasks[1].Title, got.Tasks[2].Title})
}

func testReorderPartial(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)

	a, err := s.Analyses().Create(ctx, u.UserID, u.Version, &model.Analysis{
		Transcript: "x",
		Tasks: []*model.Task{
			{Title: "a", Status: model.StatusPending, Priority: model.PriorityMedium, Position: 0},
			{Title: "b", Status: model.StatusPending, Priority: model.PriorityMedium, Position: 1},
		},
	})
	require.NoError(t, err)

	user := getUser(t, s, u.UserID)
	applied, err := s.Tasks().Reorder(ctx, u.UserID, user.Version, []model.PositionUpdate{
		{TaskID: model.JoinTaskID(a.AnalysisID, a.Tasks[0].TaskID), Position: 5},
		{TaskID: model.JoinTaskID(a.AnalysisID, "missing"), Position: 6},
		{TaskID: "malformed", Position: 7},
	})
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	got, err := s.Tasks().Get(ctx, u.UserID, a.AnalysisID, a.Tasks[0].TaskID)
	require.NoError(t, err)
	require.Equal(t, 5, got.Position)
}

func testSubtasks(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)

	a, err := s.Analyses().Create(ctx, u.UserID, u.Version, &model.Analysis{
		Transcript: "x",
		Tasks:      []*model.Task{{Title: "t", Status: model.StatusPending, Priority: model.PriorityMedium}},
	})
	require.NoError(t, err)
	taskID := a.Tasks[0].TaskID

	user := getUser(t, s, u.UserID)
	task, err := s.Tasks().AddSubtask(ctx, u.UserID, user.Version, a.AnalysisID, taskID,
		model.Subtask{Title: "step one", EstimatedMinutes: 10})
	require.NoError(t, err)
	require.Len(t, task.Subtasks, 1)

	user = getUser(t, s, u.UserID)
	task, err = s.Tasks().AddSubtask(ctx, u.UserID, user.Version, a.AnalysisID, taskID,
		model.Subtask{Title: "step two", EstimatedMinutes: 5})
	require.NoError(t, err)
	require.Len(t, task.Subtasks, 2)

	user = getUser(t, s, u.UserID)
	done := true
	task, err = s.Tasks().UpdateSubtask(ctx, u.UserID, user.Version, a.AnalysisID, taskID, 1,
		model.SubtaskPatch{Completed: &done})
	require.NoError(t, err)
	require.True(t, task.Subtasks[1].Completed)
	require.False(t, task.Subtasks[0].Completed)

	user = getUser(t, s, u.UserID)
	_, err = s.Tasks().UpdateSubtask(ctx, u.UserID, user.Version, a.AnalysisID, taskID, 9,
		model.SubtaskPatch{Completed: &done})
	require.ErrorIs(t, err, model.ErrNotFound)

	user = getUser(t, s, u.UserID)
	task, err = s.Tasks().DeleteSubtask(ctx, u.UserID, user.Version, a.AnalysisID, taskID, 0)
	require.NoError(t, err)
	require.Len(t, task.Subtasks, 1)
	require.Equal(t, "step two", task.Subtasks[0].Title)
}

func testReminders(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)

	r1, err := s.Reminders().Create(ctx, u.UserID, u.Version, &model.Reminder{
		Name: "Morning", Count: 3, StartTime: "9:00", EndTime: "17:00",
		Timeframe: []string{"9:00", "13:00", "17:00"},
	})
	require.NoError(t, err)
	require.True(t, r1.Active)

	user := getUser(t, s, u.UserID)
	r2, err := s.Reminders().Create(ctx, u.UserID, user.Version, &model.Reminder{
		Name: "Evening", Count: 2, StartTime: "18:00", EndTime: "21:00",
		Timeframe: []string{"18:00", "21:00"},
	})
	require.NoError(t, err)

	active, err := s.Reminders().GetActive(ctx, u.UserID)
	require.NoError(t, err)
	require.Equal(t, r2.ReminderID, active.ReminderID)

	all, err := s.Reminders().List(ctx, u.UserID)
	require.NoError(t, err)
	require.Len(t, all, 2)

	user = getUser(t, s, u.UserID)
	require.NoError(t, s.Reminders().Deactivate(ctx, u.UserID, user.Version, r2.ReminderID))
	_, err = s.Reminders().GetActive(ctx, u.UserID)
	require.ErrorIs(t, err, model.ErrNotFound)
	_ = r1
}

func testPrompts(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.Prompts().Get(ctx, "brainpal_identity_openai4om")
	require.ErrorIs(t, err, model.ErrNotFound)

	p := &model.PromptTemplate{
		Name:           "brainpal_identity_openai4om",
		Content:        "You are a gentle assistant.",
		Active:         true,
		LastModifiedBy: "admin@example.com",
	}
	require.NoError(t, s.Prompts().Upsert(ctx, p))

	got, err := s.Prompts().Get(ctx, p.Name)
	require.NoError(t, err)
	require.Equal(t, p.Content, got.Content)

	p.Content = "You are a structured assistant."
	require.NoError(t, s.Prompts().Upsert(ctx, p))
	got, err = s.Prompts().Get(ctx, p.Name)
	require.NoError(t, err)
	require.Equal(t, "You are a structured assistant.", got.Content)

	all, err := s.Prompts().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, s.Prompts().Delete(ctx, p.Name))
	require.ErrorIs(t, s.Prompts().Delete(ctx, p.Name), model.ErrNotFound)
}

func testTokenUsage(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)

	require.NoError(t, s.Users().AddTokenUsage(ctx, u.UserID, u.Version,
		model.TokenUsage{OpenAI4oMini: 1200, WhisperUnits: 1500}))

	user := getUser(t, s, u.UserID)
	require.NoError(t, s.Users().AddTokenUsage(ctx, u.UserID, user.Version,
		model.TokenUsage{OpenAI4oMini: 800, Claude3Haiku: 300}))

	user = getUser(t, s, u.UserID)
	require.Equal(t, int64(2000), user.TokensUsed.OpenAI4oMini)
	require.Equal(t, int64(300), user.TokensUsed.Claude3Haiku)
	require.Equal(t, int64(1500), user.TokensUsed.WhisperUnits)
}
