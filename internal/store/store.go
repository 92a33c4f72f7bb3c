package store

import (
	"context"

	"github.com/brainpal/brainpal-backend/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (e.g., postgres, sqlite).
//
// Every mutating method takes the caller's last-seen user version and bumps
// it inside the same transaction. A stale version fails the whole mutation
// with model.ErrConflict; services re-read and retry.
type Store interface {
	Users() Users
	Credits() Credits
	Analyses() Analyses
	Tasks() Tasks
	Reminders() Reminders
	Prompts() Prompts
	Close() error
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	UpdateSettings(ctx context.Context, userID string, version int64, s model.Settings) error
	UpdateKeys(ctx context.Context, userID string, version int64, k model.APIKeys) error
	UpdateEmotionalStatus(ctx context.Context, userID string, version int64, es model.EmotionalStatus) error
	// AddTokenUsage adds the deltas in usage to the per-model counters.
	AddTokenUsage(ctx context.Context, userID string, version int64, usage model.TokenUsage) error
}

// ApplyCreditRequest is one atomic billing mutation: the new cached balances,
// exactly one ledger append, and optionally a subscription change and a
// payment transaction record. A duplicate transaction id fails the whole
// mutation with model.ErrDuplicateTransaction.
type ApplyCreditRequest struct {
	UserID       string
	Version      int64
	Balance      model.CreditBalance
	Entry        model.LedgerEntry
	Subscription *model.Subscription
	Transaction  *model.Transaction
}

type Credits interface {
	Apply(ctx context.Context, req ApplyCreditRequest) error
	History(ctx context.Context, userID string, limit int) ([]model.LedgerEntry, error)
	GetTransaction(ctx context.Context, transactionID string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]model.Transaction, error)
}

type Analyses interface {
	// Create inserts the analysis together with its Tasks slice.
	Create(ctx context.Context, userID string, version int64, a *model.Analysis) (*model.Analysis, error)
	Get(ctx context.Context, userID, analysisID string) (*model.Analysis, error)
	List(ctx context.Context, userID string) ([]*model.Analysis, error)
	Delete(ctx context.Context, userID string, version int64, analysisID string) error
}

type Tasks interface {
	Create(ctx context.Context, userID string, version int64, t *model.Task) (*model.Task, error)
	Get(ctx context.Context, userID, analysisID, taskID string) (*model.Task, error)
	List(ctx context.Context, req model.ListTasksRequest) ([]*model.Task, error)
	// Update applies the patch, maintains the user's completed-tasks counter
	// across status transitions, and re-derives the owning analysis's
	// completed flag, all in one transaction.
	Update(ctx context.Context, userID string, version int64, analysisID, taskID string, patch model.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, userID string, version int64, analysisID, taskID string) error
	// ReplaceList swaps out an analysis's entire task list, assigning
	// position = submission index. Used after generation.
	ReplaceList(ctx context.Context, userID string, version int64, analysisID string, tasks []*model.Task) ([]*model.Task, error)
	// Reorder applies a batch of position updates. Entries whose task no
	// longer exists are skipped; the returned count is the number applied.
	Reorder(ctx context.Context, userID string, version int64, updates []model.PositionUpdate) (int, error)

	AddSubtask(ctx context.Context, userID string, version int64, analysisID, taskID string, st model.Subtask) (*model.Task, error)
	UpdateSubtask(ctx context.Context, userID string, version int64, analysisID, taskID string, index int, patch model.SubtaskPatch) (*model.Task, error)
	DeleteSubtask(ctx context.Context, userID string, version int64, analysisID, taskID string, index int) (*model.Task, error)
}

type Reminders interface {
	// Create deactivates the user's other reminders and inserts the new one
	// as active, in one transaction.
	Create(ctx context.Context, userID string, version int64, r *model.Reminder) (*model.Reminder, error)
	List(ctx context.Context, userID string) ([]model.Reminder, error)
	GetActive(ctx context.Context, userID string) (*model.Reminder, error)
	Deactivate(ctx context.Context, userID string, version int64, reminderID string) error
}

type Prompts interface {
	Get(ctx context.Context, name string) (*model.PromptTemplate, error)
	List(ctx context.Context) ([]model.PromptTemplate, error)
	Upsert(ctx context.Context, p *model.PromptTemplate) error
	Delete(ctx context.Context, name string) error
}
