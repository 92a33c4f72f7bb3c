package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a dash-free identifier. Analysis and task ids must never
// contain '-' because the compound task id uses it as the separator.
func NewID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Plan is a subscription tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanBasic   Plan = "basic"
	PlanPremium Plan = "premium"
)

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusPostponed Status = "postponed"
)

// LedgerType classifies a credit history entry.
type LedgerType string

const (
	LedgerSubscription LedgerType = "subscription"
	LedgerPurchase     LedgerType = "purchase"
	LedgerUsage        LedgerType = "usage"
	LedgerRenewal      LedgerType = "renewal"
	LedgerAdminUpdate  LedgerType = "admin_update"
)

// User is the root aggregate: one record per account. Analyses, tasks and
// ledger entries are separately addressable rows owned by it; Version is the
// optimistic-concurrency stamp covering the whole aggregate.
type User struct {
	UserID          string          `json:"userId"`
	Email           string          `json:"email"`
	DisplayName     *string         `json:"displayName,omitempty"`
	CompletedTasks  int             `json:"completedTasks"`
	Subscription    Subscription    `json:"subscription"`
	Credits         CreditBalance   `json:"credits"`
	TokensUsed      TokenUsage      `json:"tokensUsed"`
	Keys            APIKeys         `json:"-"`
	Settings        Settings        `json:"settings"`
	EmotionalStatus EmotionalStatus `json:"emotionalStatus"`
	Version         int64           `json:"-"`
	CreationTime    time.Time       `json:"creationTime"`
}

// Subscription state cached on the user.
type Subscription struct {
	Active    bool       `json:"active"`
	Plan      Plan       `json:"plan"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	AutoRenew bool       `json:"autoRenew"`
}

// CreditBalance caches the two balances derived from the ledger history.
// Every mutation of these fields must be paired with exactly one history
// append in the same transaction.
type CreditBalance struct {
	SubscriptionBalance int `json:"subscriptionBalance"`
	PurchasedBalance    int `json:"purchasedBalance"`
}

// TokenUsage holds the per-provider-model running counters. WhisperUnits
// uses the 1000-units-per-minute fixed-point representation.
type TokenUsage struct {
	OpenAI4oMini  int64 `json:"openai4om"`
	Claude3Haiku  int64 `json:"claude3h"`
	Gemini25Flash int64 `json:"gemini25"`
	WhisperUnits  int64 `json:"whisperUnits"`
}

// APIKeys is the user's optional provider key bag. Keys are write-only over
// the API and never serialized back to clients.
type APIKeys struct {
	OpenRouter string `json:"openrouterApiKey,omitempty"`
	OpenAI     string `json:"openaiApiKey,omitempty"`
	Anthropic  string `json:"anthropicApiKey,omitempty"`
}

// Settings is the versioned user configuration struct. SchemaVersion guards
// the one-time migration performed at the store boundary.
type Settings struct {
	SchemaVersion     int    `json:"schemaVersion"`
	DisplayName       string `json:"displayName"`
	TimeZone          string `json:"timeZone"`
	SelectedModel     string `json:"selectedModel"`
	TaskStyle         string `json:"taskStyle"`
	DefaultTaskMins   int    `json:"defaultTaskMinutes"`
	EmailReminders    bool   `json:"emailReminders"`
	CelebrationLevel  string `json:"celebrationLevel"`
	ShowDeletePopup   bool   `json:"showDeletePopup"`
	HighContrast      bool   `json:"highContrast"`
	ReduceAnimations  bool   `json:"reduceAnimations"`
}

// SettingsSchemaVersion is the current Settings layout version.
const SettingsSchemaVersion = 1

// DefaultSettings returns the settings assigned to a new user.
func DefaultSettings() Settings {
	return Settings{
		SchemaVersion:    SettingsSchemaVersion,
		TimeZone:         "America/New_York",
		SelectedModel:    "openai4om",
		TaskStyle:        "gentle",
		DefaultTaskMins:  15,
		EmailReminders:   true,
		CelebrationLevel: "moderate",
		ShowDeletePopup:  true,
	}
}

// EmotionalStatus is the cached rolling average over all analyses.
// SampleCount != number of analyses signals a stale cache.
type EmotionalStatus struct {
	EmotionalState float64   `json:"emotionalState"`
	EnergyLevel    float64   `json:"energyLevel"`
	BrainClarity   float64   `json:"brainClarity"`
	LastUpdated    time.Time `json:"lastUpdated"`
	SampleCount    int       `json:"sampleCount"`
}

// LedgerEntry is an immutable credit history record.
type LedgerEntry struct {
	Type        LedgerType `json:"type"`
	Amount      int        `json:"amount"`
	Description string     `json:"description"`
	Timestamp   time.Time  `json:"timestamp"`
}

// Analysis is one scored brain dump plus its generated task tree.
type Analysis struct {
	AnalysisID     string    `json:"analysisId"`
	UserID         string    `json:"userId"`
	Transcript     string    `json:"transcript"`
	EmotionalState int       `json:"emotionalState"`
	EnergyLevel    int       `json:"energyLevel"`
	BrainClarity   int       `json:"brainClarity"`
	Summary        string    `json:"summary"`
	Title          string    `json:"title"`
	Completed      bool      `json:"completed"`
	CreationTime   time.Time `json:"creationTime"`
	Tasks          []*Task   `json:"tasks,omitempty"`
}

// Task is owned by its Analysis. Position is the user-controlled display
// order; array/insertion order is creation order.
type Task struct {
	TaskID         string     `json:"taskId"`
	AnalysisID     string     `json:"analysisId"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Priority       Priority   `json:"priority"`
	Status         Status     `json:"status"`
	Position       int        `json:"position"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	ScheduledDate  *time.Time `json:"scheduledDate,omitempty"`
	ScheduledTime  *string    `json:"scheduledTime,omitempty"`
	PostponedUntil *time.Time `json:"postponedUntil,omitempty"`
	CreationTime   time.Time  `json:"creationTime"`
	Subtasks       []Subtask  `json:"subtasks"`
}

// Subtask is addressed by positional index within its task.
type Subtask struct {
	Title            string `json:"title"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	Completed        bool   `json:"completed"`
}

// Transaction is the audit record for one completed payment, keyed by the
// payment provider's globally unique transaction id.
type Transaction struct {
	TransactionID string    `json:"transactionId"`
	UserID        string    `json:"userId"`
	UserEmail     string    `json:"userEmail"`
	Type          string    `json:"type"`
	Plan          Plan      `json:"plan,omitempty"`
	PackageSize   string    `json:"packageSize,omitempty"`
	PaymentMethod string    `json:"paymentMethod"`
	Amount        float64   `json:"amount"`
	CreditsAdded  int       `json:"creditsAdded"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	CreationTime  time.Time `json:"creationTime"`
}

// Reminder is a stored reminder-time configuration. At most one is active
// per user by convention; creation deactivates the others first.
type Reminder struct {
	ReminderID   string    `json:"reminderId"`
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	Count        int       `json:"count"`
	StartTime    string    `json:"startTime"`
	EndTime      string    `json:"endTime"`
	Timeframe    []string  `json:"timeframe"`
	Active       bool      `json:"active"`
	CreationTime time.Time `json:"creationTime"`
}

// PromptTemplate is a named, admin-editable instruction template.
type PromptTemplate struct {
	Name           string    `json:"name"`
	Content        string    `json:"content"`
	Description    string    `json:"description"`
	Active         bool      `json:"active"`
	LastModifiedBy string    `json:"lastModifiedBy"`
	UpdateTime     time.Time `json:"updateTime"`
}

// TaskPatch carries the optional fields of a task update; nil means
// "leave unchanged". Date strings are coerced to dates by the store.
type TaskPatch struct {
	Title          *string   `json:"title,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Priority       *Priority `json:"priority,omitempty"`
	Status         *Status   `json:"status,omitempty"`
	Position       *int      `json:"position,omitempty"`
	DueDate        *string   `json:"dueDate,omitempty"`
	ScheduledDate  *string   `json:"scheduledDate,omitempty"`
	ScheduledTime  *string   `json:"scheduledTime,omitempty"`
	PostponedUntil *string   `json:"postponedUntil,omitempty"`
}

// SubtaskPatch carries the optional fields of a subtask update.
type SubtaskPatch struct {
	Title            *string `json:"title,omitempty"`
	EstimatedMinutes *int    `json:"estimatedMinutes,omitempty"`
	Completed        *bool   `json:"completed,omitempty"`
}

// ListTasksRequest captures the filters of a flattened task listing.
type ListTasksRequest struct {
	UserID     string
	Status     *Status
	AnalysisID *string
}

// PositionUpdate is one entry of a reorder batch. TaskID is a compound id.
type PositionUpdate struct {
	TaskID   string `json:"taskId"`
	Position int    `json:"position"`
}
