package api

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/brainpal/brainpal-backend/internal/api/recovery"
	"github.com/brainpal/brainpal-backend/internal/auth"
	"github.com/brainpal/brainpal-backend/internal/completion"
	"github.com/brainpal/brainpal-backend/internal/health"
	"github.com/brainpal/brainpal-backend/internal/prompts"
	"github.com/brainpal/brainpal-backend/internal/services"
	"github.com/brainpal/brainpal-backend/internal/store"
)

// RouterDeps carries everything the HTTP surface needs. Transcriber is
// optional; without one the voice route is not registered.
type RouterDeps struct {
	Store         store.Store
	Authorizer    auth.Authorizer
	Gateway       completion.Gateway
	Transcriber   services.Transcriber
	WebhookSecret string
	IsHealthy     func() bool
	Log           zerolog.Logger
}

// NewRouter assembles services, handlers and routes.
func NewRouter(d RouterDeps) *mux.Router {
	registry := prompts.NewRegistry(d.Store.Prompts())

	userSvc := services.NewUserService(d.Store, d.Log)
	analysisSvc := services.NewAnalysisService(d.Store, d.Gateway, registry, d.Log)
	taskSvc := services.NewTaskService(d.Store, d.Gateway, registry, d.Log)
	billingSvc := services.NewBillingService(d.Store, d.Log)
	reminderSvc := services.NewReminderService(d.Store, d.Log)
	promptSvc := services.NewPromptAdminService(d.Store, d.Log)

	userHandler := NewUserHandler(userSvc)
	analysisHandler := NewAnalysisHandler(analysisSvc, userSvc)
	taskHandler := NewTaskHandler(taskSvc, userSvc)
	billingHandler := NewBillingHandler(billingSvc, userSvc, d.WebhookSecret, d.Log)
	reminderHandler := NewReminderHandler(reminderSvc, userSvc)
	adminHandler := NewAdminHandler(promptSvc)

	pinger, _ := d.Store.(health.HealthPinger)
	healthHandler := NewHealthHandler(d.IsHealthy, pinger)

	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	// Unauthenticated surface: health probes and the signed payment webhook.
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/health/db", healthHandler.CheckStorageHealth).Methods("GET")
	router.HandleFunc("/api/billing/webhook", billingHandler.Webhook).Methods("POST")

	authed := router.PathPrefix("/api").Subrouter()
	authed.Use(auth.Middleware(d.Authorizer))

	// Analyses
	authed.HandleFunc("/analyses", analysisHandler.Analyze).Methods("POST")
	authed.HandleFunc("/analyses", analysisHandler.List).Methods("GET")
	authed.HandleFunc("/analyses/{analysisId}", analysisHandler.Get).Methods("GET")
	authed.HandleFunc("/analyses/{analysisId}", analysisHandler.Delete).Methods("DELETE")

	// Tasks. "generate" and "reorder" are registered before the compound-id
	// routes so they are not swallowed as task ids.
	authed.HandleFunc("/tasks/generate", taskHandler.Generate).Methods("POST")
	authed.HandleFunc("/tasks/reorder", taskHandler.Reorder).Methods("PUT")
	authed.HandleFunc("/tasks", taskHandler.Create).Methods("POST")
	authed.HandleFunc("/tasks", taskHandler.List).Methods("GET")
	authed.HandleFunc("/tasks/{taskId}", taskHandler.Get).Methods("GET")
	authed.HandleFunc("/tasks/{taskId}", taskHandler.Update).Methods("PUT")
	authed.HandleFunc("/tasks/{taskId}", taskHandler.Delete).Methods("DELETE")

	// Subtasks, addressed by positional index.
	authed.HandleFunc("/analyses/{analysisId}/tasks/{taskId}/subtasks", taskHandler.AddSubtask).Methods("POST")
	authed.HandleFunc("/analyses/{analysisId}/tasks/{taskId}/subtasks/{index:[0-9]+}", taskHandler.UpdateSubtask).Methods("PUT")
	authed.HandleFunc("/analyses/{analysisId}/tasks/{taskId}/subtasks/{index:[0-9]+}", taskHandler.DeleteSubtask).Methods("DELETE")

	// Billing
	authed.HandleFunc("/billing/credits", billingHandler.GetCredits).Methods("GET")
	authed.HandleFunc("/billing/credits", billingHandler.PurchaseCredits).Methods("POST")
	authed.HandleFunc("/billing/subscribe", billingHandler.Subscribe).Methods("POST")
	authed.HandleFunc("/billing/cancel", billingHandler.Cancel).Methods("POST")
	authed.HandleFunc("/billing/history", billingHandler.History).Methods("GET")

	// Account
	authed.HandleFunc("/users/me/settings", userHandler.GetSettings).Methods("GET")
	authed.HandleFunc("/users/me/settings", userHandler.UpdateSettings).Methods("PUT")
	authed.HandleFunc("/users/me/keys", userHandler.UpdateKeys).Methods("PUT")
	authed.HandleFunc("/users/me/emotional-status", userHandler.EmotionalStatus).Methods("GET")
	authed.HandleFunc("/users/me/usage", userHandler.Usage).Methods("GET")

	// Reminders
	authed.HandleFunc("/reminders", reminderHandler.List).Methods("GET")
	authed.HandleFunc("/reminders", reminderHandler.Create).Methods("POST")
	authed.HandleFunc("/reminders/{reminderId}", reminderHandler.Delete).Methods("DELETE")

	// Voice
	if d.Transcriber != nil {
		transcriptionSvc := services.NewTranscriptionService(d.Store, d.Transcriber, d.Log)
		voiceHandler := NewVoiceHandler(transcriptionSvc, userSvc)
		authed.HandleFunc("/voice/transcribe", voiceHandler.Transcribe).Methods("POST")
	}

	// Admin
	authed.HandleFunc("/admin/prompts", adminHandler.ListPrompts).Methods("GET")
	authed.HandleFunc("/admin/prompts/{name}", adminHandler.GetPrompt).Methods("GET")
	authed.HandleFunc("/admin/prompts/{name}", adminHandler.UpsertPrompt).Methods("PUT")
	authed.HandleFunc("/admin/prompts/{name}", adminHandler.DeletePrompt).Methods("DELETE")

	return router
}
