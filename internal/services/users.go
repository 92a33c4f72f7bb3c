// Package services implements the application operations on top of the store,
// the completion gateway, and the pure parser/scheduler/metering helpers.
// Handlers stay thin; everything with a transaction boundary lives here.
package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/brainpal/brainpal-backend/internal/metering"
	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/store"
)

// UserService handles account provisioning, settings, keys, and the cached
// emotional status.
type UserService struct {
	store store.Store
	log   zerolog.Logger
}

func NewUserService(s store.Store, log zerolog.Logger) *UserService {
	return &UserService{store: s, log: log}
}

// EnsureUser returns the user record, creating it on first touch. The
// identity provider owns credentials; all this side needs is a stable id
// and an email.
func (s *UserService) EnsureUser(ctx context.Context, userID, email string) (*model.User, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	created, err := s.store.Users().Create(ctx, &model.User{
		UserID:       userID,
		Email:        email,
		Subscription: model.Subscription{Plan: model.PlanFree},
		Settings:     model.DefaultSettings(),
	})
	if err != nil {
		// Two first requests can race on the insert; whoever lost reads
		// the winner's row.
		if u, getErr := s.store.Users().Get(ctx, userID); getErr == nil {
			return u, nil
		}
		return nil, err
	}
	s.log.Info().Str("userId", userID).Msg("provisioned new user")
	return created, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (*model.User, error) {
	return s.store.Users().Get(ctx, userID)
}

// UpdateSettings replaces the user's settings. The schema version is pinned
// to the current layout regardless of what the client sent.
func (s *UserService) UpdateSettings(ctx context.Context, userID string, settings model.Settings) (*model.User, error) {
	settings.SchemaVersion = model.SettingsSchemaVersion
	err := withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		return s.store.Users().UpdateSettings(ctx, userID, u.Version, settings)
	})
	if err != nil {
		return nil, err
	}
	return s.store.Users().Get(ctx, userID)
}

// UpdateKeys merges the provided provider keys into the user's key bag.
// Empty fields leave the stored key unchanged; keys are write-only and are
// never returned to clients.
func (s *UserService) UpdateKeys(ctx context.Context, userID string, keys model.APIKeys) error {
	return withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		merged := u.Keys
		if keys.OpenRouter != "" {
			merged.OpenRouter = keys.OpenRouter
		}
		if keys.OpenAI != "" {
			merged.OpenAI = keys.OpenAI
		}
		if keys.Anthropic != "" {
			merged.Anthropic = keys.Anthropic
		}
		return s.store.Users().UpdateKeys(ctx, userID, u.Version, merged)
	})
}

// EmotionalStatus returns the cached rolling averages, recomputing them first
// when the sample count no longer matches the number of stored analyses.
func (s *UserService) EmotionalStatus(ctx context.Context, userID string) (*model.EmotionalStatus, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	analyses, err := s.store.Analyses().List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.EmotionalStatus.SampleCount == len(analyses) {
		es := u.EmotionalStatus
		return &es, nil
	}

	es := averageEmotionalStatus(analyses)
	if err := withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		return s.store.Users().UpdateEmotionalStatus(ctx, userID, u.Version, es)
	}); err != nil {
		return nil, err
	}
	return &es, nil
}

// averageEmotionalStatus computes the rolling averages over every stored
// analysis, rounded to one decimal place. No analyses yields neutral 5s.
func averageEmotionalStatus(analyses []*model.Analysis) model.EmotionalStatus {
	es := model.EmotionalStatus{
		EmotionalState: 5,
		EnergyLevel:    5,
		BrainClarity:   5,
		LastUpdated:    time.Now().UTC(),
	}
	if len(analyses) == 0 {
		return es
	}
	var state, energy, clarity float64
	for _, a := range analyses {
		state += float64(a.EmotionalState)
		energy += float64(a.EnergyLevel)
		clarity += float64(a.BrainClarity)
	}
	n := float64(len(analyses))
	es.EmotionalState = round1(state / n)
	es.EnergyLevel = round1(energy / n)
	es.BrainClarity = round1(clarity / n)
	es.SampleCount = len(analyses)
	return es
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// UsageSummary is the per-model counters plus their estimated dollar cost.
type UsageSummary struct {
	Tokens model.TokenUsage `json:"tokensUsed"`
	Cost   CostBreakdown    `json:"estimatedCost"`
}

// CostBreakdown prices each counter with the 70/30 input/output split since
// only combined totals are kept per model.
type CostBreakdown struct {
	OpenAI4oMini  float64 `json:"openai4om"`
	Claude3Haiku  float64 `json:"claude3h"`
	Gemini25Flash float64 `json:"gemini25"`
	Transcription float64 `json:"transcription"`
	Total         float64 `json:"total"`
}

// Usage reports the user's accumulated token counters and estimated costs.
func (s *UserService) Usage(ctx context.Context, userID string) (*UsageSummary, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	t := u.TokensUsed
	cb := CostBreakdown{
		OpenAI4oMini:  metering.EstimateCost("openai/gpt-4o-mini", 0, 0, t.OpenAI4oMini),
		Claude3Haiku:  metering.EstimateCost("anthropic/claude-3-haiku", 0, 0, t.Claude3Haiku),
		Gemini25Flash: metering.EstimateCost("google/gemini-2.5-flash", 0, 0, t.Gemini25Flash),
		// 1000 whisper units represent one minute of audio.
		Transcription: metering.TranscriptionCost(float64(t.WhisperUnits) * 60 / 1000),
	}
	cb.Total = cb.OpenAI4oMini + cb.Claude3Haiku + cb.Gemini25Flash + cb.Transcription
	return &UsageSummary{Tokens: t, Cost: cb}, nil
}
