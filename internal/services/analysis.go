package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/brainpal/brainpal-backend/internal/completion"
	"github.com/brainpal/brainpal-backend/internal/metering"
	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/parser"
	"github.com/brainpal/brainpal-backend/internal/prompts"
	"github.com/brainpal/brainpal-backend/internal/store"
)

// AnalysisService runs the brain-state pipeline: prompt resolution,
// completion, emotion extraction, persistence, and usage metering.
type AnalysisService struct {
	store   store.Store
	gateway completion.Gateway
	prompts *prompts.Registry
	log     zerolog.Logger
	now     func() time.Time
}

func NewAnalysisService(s store.Store, gw completion.Gateway, reg *prompts.Registry, log zerolog.Logger) *AnalysisService {
	return &AnalysisService{store: s, gateway: gw, prompts: reg, log: log, now: time.Now}
}

// AnalyzeResult is what the analyze endpoint returns to the client.
type AnalyzeResult struct {
	Analysis   *model.Analysis `json:"analysis"`
	ModelUsed  string          `json:"modelUsed"`
	TokensUsed int64           `json:"tokensUsed"`
}

// Analyze scores one brain dump and appends the resulting analysis to the
// user's history. The prompts come from the registry; a missing template
// aborts the request rather than running with generic instructions.
func (s *AnalysisService) Analyze(ctx context.Context, userID, transcript string) (*AnalyzeResult, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	sel, err := resolveModel(u)
	if err != nil {
		return nil, err
	}

	suffix := metering.PromptSuffix(sel.ModelKey)
	identity, err := s.prompts.Resolve(ctx, prompts.IntentIdentity, suffix)
	if err != nil {
		return nil, err
	}
	task, err := s.prompts.Resolve(ctx, prompts.IntentTaskGeneration, suffix)
	if err != nil {
		return nil, err
	}

	messages := []completion.Message{
		{Role: "system", Content: identity.Content},
		{Role: "user", Content: fmt.Sprintf("%s\n\nBrain Dump: %s", task.Content, transcript)},
	}
	res, err := s.gateway.Complete(ctx, sel.ProviderModel, messages, sel.OverrideKey)
	if err != nil {
		return nil, err
	}

	emotion, err := parser.ParseEmotion(res.Text)
	if err != nil {
		if !errors.Is(err, model.ErrUnparseableResponse) {
			return nil, err
		}
		// The model answered in prose instead of the requested shape. Keep
		// the text and score neutral rather than failing the whole request.
		s.log.Warn().Str("userId", userID).Msg("emotion extraction fell back to defaults")
		emotion = &parser.Emotion{
			EmpathicResponse: res.Text,
			EmotionalState:   5,
			EnergyLevel:      5,
			BrainClarity:     5,
			AnalysisTitle:    "Brain Analysis",
		}
	}

	analysis := &model.Analysis{
		AnalysisID:     model.NewID(),
		UserID:         userID,
		Transcript:     transcript,
		EmotionalState: emotion.EmotionalState,
		EnergyLevel:    emotion.EnergyLevel,
		BrainClarity:   emotion.BrainClarity,
		Summary:        emotion.EmpathicResponse,
		Title:          emotion.AnalysisTitle,
		CreationTime:   s.now().UTC(),
	}

	var created *model.Analysis
	err = withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		var createErr error
		created, createErr = s.store.Analyses().Create(ctx, userID, u.Version, analysis)
		return createErr
	})
	if err != nil {
		return nil, err
	}

	recordTokens(ctx, s.store.Users(), s.log, userID, res)
	s.refreshEmotionalStatus(ctx, userID)

	return &AnalyzeResult{Analysis: created, ModelUsed: res.Model, TokensUsed: res.TokensUsed}, nil
}

func (s *AnalysisService) Get(ctx context.Context, userID, analysisID string) (*model.Analysis, error) {
	return s.store.Analyses().Get(ctx, userID, analysisID)
}

func (s *AnalysisService) List(ctx context.Context, userID string) ([]*model.Analysis, error) {
	return s.store.Analyses().List(ctx, userID)
}

// Delete removes an analysis and its tasks, returning how many tasks went
// with it.
func (s *AnalysisService) Delete(ctx context.Context, userID, analysisID string) (int, error) {
	a, err := s.store.Analyses().Get(ctx, userID, analysisID)
	if err != nil {
		return 0, err
	}
	err = withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		return s.store.Analyses().Delete(ctx, userID, u.Version, analysisID)
	})
	if err != nil {
		return 0, err
	}
	return len(a.Tasks), nil
}

// recordTokens books completion usage onto the user's counters. Metering is
// best-effort: an accounting failure is logged, never surfaced.
func recordTokens(ctx context.Context, users store.Users, log zerolog.Logger, userID string, res *completion.Result) {
	delta := metering.TokenDelta(res.Model, res.TokensUsed)
	err := withUser(ctx, users, userID, func(u *model.User) error {
		return users.AddTokenUsage(ctx, userID, u.Version, delta)
	})
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("token usage not recorded")
		return
	}
	cost := metering.EstimateCost(res.Model, res.InputTokens, res.OutputTokens, res.TokensUsed)
	log.Info().
		Str("userId", userID).
		Str("model", res.Model).
		Int64("tokens", res.TokensUsed).
		Float64("estimatedCost", cost).
		Msg("completion usage recorded")
}

// refreshEmotionalStatus recomputes the cached rolling averages after an
// analysis insert. Also best-effort; readers recompute lazily on mismatch.
func (s *AnalysisService) refreshEmotionalStatus(ctx context.Context, userID string) {
	analyses, err := s.store.Analyses().List(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("userId", userID).Msg("emotional status not refreshed")
		return
	}
	es := averageEmotionalStatus(analyses)
	err = withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		return s.store.Users().UpdateEmotionalStatus(ctx, userID, u.Version, es)
	})
	if err != nil {
		s.log.Error().Err(err).Str("userId", userID).Msg("emotional status not refreshed")
	}
}
