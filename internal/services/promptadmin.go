package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/store"
)

// PromptAdminService edits the instruction templates. Admin gating happens
// at the HTTP layer; this service only enforces shape.
type PromptAdminService struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewPromptAdminService(s store.Store, log zerolog.Logger) *PromptAdminService {
	return &PromptAdminService{store: s, log: log, now: time.Now}
}

func (s *PromptAdminService) List(ctx context.Context) ([]model.PromptTemplate, error) {
	return s.store.Prompts().List(ctx)
}

func (s *PromptAdminService) Get(ctx context.Context, name string) (*model.PromptTemplate, error) {
	return s.store.Prompts().Get(ctx, name)
}

// Upsert writes a template. Edits take effect on the next resolve; nothing
// caches templates.
func (s *PromptAdminService) Upsert(ctx context.Context, actorEmail string, p *model.PromptTemplate) (*model.PromptTemplate, error) {
	if !strings.HasPrefix(p.Name, "brainpal_") {
		return nil, fmt.Errorf("%w: template name must start with brainpal_", model.ErrValidation)
	}
	if p.Content == "" {
		return nil, fmt.Errorf("%w: template content is required", model.ErrValidation)
	}
	p.LastModifiedBy = actorEmail
	p.UpdateTime = s.now().UTC()
	if err := s.store.Prompts().Upsert(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info().Str("name", p.Name).Str("modifiedBy", actorEmail).Msg("prompt template updated")
	return s.store.Prompts().Get(ctx, p.Name)
}

func (s *PromptAdminService) Delete(ctx context.Context, actorEmail, name string) error {
	if err := s.store.Prompts().Delete(ctx, name); err != nil {
		return err
	}
	s.log.Info().Str("name", name).Str("modifiedBy", actorEmail).Msg("prompt template deleted")
	return nil
}
