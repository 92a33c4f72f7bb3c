// Package prompts resolves the instruction templates used for completion
// requests. Templates are admin-editable at runtime, so resolution always
// reads the current stored version; nothing is cached.
package prompts

import (
	"context"
	"errors"
	"fmt"

	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/store"
)

// Intent selects which template family a request needs.
type Intent string

const (
	IntentIdentity       Intent = "identity"
	IntentTaskGeneration Intent = "task"
)

// Name builds the stored template name for an (intent, model-key suffix)
// pair, e.g. "brainpal_identity_openai4om".
func Name(intent Intent, modelSuffix string) string {
	return fmt.Sprintf("brainpal_%s_%s", intent, modelSuffix)
}

// Registry resolves templates from the store.
type Registry struct {
	store store.Prompts
}

func NewRegistry(s store.Prompts) *Registry {
	return &Registry{store: s}
}

// Resolve returns the active template for the pair. A missing or inactive
// template is a configuration error, never a silent fallback: the caller
// aborts the request rather than running with generic instructions.
func (r *Registry) Resolve(ctx context.Context, intent Intent, modelSuffix string) (*model.PromptTemplate, error) {
	name := Name(intent, modelSuffix)
	p, err := r.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", model.ErrPromptNotConfigured, name)
		}
		return nil, err
	}
	if !p.Active {
		return nil, fmt.Errorf("%w: %s is inactive", model.ErrPromptNotConfigured, name)
	}
	return p, nil
}
