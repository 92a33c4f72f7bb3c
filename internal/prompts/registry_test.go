package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/store/sqlite"
)

func TestRegistry_Resolve(t *testing.T) {
	ctx := context.Background()
	s, err := sqlite.Open(ctx, t.TempDir()+"/prompts.db")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	reg := NewRegistry(s.Prompts())

	_, err = reg.Resolve(ctx, IntentIdentity, "openai4om")
	require.ErrorIs(t, err, model.ErrPromptNotConfigured)

	require.NoError(t, s.Prompts().Upsert(ctx, &model.PromptTemplate{
		Name:    Name(IntentIdentity, "openai4om"),
		Content: "You are a supportive companion.",
		Active:  true,
	}))

	p, err := reg.Resolve(ctx, IntentIdentity, "openai4om")
	require.NoError(t, err)
	require.Equal(t, "You are a supportive companion.", p.Content)

	// Edits take effect on the very next resolve.
	p.Content = "You are a concise companion."
	require.NoError(t, s.Prompts().Upsert(ctx, p))
	p2, err := reg.Resolve(ctx, IntentIdentity, "openai4om")
	require.NoError(t, err)
	require.Equal(t, "You are a concise companion.", p2.Content)

	// Deactivated templates are configuration errors, not fallbacks.
	p2.Active = false
	require.NoError(t, s.Prompts().Upsert(ctx, p2))
	_, err = reg.Resolve(ctx, IntentIdentity, "openai4om")
	require.ErrorIs(t, err, model.ErrPromptNotConfigured)
}

func TestName(t *testing.T) {
	require.Equal(t, "brainpal_identity_claude3h", Name(IntentIdentity, "claude3h"))
	require.Equal(t, "brainpal_task_gemini25", Name(IntentTaskGeneration, "gemini25"))
}
