package services

import (
	"fmt"
	"strings"

	"github.com/brainpal/brainpal-backend/internal/metering"
	"github.com/brainpal/brainpal-backend/internal/model"
)

// modelSelection is the resolved target of one completion request.
type modelSelection struct {
	// ModelKey is the settings-level key, e.g. "openai4om".
	ModelKey string
	// ProviderModel is what the gateway sends, e.g. "openai/gpt-4o-mini".
	ProviderModel string
	// OverrideKey replaces the process default credential when non-empty.
	OverrideKey string
}

// resolveModel picks the provider model and credential for a user. Unknown
// selections quietly fall back to the default model. The custom_* variants
// require the user's own provider key and fail without one, since running
// them on the shared credential would bill the wrong party.
func resolveModel(u *model.User) (modelSelection, error) {
	key := u.Settings.SelectedModel
	providerModel, ok := metering.ProviderModel(key)
	if !ok {
		key = metering.KeyOpenAI4oMini
		providerModel, _ = metering.ProviderModel(key)
	}

	sel := modelSelection{ModelKey: key, ProviderModel: providerModel}
	switch key {
	case metering.KeyCustomOpenAI:
		sel.OverrideKey = u.Keys.OpenAI
	case metering.KeyCustomAnthropic:
		sel.OverrideKey = u.Keys.Anthropic
	default:
		// An OpenRouter key, if stored, routes standard models through the
		// user's own account instead of the shared one.
		sel.OverrideKey = u.Keys.OpenRouter
	}
	if strings.HasPrefix(key, "custom_") && sel.OverrideKey == "" {
		return sel, fmt.Errorf("%w: %s requires a stored provider key", model.ErrNoCredential, key)
	}
	return sel, nil
}
