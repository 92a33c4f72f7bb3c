// Package metering maps model keys to provider models, prices completions,
// and converts usage reports into counter deltas.
package metering

import (
	"math"
	"strings"

	"github.com/brainpal/brainpal-backend/internal/model"
)

// Model keys users select in settings.
const (
	KeyOpenAI4oMini    = "openai4om"
	KeyClaude3Haiku    = "claude3h"
	KeyGemini25Flash   = "gemini25"
	KeyCustomOpenAI    = "custom_openai"
	KeyCustomAnthropic = "custom_anthropic"
)

// providerModels maps a model key to the model name sent to the completion
// provider. Custom-key variants run the same models on the user's own key.
var providerModels = map[string]string{
	KeyOpenAI4oMini:    "openai/gpt-4o-mini",
	KeyClaude3Haiku:    "anthropic/claude-3-haiku",
	KeyGemini25Flash:   "google/gemini-2.5-flash",
	KeyCustomOpenAI:    "openai/gpt-4o-mini",
	KeyCustomAnthropic: "anthropic/claude-3-haiku",
}

// ProviderModel resolves a model key to the provider model name.
// Unknown keys return ok=false; callers reject the request.
func ProviderModel(modelKey string) (string, bool) {
	m, ok := providerModels[modelKey]
	return m, ok
}

// PromptSuffix is the model-key part of a prompt template name. Custom-key
// variants share the base model's prompts.
func PromptSuffix(modelKey string) string {
	return strings.TrimPrefix(modelKey, "custom_")
}

type rate struct{ input, output float64 }

// Pricing in dollars per 1M tokens.
var pricing = map[string]rate{
	"openai/gpt-4o-mini":       {input: 0.15, output: 0.60},
	"anthropic/claude-3-haiku": {input: 0.25, output: 1.25},
	"google/gemini-2.5-flash":  {input: 0.075, output: 0.30},
}

// EstimateCost prices a completion. When the provider only reported a total,
// the split is approximated as 70% input / 30% output. Unknown models cost 0.
func EstimateCost(providerModel string, inputTokens, outputTokens, totalTokens int64) float64 {
	r, ok := pricing[strings.ToLower(providerModel)]
	if !ok {
		return 0
	}
	if inputTokens == 0 && outputTokens == 0 && totalTokens > 0 {
		inputTokens = int64(float64(totalTokens) * 0.7)
		outputTokens = int64(float64(totalTokens) * 0.3)
	}
	cost := (float64(inputTokens)*r.input + float64(outputTokens)*r.output) / 1_000_000
	return math.Round(cost*1e6) / 1e6
}

// TokenDelta converts a completion's token count into a counter delta for
// the matching per-model counter. Unknown models yield a zero delta, which
// callers log and drop rather than fail on.
func TokenDelta(providerModel string, tokens int64) model.TokenUsage {
	var d model.TokenUsage
	if tokens <= 0 {
		return d
	}
	switch strings.ToLower(providerModel) {
	case "openai/gpt-4o-mini", "openai/gpt-4o", "openai/gpt-4", "openai/gpt-3.5-turbo":
		d.OpenAI4oMini = tokens
	case "anthropic/claude-3-haiku", "anthropic/claude-3-sonnet", "anthropic/claude-3-opus":
		d.Claude3Haiku = tokens
	case "google/gemini-2.5-flash", "google/gemini-1.5-pro", "google/gemini-pro":
		d.Gemini25Flash = tokens
	}
	return d
}

// AudioUnits converts an audio duration into fixed-point transcription units
// where 1000 units equal one minute, rounded up. The fixed-point form avoids
// float drift across many small increments.
func AudioUnits(durationSeconds float64) int64 {
	if durationSeconds <= 0 {
		return 0
	}
	return int64(math.Ceil(durationSeconds / 60 * 1000))
}

// TranscriptionCost prices audio transcription at $0.0001 per started second.
func TranscriptionCost(durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	cost := math.Ceil(durationSeconds) * 0.0001
	return math.Round(cost*1e6) / 1e6
}
