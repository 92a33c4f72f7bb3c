package metering

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProviderModel(t *testing.T) {
	m, ok := ProviderModel(KeyOpenAI4oMini)
	require.True(t, ok)
	require.Equal(t, "openai/gpt-4o-mini", m)

	m, ok = ProviderModel(KeyCustomAnthropic)
	require.True(t, ok)
	require.Equal(t, "anthropic/claude-3-haiku", m)

	_, ok = ProviderModel("gpt5")
	require.False(t, ok)
}

func TestPromptSuffix(t *testing.T) {
	require.Equal(t, "openai4om", PromptSuffix(KeyOpenAI4oMini))
	require.Equal(t, "openai", PromptSuffix(KeyCustomOpenAI))
	require.Equal(t, "anthropic", PromptSuffix(KeyCustomAnthropic))
}

func TestEstimateCost_ActualCounts(t *testing.T) {
	// 1M input at $0.15 plus 1M output at $0.60.
	got := EstimateCost("openai/gpt-4o-mini", 1_000_000, 1_000_000, 0)
	require.InDelta(t, 0.75, got, 1e-9)
}

func TestEstimateCost_TotalOnlySplit(t *testing.T) {
	// 1000 total tokens: 700 input, 300 output.
	got := EstimateCost("anthropic/claude-3-haiku", 0, 0, 1000)
	want := (700*0.25 + 300*1.25) / 1_000_000
	require.InDelta(t, want, got, 1e-9)
}

func TestEstimateCost_UnknownModel(t *testing.T) {
	require.Zero(t, EstimateCost("mistral/unknown", 100, 100, 0))
}

func TestTokenDelta(t *testing.T) {
	d := TokenDelta("openai/gpt-4o-mini", 1200)
	require.Equal(t, int64(1200), d.OpenAI4oMini)
	require.Zero(t, d.Claude3Haiku)

	d = TokenDelta("GOOGLE/Gemini-2.5-Flash", 50)
	require.Equal(t, int64(50), d.Gemini25Flash)

	// Unknown model is a logged no-op, not an error.
	d = TokenDelta("mistral/unknown", 50)
	require.Zero(t, d.OpenAI4oMini+d.Claude3Haiku+d.Gemini25Flash+d.WhisperUnits)
}

func TestAudioUnits(t *testing.T) {
	require.Equal(t, int64(1000), AudioUnits(60))   // one minute
	require.Equal(t, int64(500), AudioUnits(30))    // half minute
	require.Equal(t, int64(17), AudioUnits(1))      // ceil(16.67)
	require.Equal(t, int64(0), AudioUnits(0))
}

func TestTranscriptionCost(t *testing.T) {
	require.InDelta(t, 0.006, TranscriptionCost(60), 1e-9)
	require.InDelta(t, 0.0001, TranscriptionCost(0.2), 1e-9) // rounds up to a second
}
