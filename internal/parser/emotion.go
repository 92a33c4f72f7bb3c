package parser

import (
	"encoding/json"
	"math"
)

// Emotion is the emotional-state extraction result.
type Emotion struct {
	EmpathicResponse string `json:"empathicResponse"`
	EmotionalState   int    `json:"emotionalState"`
	EnergyLevel      int    `json:"energyLevel"`
	BrainClarity     int    `json:"brainClarity"`
	Reasoning        string `json:"reasoning"`
	AnalysisTitle    string `json:"analysisTitle"`
}

// emotionWire matches the snake_case shape the prompts ask the model for.
// Score fields are pointers so "absent" is distinguishable from zero.
type emotionWire struct {
	EmpatheticResponse string   `json:"empathetic_response"`
	EmotionalState     *float64 `json:"emotional_state"`
	EnergyLevel        *float64 `json:"energy_level"`
	BrainClarity       *float64 `json:"brain_clarity"`
	Reasoning          string   `json:"reasoning"`
	AnalysisTitle      string   `json:"analysis_title"`
}

// ParseEmotion extracts an emotional assessment from completion text. Each
// score is clamped to [1,10] and defaults to 5 when the model omits it.
func ParseEmotion(content string) (*Emotion, error) {
	raw, err := extractJSONObject(content)
	if err != nil {
		return nil, err
	}
	var wire emotionWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}

	out := &Emotion{
		EmpathicResponse: wire.EmpatheticResponse,
		EmotionalState:   clampScore(wire.EmotionalState),
		EnergyLevel:      clampScore(wire.EnergyLevel),
		BrainClarity:     clampScore(wire.BrainClarity),
		Reasoning:        wire.Reasoning,
		AnalysisTitle:    wire.AnalysisTitle,
	}
	if out.AnalysisTitle == "" {
		out.AnalysisTitle = "Brain Analysis"
	}
	return out, nil
}

func clampScore(v *float64) int {
	if v == nil {
		return 5
	}
	n := int(math.Round(*v))
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}
