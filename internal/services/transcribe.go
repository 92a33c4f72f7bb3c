package services

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/brainpal/brainpal-backend/internal/metering"
	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/store"
)

// Transcriber converts audio to text. The speech-to-text vendor lives
// behind this interface; the service only consumes the transcript and a
// duration estimate for metering.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (text string, durationSeconds float64, err error)
}

// TranscriptionService runs speech-to-text and meters audio usage in whisper
// units (1000 units per minute).
type TranscriptionService struct {
	store       store.Store
	transcriber Transcriber
	log         zerolog.Logger
}

func NewTranscriptionService(s store.Store, tr Transcriber, log zerolog.Logger) *TranscriptionService {
	return &TranscriptionService{store: s, transcriber: tr, log: log}
}

// TranscribeResult is the voice endpoint's response.
type TranscribeResult struct {
	Transcript      string  `json:"transcript"`
	DurationSeconds float64 `json:"durationSeconds"`
	UnitsRecorded   int64   `json:"unitsRecorded"`
}

// Transcribe converts the audio and books its duration onto the user's
// whisper counter. Metering failures are logged, not surfaced: the user
// already paid the latency for the transcript.
func (s *TranscriptionService) Transcribe(ctx context.Context, userID string, audio io.Reader, filename string) (*TranscribeResult, error) {
	text, seconds, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		return nil, err
	}

	units := metering.AudioUnits(seconds)
	if units > 0 {
		err := withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
			return s.store.Users().AddTokenUsage(ctx, userID, u.Version, model.TokenUsage{WhisperUnits: units})
		})
		if err != nil {
			s.log.Error().Err(err).Str("userId", userID).Msg("audio usage not recorded")
		} else {
			s.log.Info().
				Str("userId", userID).
				Float64("seconds", seconds).
				Int64("units", units).
				Float64("estimatedCost", metering.TranscriptionCost(seconds)).
				Msg("audio usage recorded")
		}
	}

	return &TranscribeResult{Transcript: text, DurationSeconds: seconds, UnitsRecorded: units}, nil
}
