// Package transcribe is the speech-to-text collaborator. The rest of the
// system only consumes the transcript and a duration estimate for metering.
package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/brainpal/brainpal-backend/internal/model"
)

// WhisperClient calls an OpenAI-compatible audio transcription endpoint.
type WhisperClient struct {
	http   *resty.Client
	apiKey string
}

func NewWhisperClient(baseURL, apiKey string, timeout time.Duration) *WhisperClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	return &WhisperClient{http: client, apiKey: apiKey}
}

type whisperResponse struct {
	Text string `json:"text"`
	// Duration is only present with verbose_json; zero means unknown and
	// the caller meters nothing.
	Duration float64 `json:"duration"`
}

// Transcribe uploads the audio and returns the text plus the provider's
// duration estimate in seconds.
func (c *WhisperClient) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, float64, error) {
	if c.apiKey == "" {
		return "", 0, model.ErrNoCredential
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetFileReader("file", filename, audio).
		SetFormData(map[string]string{
			"model":           "whisper-1",
			"response_format": "verbose_json",
		}).
		Post("/audio/transcriptions")
	if err != nil {
		return "", 0, fmt.Errorf("transcription request: %w", err)
	}
	if resp.IsError() {
		return "", 0, &model.ProviderError{StatusCode: resp.StatusCode(), Message: "transcription failed"}
	}

	var body whisperResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", 0, fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}
	if body.Text == "" {
		return "", 0, fmt.Errorf("%w: empty transcript", model.ErrMalformedResponse)
	}
	return body.Text, body.Duration, nil
}
