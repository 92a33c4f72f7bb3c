// Package completion is the gateway to the chat-completion provider. It does
// one network call per request: no retries, no token accounting, no parsing
// of the completion text. Callers own all of that.
package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/brainpal/brainpal-backend/internal/model"
)

// Message is one chat turn sent to the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Result is a successful completion.
type Result struct {
	Text         string
	TokensUsed   int64
	InputTokens  int64
	OutputTokens int64
	// Model echoes what the provider actually served, which can differ
	// from what was requested.
	Model string
}

// Gateway issues completion requests.
type Gateway interface {
	Complete(ctx context.Context, providerModel string, messages []Message, overrideKey string) (*Result, error)
}

// OpenRouterClient talks to the OpenRouter chat-completions API.
type OpenRouterClient struct {
	http   *resty.Client
	apiKey string
}

// NewOpenRouter builds a client with the process-wide default key. An empty
// key is allowed; requests then require a caller-supplied override key.
func NewOpenRouter(baseURL, apiKey string, timeout time.Duration) *OpenRouterClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &OpenRouterClient{http: client, apiKey: apiKey}
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Gateway. Credential resolution order: the caller's
// override key, then the process default; neither present fails with
// NoCredential before any network traffic.
func (c *OpenRouterClient) Complete(ctx context.Context, providerModel string, messages []Message, overrideKey string) (*Result, error) {
	key := overrideKey
	if key == "" {
		key = c.apiKey
	}
	if key == "" {
		return nil, model.ErrNoCredential
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+key).
		SetBody(completionRequest{Model: providerModel, Messages: messages}).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}

	if resp.IsError() {
		// Message extraction is best-effort; an unreadable body still
		// yields a typed error.
		var eb errorResponse
		_ = json.Unmarshal(resp.Body(), &eb)
		return nil, &model.ProviderError{StatusCode: resp.StatusCode(), Message: eb.Error.Message}
	}

	var body completionResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}
	if len(body.Choices) == 0 || body.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%w: no completion content", model.ErrMalformedResponse)
	}

	echo := body.Model
	if echo == "" {
		echo = providerModel
	}
	return &Result{
		Text:         body.Choices[0].Message.Content,
		TokensUsed:   body.Usage.TotalTokens,
		InputTokens:  body.Usage.PromptTokens,
		OutputTokens: body.Usage.CompletionTokens,
		Model:        echo,
	}, nil
}

var _ Gateway = (*OpenRouterClient)(nil)
