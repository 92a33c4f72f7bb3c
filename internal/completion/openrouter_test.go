package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brainpal/brainpal-backend/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenRouterClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenRouter(srv.URL, "default-key", 5*time.Second)
}

func TestComplete_Success(t *testing.T) {
	var gotAuth string
	var gotReq completionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model": "openai/gpt-4o-mini",
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": `{"tasks":[]}`}},
			},
			"usage": map[string]int64{"prompt_tokens": 120, "completion_tokens": 80, "total_tokens": 200},
		})
	})

	res, err := c.Complete(context.Background(), "openai/gpt-4o-mini",
		[]Message{{Role: "user", Content: "hello"}}, "")
	require.NoError(t, err)
	require.Equal(t, "Bearer default-key", gotAuth)
	require.Equal(t, "openai/gpt-4o-mini", gotReq.Model)
	require.Equal(t, `{"tasks":[]}`, res.Text)
	require.Equal(t, int64(200), res.TokensUsed)
	require.Equal(t, int64(120), res.InputTokens)
	require.Equal(t, int64(80), res.OutputTokens)
}

func TestComplete_OverrideKeyWins(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": "ok"}}},
		})
	})

	_, err := c.Complete(context.Background(), "m", []Message{{Role: "user", Content: "x"}}, "user-key")
	require.NoError(t, err)
	require.Equal(t, "Bearer user-key", gotAuth)
}

func TestComplete_NoCredential(t *testing.T) {
	c := NewOpenRouter("http://localhost:0", "", time.Second)
	_, err := c.Complete(context.Background(), "m", nil, "")
	require.ErrorIs(t, err, model.ErrNoCredential)
}

func TestComplete_ProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	})

	_, err := c.Complete(context.Background(), "m", []Message{{Role: "user", Content: "x"}}, "")
	var pe *model.ProviderError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
	require.Equal(t, "rate limited", pe.Message)
}

func TestComplete_ProviderErrorUnreadableBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream fell over"))
	})

	_, err := c.Complete(context.Background(), "m", []Message{{Role: "user", Content: "x"}}, "")
	var pe *model.ProviderError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, http.StatusBadGateway, pe.StatusCode)
	require.Empty(t, pe.Message)
}

func TestComplete_MalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := c.Complete(context.Background(), "m", []Message{{Role: "user", Content: "x"}}, "")
	require.ErrorIs(t, err, model.ErrMalformedResponse)
}
