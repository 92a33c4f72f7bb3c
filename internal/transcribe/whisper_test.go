package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brainpal/brainpal-backend/internal/model"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "whisper-1", r.FormValue("model"))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		require.Equal(t, "dump.webm", header.Filename)
		_, _ = w.Write([]byte(`{"text":"hello world","duration":12.5}`))
	}))
	defer srv.Close()

	c := NewWhisperClient(srv.URL, "key", 5*time.Second)
	text, seconds, err := c.Transcribe(context.Background(), strings.NewReader("audio"), "dump.webm")
	require.NoError(t, err)
	require.Equal(t, "hello world", text)
	require.InDelta(t, 12.5, seconds, 1e-9)
}

func TestTranscribe_NoKey(t *testing.T) {
	c := NewWhisperClient("http://localhost:0", "", time.Second)
	_, _, err := c.Transcribe(context.Background(), strings.NewReader("x"), "a.webm")
	require.ErrorIs(t, err, model.ErrNoCredential)
}

func TestTranscribe_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewWhisperClient(srv.URL, "key", time.Second)
	_, _, err := c.Transcribe(context.Background(), strings.NewReader("x"), "a.webm")
	var pe *model.ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, http.StatusBadRequest, pe.StatusCode)
}
