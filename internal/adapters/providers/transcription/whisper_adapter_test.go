package transcription

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/carelink/er-routing/pkg/errors"
)

func TestTranscribe_ReturnsText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"chest pain and dizziness"}`))
	}))
	defer server.Close()

	adapter := NewWhisperAdapter(server.URL, "test-key", "whisper-1", 5*time.Second)
	text, err := adapter.Transcribe(context.Background(), []byte{0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, "chest pain and dizziness", text)
}

func TestTranscribe_EmptyAudioRejected(t *testing.T) {
	adapter := NewWhisperAdapter("http://localhost:0", "key", "whisper-1", time.Second)
	_, err := adapter.Transcribe(context.Background(), nil)
	assert.True(t, apperrors.IsTranscription(err))
}

func TestTranscribe_ServerErrorIsTranscriptionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	adapter := NewWhisperAdapter(server.URL, "key", "whisper-1", 5*time.Second)
	_, err := adapter.Transcribe(context.Background(), []byte{0x01})
	assert.True(t, apperrors.IsTranscription(err))
}
