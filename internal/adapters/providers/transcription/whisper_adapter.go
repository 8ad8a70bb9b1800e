package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/carelink/er-routing/internal/domain/providers"
	apperrors "github.com/carelink/er-routing/pkg/errors"
)

// WhisperAdapter transcribes audio through a Whisper-compatible HTTP API.
// The audio payload is treated as opaque bytes.
type WhisperAdapter struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewWhisperAdapter creates a transcription adapter
func NewWhisperAdapter(baseURL, apiKey, model string, timeout time.Duration) providers.Transcriber {
	return &WhisperAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (a *WhisperAdapter) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", apperrors.NewTranscriptionError("empty audio payload", nil)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", apperrors.NewTranscriptionError("failed to build transcription request", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", apperrors.NewTranscriptionError("failed to build transcription request", err)
	}
	if err := writer.WriteField("model", a.model); err != nil {
		return "", apperrors.NewTranscriptionError("failed to build transcription request", err)
	}
	if err := writer.Close(); err != nil {
		return "", apperrors.NewTranscriptionError("failed to build transcription request", err)
	}

	endpoint := fmt.Sprintf("%s/audio/transcriptions", a.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", apperrors.NewTranscriptionError("failed to build transcription request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewTranscriptionError("transcription request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperrors.NewTranscriptionError(fmt.Sprintf("transcription service returned status %d", resp.StatusCode), nil)
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", apperrors.NewTranscriptionError("transcription service returned invalid payload", err)
	}

	return payload.Text, nil
}
