// Package transcriber sends recorded audio to the remote speech-to-text
// backend over HTTP multipart upload, and exposes a gRPC health probe for
// diagnostics.
package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/speakanywhere/speakanywhere/internal/model"
	"github.com/speakanywhere/speakanywhere/internal/wav"
)

// Client transcribes WAV-encoded audio by POSTing it as multipart form data
// to a configured HTTP endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	logger     *slog.Logger
}

// New constructs a Client bound to endpoint with the given call timeout
// (the default per the daemon's configuration is 30s).
func New(endpoint string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		logger:     logger,
	}
}

// transcribeResponse is the backend's JSON response shape.
type transcribeResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Transcribe encodes samples as a WAV file, uploads it, and decodes the
// backend's JSON response. ProcessingDurationSeconds measures the full
// round trip including WAV encoding, matching what an operator cares about
// (wall-clock cost of this turn), not just server-side processing time.
func (c *Client) Transcribe(ctx context.Context, samples []int16, sampleRate int) (model.TranscriptResult, error) {
	started := time.Now()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return model.TranscriptResult{}, fmt.Errorf("create multipart field: %w", err)
	}
	if _, err := part.Write(wav.Encode(samples, sampleRate)); err != nil {
		return model.TranscriptResult{}, fmt.Errorf("write audio payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return model.TranscriptResult{}, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return model.TranscriptResult{}, fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.TranscriptResult{}, fmt.Errorf("call transcription backend: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return model.TranscriptResult{}, fmt.Errorf("read transcription response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return model.TranscriptResult{}, fmt.Errorf("transcription backend returned %s: %s", resp.Status, payload)
	}

	var decoded transcribeResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return model.TranscriptResult{}, fmt.Errorf("decode transcription response: %w", err)
	}
	if decoded.Error != "" {
		return model.TranscriptResult{}, fmt.Errorf("transcription backend error: %s", decoded.Error)
	}

	return model.TranscriptResult{
		Text:                      decoded.Text,
		ProcessingDurationSeconds: time.Since(started).Seconds(),
	}, nil
}
