// Package asr transcribes captured speech through a whisper-style REST
// backend.
package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"solace/pkg/config"
	"solace/pkg/request"
	"solace/pkg/voice"
)

// PermissionError signals the transcription backend rejected our
// credentials. Distinct from transport faults so callers can show
// permission-specific guidance instead of a retry prompt.
type PermissionError struct {
	StatusCode int
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("transcription permission denied (status %d)", e.StatusCode)
}

// Client issues transcription requests.
type Client struct {
	http *request.Client
	cfg  config.ASRConfig
}

// NewClient creates a transcription client.
func NewClient(cfg config.ASRConfig, rc *request.Client) *Client {
	return &Client{http: rc, cfg: cfg}
}

// Configured reports whether a backend endpoint and key are set.
func (c *Client) Configured() bool {
	return c.cfg.URL != "" && c.cfg.Key != ""
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads an audio payload and returns the recognized text.
// lang is a hint; empty lets the backend detect.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string, lang voice.Language) (string, error) {
	if !c.Configured() {
		return "", errors.New("transcription backend not configured")
	}
	if len(audio) == 0 {
		return "", errors.New("empty audio payload")
	}

	body, contentType, err := c.buildForm(audio, filename, lang)
	if err != nil {
		return "", err
	}

	timeout := time.Duration(c.cfg.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	headers := map[string]string{
		"Authorization": "Bearer " + c.cfg.Key,
		"Content-Type":  contentType,
	}

	resp, err := c.http.PostWithHeaders(reqCtx, c.cfg.URL, body, headers)
	if err != nil {
		var se *request.StatusError
		if errors.As(err, &se) && (se.Code == 401 || se.Code == 403) {
			return "", &PermissionError{StatusCode: se.Code}
		}
		return "", fmt.Errorf("transcription request failed: %w", err)
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return "", fmt.Errorf("malformed transcription response: %w", err)
	}
	return parsed.Text, nil
}

// buildForm assembles the multipart upload the whisper API family expects.
func (c *Client) buildForm(audio []byte, filename string, lang voice.Language) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if filename == "" {
		filename = "capture.wav"
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}

	if err := w.WriteField("model", c.cfg.Model); err != nil {
		return nil, "", err
	}
	if lang != "" {
		// The API wants a bare ISO-639-1 code, not a full locale.
		code := string(lang)
		if len(code) > 2 {
			code = code[:2]
		}
		if err := w.WriteField("language", code); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
