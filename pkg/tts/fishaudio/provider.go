// Package fishaudio implements tts.Provider for the Fish Audio REST API.
package fishaudio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"solace/pkg/config"
	"solace/pkg/tracker"
	"solace/pkg/tts"
	"solace/pkg/voice"
)

const (
	apiURL = "https://api.fish.audio/v1/tts"
)

// Provider implements tts.Provider for Fish Audio.
type Provider struct {
	apiKey  string
	voiceID string // Default voice ID (reference_id)
	modelID string // Model ID (e.g. "s1")
	client  *http.Client
	tracker *tracker.Tracker
}

// NewProvider creates a new Fish Audio TTS provider.
func NewProvider(cfg config.FishAudioConfig, t *tracker.Tracker) *Provider {
	return &Provider{
		apiKey:  cfg.Key,
		voiceID: cfg.VoiceID,
		modelID: cfg.Model,
		client:  &http.Client{},
		tracker: t,
	}
}

// requestBody represents the JSON payload for Fish Audio TTS.
type requestBody struct {
	Text        string `json:"text"`
	ReferenceID string `json:"reference_id"`
	ModelID     string `json:"model,omitempty"`
	Format      string `json:"format"`
	Mp3Bitrate  int    `json:"mp3_bitrate,omitempty"`
	Latency     string `json:"latency,omitempty"`
}

// Synthesize generates speech from text using Fish Audio.
func (p *Provider) Synthesize(ctx context.Context, text string, req voice.RequestConfig, outputPath string) (string, error) {
	vid := req.VoiceID
	if vid == "" {
		vid = p.voiceID
	}
	if vid == "" {
		return "", fmt.Errorf("no voice ID configured for Fish Audio")
	}

	reqData := requestBody{
		Text:        tts.StripSpeakerLabels(text),
		ReferenceID: vid,
		ModelID:     p.modelID,
		Format:      "mp3",
		Mp3Bitrate:  128, // Standard quality
		Latency:     "normal",
	}

	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	return p.executeWithRetry(ctx, jsonData, text, outputPath)
}

func (p *Provider) executeWithRetry(ctx context.Context, jsonData []byte, text, outputPath string) (string, error) {
	maxRetries := 2 // Total 3 attempts
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(500 * time.Millisecond):
				tts.Log("FISH", fmt.Sprintf("Retrying request (attempt %d/%d)...", attempt+1, maxRetries+1), 0, lastErr)
			}
		}

		ext, retry, err := p.executeAttempt(ctx, jsonData, text, outputPath)
		if err == nil {
			if p.tracker != nil {
				p.tracker.TrackAPISuccess("fish-audio")
			}
			return ext, nil
		}

		if !retry {
			return "", err // Fatal error
		}

		lastErr = err
	}

	if p.tracker != nil {
		p.tracker.TrackAPIFailure("fish-audio")
	}

	// Wrap in FatalError if it wasn't already, to trigger fallback
	return "", tts.NewFatalError(500, fmt.Sprintf("Fish Audio failed after %d attempts: %v", maxRetries+1, lastErr))
}

func (p *Provider) executeAttempt(ctx context.Context, jsonData []byte, text, outputPath string) (ext string, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var headerLog strings.Builder
	for k, v := range req.Header {
		headerLog.WriteString(fmt.Sprintf("%s: %s\n", k, strings.Join(v, ", ")))
	}
	logContent := fmt.Sprintf("HEADERS:\n%s\nPAYLOAD:\n%s", headerLog.String(), text)

	resp, err := p.client.Do(req)
	if err != nil {
		tts.Log("FISH", logContent, 0, err)
		return "", true, err // Retry on network error
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		tts.Log("FISH", logContent, resp.StatusCode, nil)

		// Fast Fail on Auth Errors
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return "", false, tts.NewFatalError(resp.StatusCode, fmt.Sprintf("Fish Audio Auth Failed: %s", string(body)))
		}

		return "", true, fmt.Errorf("fish audio api error (status %d): %s", resp.StatusCode, string(body))
	}

	ext = "mp3"
	filename := outputPath
	if filepath.Ext(filename) != "."+ext {
		filename = filename + "." + ext
	}

	f, err := os.Create(filename)
	if err != nil {
		resp.Body.Close()
		return "", false, fmt.Errorf("failed to create output file: %w", err)
	}

	written, err := io.Copy(f, resp.Body)
	resp.Body.Close()
	f.Close() // Close to flush

	if err != nil {
		tts.Log("FISH", logContent, 200, err)
		os.Remove(filename)
		return "", true, fmt.Errorf("failed to write audio to file: %w", err)
	}

	if written == 0 {
		tts.Log("FISH", "Received empty audio file (0 bytes)", 200, nil)
		os.Remove(filename)
		return "", true, fmt.Errorf("received empty audio from fish audio")
	}

	tts.Log("FISH", logContent, 200, nil)
	return ext, false, nil
}

// Voices returns the configured voice. Fish Audio has thousands of community
// voices; the catalog pins the reference IDs we actually use.
func (p *Provider) Voices(ctx context.Context) ([]tts.Voice, error) {
	return []tts.Voice{
		{
			ID:       p.voiceID,
			Name:     "Configured Fish Audio Voice",
			Language: "en-US",
			IsNeural: true,
		},
	}, nil
}
