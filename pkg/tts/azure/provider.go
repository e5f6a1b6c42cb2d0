// Package azure implements tts.Provider for Azure Speech.
package azure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"solace/pkg/config"
	"solace/pkg/tracker"
	"solace/pkg/tts"
	"solace/pkg/voice"
)

// Provider implements tts.Provider for Azure Speech.
type Provider struct {
	key     string
	region  string
	voiceID string // configured default voice
	client  *http.Client
	url     string
	tracker *tracker.Tracker
}

// NewProvider creates a new Azure Speech TTS provider.
func NewProvider(cfg config.AzureSpeechConfig, t *tracker.Tracker) *Provider {
	url := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", cfg.Region)
	return &Provider{
		key:     cfg.Key,
		region:  cfg.Region,
		voiceID: cfg.VoiceID,
		client:  &http.Client{},
		url:     url,
		tracker: t,
	}
}

// Synthesize generates speech from text using Azure Speech.
func (p *Provider) Synthesize(ctx context.Context, text string, req voice.RequestConfig, outputPath string) (string, error) {
	vid := req.VoiceID
	if vid == "" {
		vid = p.voiceID
	}
	if vid == "" {
		return "", fmt.Errorf("no voice ID configured for Azure Speech")
	}

	ssml := buildSSML(vid, req, tts.StripSpeakerLabels(text))

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.url, bytes.NewBufferString(ssml))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Ocp-Apim-Subscription-Key", p.key)
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", "audio-24khz-160kbitrate-mono-mp3")
	httpReq.Header.Set("User-Agent", "Solace")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		tts.Log("AZURE", ssml, 0, err)
		if p.tracker != nil {
			p.tracker.TrackAPIFailure("azure-speech")
		}
		return "", fmt.Errorf("api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tts.Log("AZURE", ssml, resp.StatusCode, nil)
		body, err := io.ReadAll(resp.Body)
		bodyStr := string(body)
		if err != nil {
			bodyStr = fmt.Sprintf("[failed to read body: %v]", err)
		}
		if bodyStr == "" {
			bodyStr = "[empty body]"
		}

		if p.tracker != nil {
			p.tracker.TrackAPIFailure("azure-speech")
		}

		// Return FatalError for 4xx/5xx to trigger fallback
		errMsg := fmt.Sprintf("azure speech api error (status %d): %s", resp.StatusCode, bodyStr)
		return "", tts.NewFatalError(resp.StatusCode, errMsg)
	}

	tts.Log("AZURE", ssml, 200, nil)
	ext := "mp3"
	filename := outputPath
	if filepath.Ext(filename) != "."+ext {
		filename = filename + "." + ext
	}

	f, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		if p.tracker != nil {
			p.tracker.TrackAPIFailure("azure-speech")
		}
		return "", fmt.Errorf("failed to write audio to file: %w", err)
	}

	if p.tracker != nil {
		p.tracker.TrackAPISuccess("azure-speech")
	}

	return ext, nil
}

// Voices returns the configured voice.
func (p *Provider) Voices(ctx context.Context) ([]tts.Voice, error) {
	return []tts.Voice{
		{
			ID:       p.voiceID,
			Name:     "Configured Azure Voice",
			Language: "en-US",
			IsNeural: true,
		},
	}, nil
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

// buildSSML wraps escaped text in voice, optional express-as style, and
// optional prosody rate elements. Chat text is never trusted as markup.
func buildSSML(vid string, req voice.RequestConfig, text string) string {
	lang := req.Language
	if lang == "" {
		lang = "en-US"
	}

	body := xmlEscaper.Replace(text)
	if req.Rate != "" {
		body = fmt.Sprintf(`<prosody rate='%s'>%s</prosody>`, req.Rate, body)
	}
	if req.Style != "" {
		body = fmt.Sprintf(`<mstts:express-as style='%s'>%s</mstts:express-as>`, req.Style, body)
	}

	return fmt.Sprintf(
		`<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xmlns:mstts='https://www.w3.org/2001/mstts' xml:lang='%s'><voice name='%s'>%s</voice></speak>`,
		lang, vid, body,
	)
}
