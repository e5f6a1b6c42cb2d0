package fallback

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// EspeakEngine drives an espeak-ng compatible binary. A fresh process per
// request keeps the engine stateless and trivially cancellable via the
// command context.
type EspeakEngine struct {
	binary string
}

// NewEspeakEngine creates an engine around the given binary ("espeak-ng").
func NewEspeakEngine(binary string) *EspeakEngine {
	if binary == "" {
		binary = "espeak-ng"
	}
	return &EspeakEngine{binary: binary}
}

// Available reports whether the binary can be found on PATH.
func (e *EspeakEngine) Available() bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}

// Voices enumerates installed voices via `espeak-ng --voices`.
func (e *EspeakEngine) Voices(ctx context.Context) ([]SystemVoice, error) {
	out, err := exec.CommandContext(ctx, e.binary, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("voice enumeration failed: %w", err)
	}
	return parseVoiceList(out), nil
}

// parseVoiceList parses the columnar output of `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName        File          Other Languages
//	 5  en-US           M  english-us             gmw/en-US
func parseVoiceList(out []byte) []SystemVoice {
	var voices []SystemVoice
	lines := strings.Split(string(out), "\n")
	for i, line := range lines {
		if i == 0 { // header
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, SystemVoice{
			ID:       fields[1], // language tag doubles as the -v argument
			Name:     fields[3],
			Language: fields[1],
		})
	}
	return voices
}

// Speak renders text to a wav file. rate and pitch multipliers map onto
// espeak's words-per-minute (-s, default 175) and pitch (-p, 0..99, default 50).
func (e *EspeakEngine) Speak(ctx context.Context, text string, v SystemVoice, rate, pitch float64, outputPath string) (string, error) {
	fullPath := outputPath
	if !strings.HasSuffix(strings.ToLower(fullPath), ".wav") {
		fullPath += ".wav"
	}

	wpm := int(175 * rate)
	if wpm < 80 {
		wpm = 80
	}
	p := int(50 * pitch)
	if p < 0 {
		p = 0
	} else if p > 99 {
		p = 99
	}

	args := []string{
		"-v", v.ID,
		"-s", fmt.Sprintf("%d", wpm),
		"-p", fmt.Sprintf("%d", p),
		"-w", fullPath,
		"--stdin",
	}

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Stdin = bytes.NewBufferString(text + "\n")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("synthesis failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	return "wav", nil
}
