// Package fallback renders speech on-device when the provider path fails.
// It matches a speaker's ordered capability predicates against whatever
// synthesis voices the local environment offers and needs zero network access.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"solace/pkg/voice"
)

// ErrUnavailable indicates the environment has no usable voice for the
// requested configuration. Terminal for the session; never retried.
var ErrUnavailable = errors.New("no usable on-device voice")

// SystemVoice describes one locally available synthesis voice.
type SystemVoice struct {
	ID       string
	Name     string
	Language string
}

// Engine is an on-device synthesis backend. Implementations must not touch
// the network.
type Engine interface {
	// Voices enumerates the environment's voice inventory. May be empty.
	Voices(ctx context.Context) ([]SystemVoice, error)

	// Speak renders text with the given voice, rate and pitch (1.0 = normal)
	// into outputPath. Returns the audio format ("wav").
	Speak(ctx context.Context, text string, v SystemVoice, rate, pitch float64, outputPath string) (string, error)
}

// Synthesizer resolves a speaker's fallback configuration against an Engine.
type Synthesizer struct {
	engine Engine
}

// New creates a Synthesizer around the given engine.
func New(engine Engine) *Synthesizer {
	return &Synthesizer{engine: engine}
}

// Synthesize picks a local voice for cfg and renders text into outputPath.
// Predicates are evaluated in declaration order, first match wins; when none
// match, the environment default voice for cfg.Language is used. Returns
// ErrUnavailable when the inventory is empty or unreadable.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, cfg voice.FallbackConfig, outputPath string) (string, error) {
	voices, err := s.engine.Voices(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(voices) == 0 {
		return "", ErrUnavailable
	}

	v := pick(voices, cfg)

	rate := cfg.Rate
	if rate == 0 {
		rate = 1.0
	}
	pitch := cfg.Pitch
	if pitch == 0 {
		pitch = 1.0
	}

	return s.engine.Speak(ctx, text, v, rate, pitch, outputPath)
}

// pick resolves the ordered predicate list against the inventory.
func pick(voices []SystemVoice, cfg voice.FallbackConfig) SystemVoice {
	for _, m := range cfg.Match {
		for _, v := range voices {
			if matches(v, m) {
				return v
			}
		}
	}

	// Environment default for the mapped language.
	for _, v := range voices {
		if langMatch(v.Language, cfg.Language) {
			return v
		}
	}
	return voices[0]
}

func matches(v SystemVoice, m voice.VoiceMatch) bool {
	if m.NameContains != "" && !strings.Contains(strings.ToLower(v.Name), strings.ToLower(m.NameContains)) {
		return false
	}
	if m.Language != "" && !langMatch(v.Language, m.Language) {
		return false
	}
	return true
}

// langMatch compares language tags loosely: "ta" matches "ta-IN" and vice versa.
func langMatch(have, want string) bool {
	if want == "" {
		return true
	}
	have = strings.ToLower(have)
	want = strings.ToLower(want)
	return have == want || strings.HasPrefix(have, want+"-") || strings.HasPrefix(want, have+"-")
}
