// Package voice holds the speaker catalog: which named voices exist, which
// languages each can render, which synthesis provider powers it, and which
// provider is preferred per language. The catalog is loaded once from a
// versioned YAML artifact and is immutable afterwards.
package voice

// Language is an opaque BCP-47-like tag ("ta", "en-US"). Compared by exact value.
type Language string

// ProviderID identifies a synthesis backend. Closed set.
type ProviderID string

const (
	// ProviderAzure is Azure Speech; strongest coverage for Indic languages.
	ProviderAzure ProviderID = "azure-speech"
	// ProviderEdgeTTS is the Edge neural voice service (general purpose).
	ProviderEdgeTTS ProviderID = "edge-tts"
	// ProviderFishAudio serves premium cloned voices.
	ProviderFishAudio ProviderID = "fish-audio"
)

// KnownProviders lists every valid ProviderID for catalog validation.
var KnownProviders = []ProviderID{ProviderAzure, ProviderEdgeTTS, ProviderFishAudio}

// Quality holds UI ranking scores in [0,1]. Never used for selection.
type Quality struct {
	Warmth  float64 `yaml:"warmth"`
	Clarity float64 `yaml:"clarity"`
}

// RequestConfig carries the provider-specific parameters for a synthesis call.
type RequestConfig struct {
	VoiceID  string `yaml:"voice"`           // provider-side voice identifier
	Rate     string `yaml:"rate,omitempty"`  // e.g. "+10%", "-5%"
	Language string `yaml:"language"`        // provider-side language code
	Style    string `yaml:"style,omitempty"` // optional speech-style/emotion tag
}

// VoiceMatch is one capability predicate evaluated against a locally available
// system voice. Empty fields match anything.
type VoiceMatch struct {
	NameContains string `yaml:"name_contains,omitempty"`
	Language     string `yaml:"language,omitempty"`
}

// FallbackConfig describes how to render this speaker on-device when the
// provider path fails: an ordered predicate list (first match wins) plus
// rate/pitch and the language used for the environment default voice.
type FallbackConfig struct {
	Match    []VoiceMatch `yaml:"match,omitempty"`
	Rate     float64      `yaml:"rate,omitempty"`  // 1.0 = normal
	Pitch    float64      `yaml:"pitch,omitempty"` // 1.0 = normal
	Language string       `yaml:"language"`
}

// Speaker is one named voice entry in the catalog.
type Speaker struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Languages   []Language     `yaml:"languages"`
	Primary     Language       `yaml:"primary_language"`
	Provider    ProviderID     `yaml:"provider"`
	Quality     Quality        `yaml:"quality"`
	Premium     bool           `yaml:"premium"`
	Request     RequestConfig  `yaml:"request"`
	Fallback    FallbackConfig `yaml:"fallback"`
}

// Supports reports whether the speaker can render the given language.
func (s *Speaker) Supports(lang Language) bool {
	for _, l := range s.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// PriorityTable declares the languages for which one provider is considered
// highest quality. Table order in the catalog is the provider preference order.
type PriorityTable struct {
	Provider  ProviderID `yaml:"provider"`
	Languages []Language `yaml:"languages"`
}

func (t *PriorityTable) contains(lang Language) bool {
	for _, l := range t.Languages {
		if l == lang {
			return true
		}
	}
	return false
}
