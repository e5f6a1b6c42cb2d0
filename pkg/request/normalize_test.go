package request

import "testing"

func TestNormalizeProvider(t *testing.T) {
	tests := []struct {
		host     string
		expected string
	}{
		{"api.fish.audio", "fish-audio"},
		{"fish.audio", "fish-audio"},
		{"centralindia.tts.speech.microsoft.com", "azure-speech"},
		{"eastus.tts.speech.microsoft.com", "azure-speech"},
		{"api.openai.com", "asr"},
		{"api.groq.com", "asr"},
		{"other.com", "other.com"},
	}

	for _, tt := range tests {
		got := normalizeProvider(tt.host)
		if got != tt.expected {
			t.Errorf("normalizeProvider(%q) = %q; want %q", tt.host, got, tt.expected)
		}
	}
}
