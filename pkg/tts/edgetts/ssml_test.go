package edgetts

import (
	"strings"
	"testing"

	"solace/pkg/voice"
)

func TestBuildSSML(t *testing.T) {
	tests := []struct {
		name     string
		req      voice.RequestConfig
		text     string
		expected []string // Substrings that must be present
	}{
		{
			name:     "Normal text",
			req:      voice.RequestConfig{VoiceID: "en-US-AvaMultilingualNeural", Language: "en-US"},
			text:     "Hello world",
			expected: []string{"Hello world", "en-US-AvaMultilingualNeural", "xml:lang='en-US'"},
		},
		{
			name:     "Text with ampersand",
			req:      voice.RequestConfig{VoiceID: "en-US-AvaMultilingualNeural"},
			text:     "Ben & Jerry's",
			expected: []string{"Ben &amp; Jerry&apos;s"},
		},
		{
			name:     "Text with tags",
			req:      voice.RequestConfig{VoiceID: "en-US-AvaMultilingualNeural"},
			text:     "<speak>Hello</speak>",
			expected: []string{"&lt;speak&gt;Hello&lt;/speak&gt;"},
		},
		{
			name:     "Text with quotes",
			req:      voice.RequestConfig{VoiceID: "en-US-AvaMultilingualNeural"},
			text:     `She said "Hello"`,
			expected: []string{`She said &quot;Hello&quot;`},
		},
		{
			name:     "Rate applied as prosody",
			req:      voice.RequestConfig{VoiceID: "ta-IN-PallaviNeural", Language: "ta-IN", Rate: "-5%"},
			text:     "Vanakkam",
			expected: []string{"<prosody rate='-5%'>Vanakkam</prosody>", "xml:lang='ta-IN'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSSML(tt.req, tt.text)
			for _, exp := range tt.expected {
				if !strings.Contains(got, exp) {
					t.Errorf("buildSSML() = %v, expected to contain %v", got, exp)
				}
			}
		})
	}
}
