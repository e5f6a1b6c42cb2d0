package voice

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validCatalog = `
version: 1
speakers:
  - id: meena
    name: Meena
    languages: [ta-IN, en-IN]
    primary_language: ta-IN
    provider: azure-speech
    quality: {warmth: 0.9, clarity: 0.8}
    request: {voice: ta-IN-PallaviNeural, language: ta-IN, rate: "-5%"}
    fallback:
      language: ta
      match:
        - language: ta
  - id: ava
    name: Ava
    languages: [en-US, en-IN]
    primary_language: en-US
    provider: edge-tts
    quality: {warmth: 0.6, clarity: 0.9}
    request: {voice: en-US-AvaMultilingualNeural, language: en-US}
    fallback: {language: en}
priority:
  - provider: azure-speech
    languages: [ta-IN, en-IN]
`

func TestParseRegistry(t *testing.T) {
	r, err := ParseRegistry([]byte(validCatalog))
	if err != nil {
		t.Fatalf("ParseRegistry failed: %v", err)
	}

	if r.Version() != 1 {
		t.Errorf("Version = %d, want 1", r.Version())
	}
	if len(r.Speakers()) != 2 {
		t.Fatalf("Speakers = %d, want 2", len(r.Speakers()))
	}

	s, ok := r.Speaker("meena")
	if !ok {
		t.Fatal("Speaker(meena) not found")
	}
	if s.Provider != ProviderAzure {
		t.Errorf("Provider = %q, want azure-speech", s.Provider)
	}
	if s.Request.Rate != "-5%" {
		t.Errorf("Request.Rate = %q, want -5%%", s.Request.Rate)
	}
	if len(s.Fallback.Match) != 1 || s.Fallback.Match[0].Language != "ta" {
		t.Errorf("Fallback.Match = %+v, want one ta predicate", s.Fallback.Match)
	}

	if d := r.Default(); d.ID != "meena" {
		t.Errorf("Default() = %q, want first speaker meena", d.ID)
	}
}

func TestParseRegistryErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "wrong version",
			yaml:    "version: 2\nspeakers:\n  - id: x\n",
			wantErr: "unsupported voice catalog version",
		},
		{
			name:    "no speakers",
			yaml:    "version: 1\nspeakers: []\n",
			wantErr: "no speakers",
		},
		{
			name: "unknown provider",
			yaml: `
version: 1
speakers:
  - id: x
    languages: [en-US]
    primary_language: en-US
    provider: acme-voices
    request: {voice: v}
`,
			wantErr: "unknown provider",
		},
		{
			name: "primary not in languages",
			yaml: `
version: 1
speakers:
  - id: x
    languages: [en-US]
    primary_language: ta-IN
    provider: edge-tts
    request: {voice: v}
`,
			wantErr: "primary_language",
		},
		{
			name: "missing request voice",
			yaml: `
version: 1
speakers:
  - id: x
    languages: [en-US]
    primary_language: en-US
    provider: edge-tts
`,
			wantErr: "request.voice",
		},
		{
			name: "quality out of range",
			yaml: `
version: 1
speakers:
  - id: x
    languages: [en-US]
    primary_language: en-US
    provider: edge-tts
    quality: {warmth: 1.5}
    request: {voice: v}
`,
			wantErr: "quality",
		},
		{
			name: "duplicate speaker id",
			yaml: `
version: 1
speakers:
  - id: x
    languages: [en-US]
    primary_language: en-US
    provider: edge-tts
    request: {voice: v}
  - id: x
    languages: [en-US]
    primary_language: en-US
    provider: edge-tts
    request: {voice: v}
`,
			wantErr: "duplicate speaker id",
		},
		{
			name: "priority table for unknown provider",
			yaml: `
version: 1
speakers:
  - id: x
    languages: [en-US]
    primary_language: en-US
    provider: edge-tts
    request: {voice: v}
priority:
  - provider: acme-voices
    languages: [en-US]
`,
			wantErr: "priority table",
		},
		{
			name: "duplicate priority table",
			yaml: `
version: 1
speakers:
  - id: x
    languages: [en-US]
    primary_language: en-US
    provider: edge-tts
    request: {voice: v}
priority:
  - provider: edge-tts
    languages: [en-US]
  - provider: edge-tts
    languages: [en-GB]
`,
			wantErr: "duplicate priority table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegistry([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voices.yaml")
	if err := os.WriteFile(path, []byte(validCatalog), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}
	if len(r.Speakers()) != 2 {
		t.Errorf("Speakers = %d, want 2", len(r.Speakers()))
	}

	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing catalog file")
	}
}

func TestSpeakersFor(t *testing.T) {
	r, err := ParseRegistry([]byte(validCatalog))
	if err != nil {
		t.Fatal(err)
	}

	enIN := r.SpeakersFor("en-IN")
	if len(enIN) != 2 {
		t.Fatalf("SpeakersFor(en-IN) = %d speakers, want 2", len(enIN))
	}
	if enIN[0].ID != "meena" {
		t.Errorf("declaration order broken, got %q first", enIN[0].ID)
	}

	if got := r.SpeakersFor("fr-FR"); len(got) != 0 {
		t.Errorf("SpeakersFor(fr-FR) = %d, want 0", len(got))
	}
}

func TestIsPriority(t *testing.T) {
	r, err := ParseRegistry([]byte(validCatalog))
	if err != nil {
		t.Fatal(err)
	}

	if !r.IsPriority(ProviderAzure, "ta-IN") {
		t.Error("azure-speech should be priority for ta-IN")
	}
	if r.IsPriority(ProviderEdgeTTS, "ta-IN") {
		t.Error("edge-tts should not be priority for ta-IN")
	}
	if r.IsPriority(ProviderAzure, "en-US") {
		t.Error("azure-speech should not be priority for en-US")
	}
}
