package fallback

import (
	"context"
	"errors"
	"testing"

	"solace/pkg/voice"
)

type fakeEngine struct {
	voices    []SystemVoice
	voicesErr error

	spokeWith SystemVoice
	spokeText string
	rate      float64
	pitch     float64
	speakErr  error
}

func (f *fakeEngine) Voices(ctx context.Context) ([]SystemVoice, error) {
	return f.voices, f.voicesErr
}

func (f *fakeEngine) Speak(ctx context.Context, text string, v SystemVoice, rate, pitch float64, outputPath string) (string, error) {
	f.spokeWith = v
	f.spokeText = text
	f.rate = rate
	f.pitch = pitch
	if f.speakErr != nil {
		return "", f.speakErr
	}
	return "wav", nil
}

var inventory = []SystemVoice{
	{ID: "en1", Name: "English (America)", Language: "en-US"},
	{ID: "ta1", Name: "Tamil", Language: "ta"},
	{ID: "hi1", Name: "Hindi", Language: "hi-IN"},
}

func TestSynthesizePickOrder(t *testing.T) {
	tests := []struct {
		name   string
		cfg    voice.FallbackConfig
		wantID string
	}{
		{
			name: "first predicate wins",
			cfg: voice.FallbackConfig{
				Match: []voice.VoiceMatch{
					{NameContains: "tamil"},
					{NameContains: "english"},
				},
			},
			wantID: "ta1",
		},
		{
			name: "falls through unmatched predicates",
			cfg: voice.FallbackConfig{
				Match: []voice.VoiceMatch{
					{NameContains: "norwegian"},
					{Language: "hi-IN"},
				},
			},
			wantID: "hi1",
		},
		{
			name: "predicate needs both fields",
			cfg: voice.FallbackConfig{
				Match: []voice.VoiceMatch{
					{NameContains: "english", Language: "ta"},
				},
				Language: "hi",
			},
			wantID: "hi1",
		},
		{
			name:   "language default when no predicates",
			cfg:    voice.FallbackConfig{Language: "ta-IN"},
			wantID: "ta1",
		},
		{
			name:   "first voice when nothing matches",
			cfg:    voice.FallbackConfig{Language: "fr-FR"},
			wantID: "en1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &fakeEngine{voices: inventory}
			s := New(eng)
			format, err := s.Synthesize(context.Background(), "hello", tt.cfg, "/tmp/out")
			if err != nil {
				t.Fatalf("Synthesize() error = %v", err)
			}
			if format != "wav" {
				t.Errorf("format = %q, want wav", format)
			}
			if eng.spokeWith.ID != tt.wantID {
				t.Errorf("picked voice = %q, want %q", eng.spokeWith.ID, tt.wantID)
			}
		})
	}
}

func TestSynthesizeRatePitchDefaults(t *testing.T) {
	eng := &fakeEngine{voices: inventory}
	s := New(eng)

	if _, err := s.Synthesize(context.Background(), "x", voice.FallbackConfig{}, "/tmp/out"); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if eng.rate != 1.0 || eng.pitch != 1.0 {
		t.Errorf("rate/pitch = %v/%v, want 1.0/1.0", eng.rate, eng.pitch)
	}

	cfg := voice.FallbackConfig{Rate: 0.8, Pitch: 1.2}
	if _, err := s.Synthesize(context.Background(), "x", cfg, "/tmp/out"); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if eng.rate != 0.8 || eng.pitch != 1.2 {
		t.Errorf("rate/pitch = %v/%v, want 0.8/1.2", eng.rate, eng.pitch)
	}
}

func TestSynthesizeUnavailable(t *testing.T) {
	tests := []struct {
		name string
		eng  *fakeEngine
	}{
		{"empty inventory", &fakeEngine{}},
		{"enumeration error", &fakeEngine{voicesErr: errors.New("no display")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.eng)
			_, err := s.Synthesize(context.Background(), "x", voice.FallbackConfig{}, "/tmp/out")
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("error = %v, want ErrUnavailable", err)
			}
		})
	}
}

func TestLangMatch(t *testing.T) {
	tests := []struct {
		have, want string
		ok         bool
	}{
		{"ta", "ta-IN", true},
		{"ta-IN", "ta", true},
		{"en-US", "en-US", true},
		{"en-GB", "en-US", false},
		{"hi-IN", "", true},
		{"ta", "tam", false},
	}

	for _, tt := range tests {
		if got := langMatch(tt.have, tt.want); got != tt.ok {
			t.Errorf("langMatch(%q, %q) = %v, want %v", tt.have, tt.want, got, tt.ok)
		}
	}
}

func TestParseVoiceList(t *testing.T) {
	out := []byte(`Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 5  ta              --/M      Tamil              dra/ta
 5  en-US           --/M      English(America)   gmw/en-US
malformed line`)

	voices := parseVoiceList(out)
	if len(voices) != 3 {
		t.Fatalf("got %d voices, want 3", len(voices))
	}
	if voices[1].ID != "ta" || voices[1].Name != "Tamil" {
		t.Errorf("voices[1] = %+v", voices[1])
	}
}
