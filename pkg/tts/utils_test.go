package tts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStripSpeakerLabels(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Simple label",
			input: "Meena: Hello there",
			want:  "Hello there",
		},
		{
			name:  "Label with role",
			input: "Meena (narrator): Once upon a time",
			want:  "Once upon a time",
		},
		{
			name:  "Multiline labels",
			input: "Meena: Hello\nArjun: Hi",
			want:  "Hello\nHi",
		},
		{
			name:  "No label",
			input: "Just speech text",
			want:  "Just speech text",
		},
		{
			name:  "Multi-word prefix survives",
			input: "The answer: forty two",
			want:  "The answer: forty two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripSpeakerLabels(tt.input); got != tt.want {
				t.Errorf("StripSpeakerLabels(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestVerifyAudioFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("FileDoesNotExist", func(t *testing.T) {
		err := VerifyAudioFile(filepath.Join(tmpDir, "missing.mp3"))
		if err == nil {
			t.Error("expected error for missing file, got nil")
		}
	})

	t.Run("FileTooSmall", func(t *testing.T) {
		path := filepath.Join(tmpDir, "small.mp3")
		if err := os.WriteFile(path, make([]byte, 512), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}
		err := VerifyAudioFile(path)
		if err == nil {
			t.Error("expected error for small file, got nil")
		}
	})

	t.Run("FileValid", func(t *testing.T) {
		path := filepath.Join(tmpDir, "valid.mp3")
		if err := os.WriteFile(path, make([]byte, MinAudioSize+1), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}
		err := VerifyAudioFile(path)
		if err != nil {
			t.Errorf("expected no error for valid file, got: %v", err)
		}
	})
}
