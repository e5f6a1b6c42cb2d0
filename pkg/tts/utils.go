package tts

import (
	"fmt"
	"os"
	"regexp"
)

var speakerLabelRegex = regexp.MustCompile(`(?m)^[A-Za-z]+(\s*\([^)]+\))?:\s*`)

// StripSpeakerLabels removes leading speaker labels like "Asha:" or
// "Meera (narrator):" that chat replies sometimes carry.
func StripSpeakerLabels(script string) string {
	return speakerLabelRegex.ReplaceAllString(script, "")
}

// VerifyAudioFile checks that a synthesized artifact exists and is large
// enough to be a real result rather than a truncated or empty write.
func VerifyAudioFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("audio file missing: %w", err)
	}
	if info.Size() < MinAudioSize {
		return fmt.Errorf("audio file too small (%d bytes)", info.Size())
	}
	return nil
}
