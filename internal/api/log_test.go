package api

import (
	"testing"
)

func TestFormatLogLine(t *testing.T) {
	input := `time=2026-01-18T06:50:46.074+01:00 level=INFO msg="Session: ended" id="way-too-long-session-identifier-x" surface=chat outcome=success`
	expected := "06:50:46 Session: ended (outcome=success, surface=chat)"

	result := formatLogLine(input)
	if result != expected {
		t.Errorf("Expected '%s', got '%s'", expected, result)
	}
}

func TestFormatLogLine_Passthrough(t *testing.T) {
	input := "plain text without structure"
	if got := formatLogLine(input); got != input {
		t.Errorf("Expected passthrough, got '%s'", got)
	}
}
