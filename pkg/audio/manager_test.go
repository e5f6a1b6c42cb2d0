package audio

import (
	"fmt"
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	m := New()
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Volume() != 1.0 {
		t.Errorf("Expected default volume 1.0, got %f", m.Volume())
	}
}

func TestManager_StateAccessors(t *testing.T) {
	m := New()

	tests := []struct {
		name   string
		action func(*Manager)
		check  func(*Manager) error
	}{
		{
			name:   "Default State",
			action: func(m *Manager) {},
			check: func(m *Manager) error {
				if m.Volume() != 1.0 {
					return errFmt("expected volume 1.0, got %f", m.Volume())
				}
				if m.IsPlaying() {
					return errFmt("expected IsPlaying false")
				}
				if m.IsBusy() {
					return errFmt("expected IsBusy false")
				}
				if m.Remaining() != 0 {
					return errFmt("expected Remaining 0")
				}
				return nil
			},
		},
		{
			name: "Volume Control",
			action: func(m *Manager) {
				m.SetVolume(0.5)
			},
			check: func(m *Manager) error {
				if m.Volume() != 0.5 {
					return errFmt("expected volume 0.5, got %f", m.Volume())
				}
				return nil
			},
		},
		{
			name: "Volume Clamping Low",
			action: func(m *Manager) {
				m.SetVolume(-0.5)
			},
			check: func(m *Manager) error {
				if m.Volume() != 0 {
					return errFmt("expected volume 0, got %f", m.Volume())
				}
				return nil
			},
		},
		{
			name: "Volume Clamping High",
			action: func(m *Manager) {
				m.SetVolume(1.5)
			},
			check: func(m *Manager) error {
				if m.Volume() != 1.0 {
					return errFmt("expected volume 1.0, got %f", m.Volume())
				}
				return nil
			},
		},
		{
			name: "Stop Without Playback",
			action: func(m *Manager) {
				m.Stop()
			},
			check: func(m *Manager) error {
				if m.IsBusy() {
					return errFmt("expected IsBusy false after Stop")
				}
				return nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.mu.Lock()
			m.volume = 1.0
			m.lastArtifact = ""
			m.mu.Unlock()

			tt.action(m)
			if err := tt.check(m); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestVolumeToPower(t *testing.T) {
	tests := []struct {
		vol  float64
		want float64
	}{
		{1.0, 0},
		{0.5, -1},
		{0.0, -10},
		{0.005, -10},
	}

	for _, tt := range tests {
		if got := volumeToPower(tt.vol); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("volumeToPower(%f) = %f, want %f", tt.vol, got, tt.want)
		}
	}
}

// Helper for concise error returning
type strErr string

func (e strErr) Error() string { return string(e) }
func errFmt(format string, a ...interface{}) error {
	return strErr(fmt.Sprintf(format, a...))
}
