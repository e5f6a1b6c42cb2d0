// Package audio provides playback of synthesized speech artifacts.
package audio

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// Service defines the interface for audio playback control.
type Service interface {
	// Play starts playback of an audio file. onComplete is called when
	// playback finishes naturally (not when stopped).
	Play(filepath string, onComplete func()) error
	// Pause pauses current playback.
	Pause()
	// Resume resumes paused playback.
	Resume()
	// Stop stops current playback and releases the stream.
	Stop()
	// Shutdown stops playback and removes the residual artifact file.
	Shutdown()

	// IsPlaying returns true if audio is currently playing (not paused).
	IsPlaying() bool
	// IsBusy returns true if audio is loaded (playing or paused).
	IsBusy() bool
	// IsPaused returns true if playback is paused.
	IsPaused() bool
	// SetVolume sets playback volume (0.0 to 1.0).
	SetVolume(vol float64)
	// Volume returns the current volume level.
	Volume() float64
	// Position returns the current playback position.
	Position() time.Duration
	// Duration returns the total duration of the current audio.
	Duration() time.Duration
	// Remaining returns the remaining time of the current playback.
	Remaining() time.Duration
}

// Manager implements the Service interface using gopxl/beep.
type Manager struct {
	mu                 sync.RWMutex
	ctrl               *beep.Ctrl
	volume             float64
	isPaused           bool
	lastArtifact       string
	speakerInitialized bool
	currentSampleRate  beep.SampleRate
	streamer           *effects.Volume
	trackStreamer      beep.StreamSeekCloser
	trackFormat        beep.Format
}

// New creates a new Manager instance.
func New() *Manager {
	return &Manager{volume: 1.0}
}

// Play starts playback of an audio file.
func (m *Manager) Play(filepath string, onComplete func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Stop any current playback and close its file handle first.
	m.stopLocked()

	streamer, format, err := DecodeMedia(filepath)
	if err != nil {
		return err
	}

	if err := m.ensureSpeakerInitialized(streamer); err != nil {
		return err
	}

	resampled := beep.Resample(3, format.SampleRate, m.currentSampleRate, streamer)

	volStreamer := &effects.Volume{
		Streamer: resampled,
		Base:     2,
		Volume:   volumeToPower(m.volume),
		Silent:   m.volume <= 0.01,
	}

	m.streamer = volStreamer
	m.trackStreamer = streamer
	m.trackFormat = format

	m.ctrl = &beep.Ctrl{Streamer: volStreamer}
	m.isPaused = false

	speaker.Play(beep.Seq(m.ctrl, beep.Callback(func() {
		// Runs on the speaker goroutine; hand off so Close and the
		// completion callback never block mixing.
		go func() {
			m.mu.Lock()
			m.ctrl = nil
			m.isPaused = false
			m.mu.Unlock()
			streamer.Close()

			if onComplete != nil {
				onComplete()
			}
		}()
	})))

	// The previous artifact is safe to delete once the new one is loaded.
	if m.lastArtifact != "" && m.lastArtifact != filepath {
		oldFile := m.lastArtifact
		if err := os.Remove(oldFile); err == nil {
			slog.Debug("Audio: Cleaned up previous artifact", "path", oldFile)
		} else if !os.IsNotExist(err) {
			slog.Warn("Audio: Failed to cleanup previous artifact", "path", oldFile, "error", err)
		}
	}
	m.lastArtifact = filepath

	slog.Debug("Playing audio", "path", filepath)
	return nil
}

// Pause pauses current playback.
func (m *Manager) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctrl != nil {
		speaker.Lock()
		m.ctrl.Paused = true
		speaker.Unlock()
		m.isPaused = true
	}
}

// Resume resumes paused playback.
func (m *Manager) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctrl != nil && m.isPaused {
		speaker.Lock()
		m.ctrl.Paused = false
		speaker.Unlock()
		m.isPaused = false
	}
}

// Stop stops current playback.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.trackStreamer != nil {
		m.trackStreamer.Close()
		m.trackStreamer = nil
	}
	if m.ctrl != nil {
		speaker.Clear()
		m.ctrl = nil
		m.isPaused = false
	}
}

func (m *Manager) ensureSpeakerInitialized(streamer beep.StreamSeekCloser) error {
	const targetSampleRate = 48000
	if !m.speakerInitialized {
		err := speaker.Init(beep.SampleRate(targetSampleRate), beep.SampleRate(targetSampleRate).N(time.Second/10))
		if err != nil {
			streamer.Close()
			slog.Error("Failed to initialize speaker", "error", err)
			return err
		}
		m.speakerInitialized = true
		m.currentSampleRate = beep.SampleRate(targetSampleRate)
	}
	return nil
}

// Shutdown stops playback and deletes any residual audio artifact.
func (m *Manager) Shutdown() {
	m.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastArtifact != "" {
		if err := os.Remove(m.lastArtifact); err == nil {
			slog.Debug("Audio: Shutdown cleanup of residual artifact", "path", m.lastArtifact)
		} else if !os.IsNotExist(err) {
			slog.Warn("Audio: Failed to cleanup residual artifact on shutdown", "path", m.lastArtifact, "error", err)
		}
		m.lastArtifact = ""
	}
}

// IsPlaying returns true if audio is currently playing.
func (m *Manager) IsPlaying() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ctrl != nil && !m.isPaused
}

// IsBusy returns true if audio is loaded (playing or paused).
func (m *Manager) IsBusy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ctrl != nil
}

// IsPaused returns true if playback is paused.
func (m *Manager) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isPaused
}

// SetVolume sets playback volume (0.0 to 1.0).
func (m *Manager) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	m.volume = vol

	if m.streamer != nil {
		speaker.Lock()
		m.streamer.Volume = volumeToPower(vol)
		m.streamer.Silent = vol <= 0.01
		speaker.Unlock()
	}
}

// Volume returns the current volume level.
func (m *Manager) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// Position returns the current playback position.
func (m *Manager) Position() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.trackStreamer == nil || m.trackFormat.SampleRate == 0 {
		return 0
	}
	return m.trackFormat.SampleRate.D(m.trackStreamer.Position())
}

// Duration returns the total duration of the current audio.
func (m *Manager) Duration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.trackStreamer == nil || m.trackFormat.SampleRate == 0 {
		return 0
	}
	return m.trackFormat.SampleRate.D(m.trackStreamer.Len())
}

// Remaining returns the remaining time of the current playback.
func (m *Manager) Remaining() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.trackStreamer == nil || m.trackFormat.SampleRate == 0 {
		return 0
	}
	remainingSamples := m.trackStreamer.Len() - m.trackStreamer.Position()
	if remainingSamples < 0 {
		return 0
	}
	return m.trackFormat.SampleRate.D(remainingSamples)
}
