// Package playback runs synthesis-and-playback sessions. A session owns one
// outbound synthesis request and the audio stream it produces, and guarantees
// both are released exactly once by the time it ends.
package playback

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"solace/pkg/voice"
)

// Surface identifies one logical caller of speech playback. Each surface
// runs at most one active session; independent surfaces run concurrently.
type Surface string

const (
	SurfaceChat    Surface = "chat"
	SurfacePreview Surface = "preview"
	SurfaceWake    Surface = "wake"
)

// State is a session lifecycle phase.
type State string

const (
	StateIdle              State = "idle"
	StateRequesting        State = "requesting"
	StateStreaming         State = "streaming"
	StatePlaying           State = "playing"
	StateFallbackRequested State = "fallback_requested"
	StateFallbackPlaying   State = "fallback_playing"
	StateEnded             State = "ended"
)

// Outcome is how a session ended.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeSuccess   Outcome = "success"
	OutcomeFallback  Outcome = "fallback"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeError     Outcome = "error"
)

// transitions enumerates the legal state graph. Ended is reachable from
// everywhere (cancellation).
var transitions = map[State][]State{
	StateIdle:              {StateRequesting, StateEnded},
	StateRequesting:        {StateStreaming, StateFallbackRequested, StateEnded},
	StateStreaming:         {StatePlaying, StateFallbackRequested, StateEnded},
	StatePlaying:           {StateEnded},
	StateFallbackRequested: {StateFallbackPlaying, StateEnded},
	StateFallbackPlaying:   {StateEnded},
	StateEnded:             {},
}

// Session is one synthesis/playback attempt. Created by Manager.Open;
// terminal once Done() is closed.
type Session struct {
	ID        string
	Surface   Surface
	Text      string
	Speaker   *voice.Speaker
	StartedAt time.Time

	mu       sync.Mutex
	state    State
	outcome  Outcome
	err      error
	artifact string

	// ctx is cancelled on Cancel or supersede; request phases derive
	// their timeout budgets from it.
	ctx    context.Context
	cancel context.CancelFunc

	done    chan struct{}
	endOnce sync.Once

	m *Manager
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outcome returns how the session ended; OutcomeNone while active.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Err returns the terminal error for OutcomeError sessions.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed when the session reaches a terminal state with all
// resources released.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Active reports whether the session has not yet ended.
func (s *Session) Active() bool {
	return s.State() != StateEnded
}

// setState moves the session along the transition graph. Illegal moves are
// dropped with a warning rather than panicking mid-playback.
func (s *Session) setState(to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == to {
		return true
	}
	for _, allowed := range transitions[s.state] {
		if allowed == to {
			slog.Debug("Session: state change", "id", s.ID, "surface", s.Surface, "from", s.state, "to", to)
			s.state = to
			return true
		}
	}
	slog.Warn("Session: illegal state change dropped", "id", s.ID, "from", s.state, "to", to)
	return false
}

// setArtifact records the synthesized file so finish can delete it. When
// the session already ended the file is deleted on the spot; finish has
// run and will not see it.
func (s *Session) setArtifact(file string) {
	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		os.Remove(file)
		return
	}
	s.artifact = file
	s.mu.Unlock()
}

// Cancel aborts the session from any non-terminal state: the in-flight
// request is aborted, playback stops if this session started it, and the
// session ends with OutcomeCancelled. Safe to call repeatedly and after
// the session ended.
func (s *Session) Cancel() {
	if !s.Active() {
		return
	}

	s.cancel()
	s.m.stopIfOwner(s)
	s.finish(OutcomeCancelled, nil)
}

// finish moves the session to Ended exactly once, recording the outcome,
// deleting the artifact, and releasing the cancellation handle.
func (s *Session) finish(outcome Outcome, err error) {
	s.endOnce.Do(func() {
		s.mu.Lock()
		s.state = StateEnded
		s.outcome = outcome
		s.err = err
		artifact := s.artifact
		s.mu.Unlock()

		s.cancel()

		if artifact != "" {
			if rerr := os.Remove(artifact); rerr != nil && !os.IsNotExist(rerr) {
				slog.Warn("Session: failed to remove artifact", "id", s.ID, "path", artifact, "error", rerr)
			}
		}

		provider := string(s.Speaker.Provider)
		switch outcome {
		case OutcomeCancelled:
			s.m.tracker.TrackCancel(provider)
		case OutcomeFallback:
			s.m.tracker.TrackFallback(provider)
		}

		if err != nil {
			slog.Warn("Session: ended", "id", s.ID, "surface", s.Surface, "outcome", outcome, "error", err)
		} else {
			slog.Debug("Session: ended", "id", s.ID, "surface", s.Surface, "outcome", outcome)
		}

		close(s.done)
	})
}
