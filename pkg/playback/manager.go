package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"sync"

	"github.com/google/uuid"

	"solace/pkg/audio"
	"solace/pkg/config"
	"solace/pkg/fallback"
	"solace/pkg/tracker"
	"solace/pkg/tts"
	"solace/pkg/voice"
)

// fallbackBudget bounds the on-device synthesis attempt. Local engines are
// fast; anything slower is stuck.
const fallbackBudget = 10 * time.Second

// Providers maps a catalog provider id to its synthesis backend.
type Providers map[voice.ProviderID]tts.Provider

// Manager opens and supersedes sessions per surface. One audio stream plays
// at a time; whichever session is streaming owns it.
type Manager struct {
	providers Providers
	fallback  *fallback.Synthesizer
	audio     audio.Service
	tracker   *tracker.Tracker
	cfg       *config.SpeechConfig

	mu    sync.Mutex
	lanes map[Surface]*lane

	// playMu orders stream starts against stops. playOwner is the session
	// whose stream is on the device; only it may stop playback.
	playMu    sync.Mutex
	playOwner *Session
}

// lane serializes sessions for one surface. Its mutex orders supersede:
// session N is fully ended and released before session N+1 starts acquiring.
type lane struct {
	mu      sync.Mutex
	current *Session
}

// NewManager creates a session manager. The artifact directory is created
// eagerly so synthesis never races mkdir.
func NewManager(providers Providers, fb *fallback.Synthesizer, audioSvc audio.Service, trk *tracker.Tracker, cfg *config.SpeechConfig) (*Manager, error) {
	if err := os.MkdirAll(cfg.ArtifactDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}
	return &Manager{
		providers: providers,
		fallback:  fb,
		audio:     audioSvc,
		tracker:   trk,
		cfg:       cfg,
		lanes:     make(map[Surface]*lane),
	}, nil
}

func (m *Manager) lane(surface Surface) *lane {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lanes[surface]
	if !ok {
		l = &lane{}
		m.lanes[surface] = l
	}
	return l
}

// budgetFor returns the synthesis timeout for a surface. Preview trades
// latency for quality; everything else is conversational.
func (m *Manager) budgetFor(surface Surface) time.Duration {
	if surface == SurfacePreview {
		return time.Duration(m.cfg.PreviewTimeout)
	}
	return time.Duration(m.cfg.ReplyTimeout)
}

// Open starts a session for text on the given surface. A prior active
// session on the same surface is cancelled and fully released first. The
// returned session is already running; callers observe it via Done().
func (m *Manager) Open(text string, speaker *voice.Speaker, surface Surface) (*Session, error) {
	if text == "" {
		return nil, errors.New("empty text")
	}
	if speaker == nil {
		return nil, errors.New("no speaker")
	}

	l := m.lane(surface)
	l.mu.Lock()
	defer l.mu.Unlock()

	if prev := l.current; prev != nil && prev.Active() {
		slog.Debug("Session: superseding", "surface", surface, "prev", prev.ID)
		prev.Cancel()
		<-prev.Done()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        uuid.NewString(),
		Surface:   surface,
		Text:      text,
		Speaker:   speaker,
		StartedAt: time.Now(),
		state:     StateIdle,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		m:         m,
	}
	l.current = s

	go m.run(s)
	return s, nil
}

// Cancel aborts the active session on a surface. Returns false when
// nothing was active.
func (m *Manager) Cancel(surface Surface) bool {
	l := m.lane(surface)
	l.mu.Lock()
	s := l.current
	l.mu.Unlock()

	if s == nil || !s.Active() {
		return false
	}
	s.Cancel()
	<-s.Done()
	return true
}

// Shutdown cancels every active session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	lanes := make([]*lane, 0, len(m.lanes))
	for _, l := range m.lanes {
		lanes = append(lanes, l)
	}
	m.mu.Unlock()

	for _, l := range lanes {
		l.mu.Lock()
		if s := l.current; s != nil && s.Active() {
			s.Cancel()
			<-s.Done()
		}
		l.mu.Unlock()
	}
}

// SessionStatus is a point-in-time view of one surface's latest session.
type SessionStatus struct {
	ID        string    `json:"id"`
	Surface   Surface   `json:"surface"`
	SpeakerID string    `json:"speaker_id"`
	State     State     `json:"state"`
	Outcome   Outcome   `json:"outcome,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Status snapshots the latest session per surface, active or ended.
func (m *Manager) Status() []SessionStatus {
	m.mu.Lock()
	lanes := make([]*lane, 0, len(m.lanes))
	for _, l := range m.lanes {
		lanes = append(lanes, l)
	}
	m.mu.Unlock()

	var out []SessionStatus
	for _, l := range lanes {
		l.mu.Lock()
		s := l.current
		l.mu.Unlock()
		if s == nil {
			continue
		}
		out = append(out, SessionStatus{
			ID:        s.ID,
			Surface:   s.Surface,
			SpeakerID: s.Speaker.ID,
			State:     s.State(),
			Outcome:   s.Outcome(),
			StartedAt: s.StartedAt,
		})
	}
	return out
}

// run drives a session to a terminal state. Every exit path goes through
// finish, which releases resources exactly once.
func (m *Manager) run(s *Session) {
	artifactBase := filepath.Join(m.cfg.ArtifactDir, "speech_"+s.ID)

	file, err := m.synthesize(s, artifactBase)
	fellBack := false
	if err != nil {
		if s.ctx.Err() != nil {
			s.finish(OutcomeCancelled, nil)
			return
		}
		file, err = m.synthesizeFallback(s, artifactBase)
		if err != nil {
			if s.ctx.Err() != nil {
				s.finish(OutcomeCancelled, nil)
				return
			}
			s.finish(OutcomeError, err)
			return
		}
		fellBack = true
	}
	s.setArtifact(file)

	// A response that lands after cancel/supersede must never play; finish
	// deletes the recorded artifact.
	if s.ctx.Err() != nil {
		s.finish(OutcomeCancelled, nil)
		return
	}

	if err := m.play(s, file, fellBack); err != nil {
		if s.ctx.Err() != nil {
			s.finish(OutcomeCancelled, nil)
			return
		}
		if fellBack {
			s.finish(OutcomeError, err)
			return
		}
		// Payload arrived but would not decode or play; one fallback
		// attempt, same as a transport failure.
		slog.Warn("Session: playback failed, attempting fallback", "id", s.ID, "error", err)
		os.Remove(file)
		file, ferr := m.synthesizeFallback(s, artifactBase)
		if ferr != nil {
			s.finish(OutcomeError, ferr)
			return
		}
		s.setArtifact(file)
		if s.ctx.Err() != nil {
			s.finish(OutcomeCancelled, nil)
			return
		}
		if perr := m.play(s, file, true); perr != nil {
			s.finish(OutcomeError, perr)
		}
	}
}

// synthesize issues the provider request under the surface's timeout budget.
func (m *Manager) synthesize(s *Session, artifactBase string) (string, error) {
	if !s.setState(StateRequesting) {
		return "", errors.New("session already ended")
	}

	prov, ok := m.providers[s.Speaker.Provider]
	if !ok {
		return "", fmt.Errorf("no backend for provider %q", s.Speaker.Provider)
	}

	reqCtx, cancel := context.WithTimeout(s.ctx, m.budgetFor(s.Surface))
	defer cancel()

	format, err := prov.Synthesize(reqCtx, s.Text, s.Speaker.Request, artifactBase)
	if err != nil {
		if s.ctx.Err() == nil {
			m.tracker.TrackAPIFailure(string(s.Speaker.Provider))
			slog.Warn("Session: synthesis failed", "id", s.ID, "provider", s.Speaker.Provider, "error", err)
		}
		return "", err
	}

	file := artifactBase + "." + format
	if err := tts.VerifyAudioFile(file); err != nil {
		if s.ctx.Err() == nil {
			m.tracker.TrackAPIFailure(string(s.Speaker.Provider))
			slog.Warn("Session: rejecting synthesis artifact", "id", s.ID, "provider", s.Speaker.Provider, "error", err)
		}
		os.Remove(file)
		return "", err
	}

	m.tracker.TrackAPISuccess(string(s.Speaker.Provider))
	return file, nil
}

// synthesizeFallback renders on-device. Attempted at most once per session;
// a detached budget keeps an expired request timer from starving it.
func (m *Manager) synthesizeFallback(s *Session, artifactBase string) (string, error) {
	if !s.setState(StateFallbackRequested) {
		return "", errors.New("session already ended")
	}

	fbCtx, cancel := context.WithTimeout(s.ctx, fallbackBudget)
	defer cancel()

	format, err := m.fallback.Synthesize(fbCtx, s.Text, s.Speaker.Fallback, artifactBase+"_fb")
	if err != nil {
		return "", fmt.Errorf("fallback synthesis: %w", err)
	}
	return artifactBase + "_fb." + format, nil
}

// play hands the artifact to the audio service. The completion callback is
// the success exit; Stop on cancel suppresses it and the cancel path
// finishes the session instead.
func (m *Manager) play(s *Session, file string, fellBack bool) error {
	outcome := OutcomeSuccess
	next := StatePlaying
	if fellBack {
		outcome = OutcomeFallback
		next = StateFallbackPlaying
	} else if !s.setState(StateStreaming) {
		return errors.New("session already ended")
	}

	// One output device; the stream we are about to start replaces whatever
	// another surface is playing, so end that session rather than wedge it.
	m.preemptOwner(s)

	// Liveness check and stream start are atomic under playMu. A cancel
	// that completed while we were preempting aborts here; a cancel that
	// lands after Play starts blocks in stopIfOwner until the owner is
	// recorded, then stops the stream before Cancel returns.
	m.playMu.Lock()
	if s.ctx.Err() != nil || !s.Active() {
		m.playMu.Unlock()
		return errors.New("session already ended")
	}
	if err := m.audio.Play(file, func() {
		m.disown(s)
		s.finish(outcome, nil)
	}); err != nil {
		m.playMu.Unlock()
		return err
	}
	prev := m.playOwner
	m.playOwner = s
	m.playMu.Unlock()

	// The device replaced prev's stream inside Play; its completion
	// callback will never fire, so end it here.
	if prev != nil && prev != s {
		prev.finish(OutcomeCancelled, nil)
	}

	s.setState(next)
	return nil
}

// preemptOwner ends whichever other session owns the audio stream right
// now; the caller is about to claim the device.
func (m *Manager) preemptOwner(except *Session) {
	m.playMu.Lock()
	owner := m.playOwner
	m.playMu.Unlock()

	if owner == nil || owner == except {
		return
	}
	owner.Cancel()
	<-owner.Done()
}

// stopIfOwner stops playback when s is the session that started the
// current stream. Non-owners never touch the device; another surface may
// be mid-playback.
func (m *Manager) stopIfOwner(s *Session) {
	m.playMu.Lock()
	defer m.playMu.Unlock()

	if m.playOwner != s {
		return
	}
	m.playOwner = nil
	m.audio.Stop()
}

// disown clears the owner slot once s's stream completed on its own.
func (m *Manager) disown(s *Session) {
	m.playMu.Lock()
	if m.playOwner == s {
		m.playOwner = nil
	}
	m.playMu.Unlock()
}
