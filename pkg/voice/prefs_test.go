package voice

import (
	"context"
	"errors"
	"testing"

	"solace/pkg/config"
)

type memState struct {
	m      map[string]string
	setErr error
}

func newMemState() *memState { return &memState{m: make(map[string]string)} }

func (s *memState) GetState(ctx context.Context, key string) (string, bool) {
	v, ok := s.m[key]
	return v, ok
}

func (s *memState) SetState(ctx context.Context, key, val string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.m[key] = val
	return nil
}

func (s *memState) DeleteState(ctx context.Context, key string) error {
	delete(s.m, key)
	return nil
}

func TestPrefsDefaults(t *testing.T) {
	r := selectorRegistry(t)
	p := NewPrefs(newMemState(), r, "en-US")

	pref := p.Load(context.Background())
	if pref.Language != "en-US" {
		t.Errorf("Language = %q, want en-US", pref.Language)
	}
	if pref.SpeakerID != "ava" {
		t.Errorf("SpeakerID = %q, want catalog default ava", pref.SpeakerID)
	}
}

func TestPrefsRoundTrip(t *testing.T) {
	r := selectorRegistry(t)
	st := newMemState()
	p := NewPrefs(st, r, "en-US")
	ctx := context.Background()

	p.Save(ctx, "ta-IN", "meena")

	pref := p.Load(ctx)
	if pref.Language != "ta-IN" || pref.SpeakerID != "meena" {
		t.Errorf("Load = %+v, want ta-IN/meena", pref)
	}

	if st.m[config.KeyVoiceLanguage] != "ta-IN" {
		t.Errorf("persisted language = %q", st.m[config.KeyVoiceLanguage])
	}
	if st.m[config.KeyVoiceSpeaker] != "meena" {
		t.Errorf("persisted speaker = %q", st.m[config.KeyVoiceSpeaker])
	}
}

func TestPrefsStaleSpeakerFallsBack(t *testing.T) {
	r := selectorRegistry(t)
	st := newMemState()
	st.m[config.KeyVoiceLanguage] = "ta-IN"
	st.m[config.KeyVoiceSpeaker] = "retired-voice"

	pref := NewPrefs(st, r, "en-US").Load(context.Background())
	if pref.Language != "ta-IN" {
		t.Errorf("Language = %q, want ta-IN", pref.Language)
	}
	if pref.SpeakerID != "ava" {
		t.Errorf("SpeakerID = %q, want default for stale id", pref.SpeakerID)
	}
}

func TestPrefsSaveFailureSwallowed(t *testing.T) {
	r := selectorRegistry(t)
	st := newMemState()
	st.setErr = errors.New("disk full")

	p := NewPrefs(st, r, "en-US")
	p.Save(context.Background(), "ta-IN", "meena") // must not panic

	pref := p.Load(context.Background())
	if pref.SpeakerID != "ava" {
		t.Errorf("SpeakerID = %q, want default after failed save", pref.SpeakerID)
	}
}

func TestPrefsNilStore(t *testing.T) {
	r := selectorRegistry(t)
	p := NewPrefs(nil, r, "en-US")
	p.Save(context.Background(), "ta-IN", "meena")

	pref := p.Load(context.Background())
	if pref.Language != "en-US" || pref.SpeakerID != "ava" {
		t.Errorf("Load = %+v, want defaults with nil store", pref)
	}
}
