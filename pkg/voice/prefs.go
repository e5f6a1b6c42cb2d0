package voice

import (
	"context"
	"log/slog"

	"solace/pkg/config"
	"solace/pkg/store"
)

// Preference is the persisted pair of user-selected language and speaker.
type Preference struct {
	Language  Language `json:"language"`
	SpeakerID string   `json:"speaker_id"`
}

// Prefs persists the user's voice selection in the state store. Storage being
// unavailable is never an error: Load degrades to documented defaults and Save
// is best-effort.
type Prefs struct {
	st          store.StateStore
	reg         *Registry
	defaultLang Language
}

// NewPrefs creates a preference store around the given state store.
func NewPrefs(st store.StateStore, reg *Registry, defaultLang Language) *Prefs {
	return &Prefs{st: st, reg: reg, defaultLang: defaultLang}
}

// Load returns the persisted preference, or the default pair
// (default language, registry-wide default speaker) when nothing is persisted,
// the store is unavailable, or the stored speaker no longer exists.
func (p *Prefs) Load(ctx context.Context) Preference {
	pref := Preference{Language: p.defaultLang, SpeakerID: p.reg.Default().ID}
	if p.st == nil {
		return pref
	}

	if v, ok := p.st.GetState(ctx, config.KeyVoiceLanguage); ok && v != "" {
		pref.Language = Language(v)
	}
	if v, ok := p.st.GetState(ctx, config.KeyVoiceSpeaker); ok && v != "" {
		if _, known := p.reg.Speaker(v); known {
			pref.SpeakerID = v
		} else {
			slog.Debug("Prefs: persisted speaker no longer in catalog, using default", "speaker", v)
		}
	}
	return pref
}

// Save persists the pair. A write failure only costs the preference for the
// next run, so it is logged and swallowed.
func (p *Prefs) Save(ctx context.Context, lang Language, speakerID string) {
	if p.st == nil {
		return
	}
	if err := p.st.SetState(ctx, config.KeyVoiceLanguage, string(lang)); err != nil {
		slog.Warn("Prefs: failed to persist language", "error", err)
	}
	if err := p.st.SetState(ctx, config.KeyVoiceSpeaker, speakerID); err != nil {
		slog.Warn("Prefs: failed to persist speaker", "error", err)
	}
}
