package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"solace/pkg/playback"
	"solace/pkg/voice"
)

// SpeechHandler drives playback sessions over HTTP.
type SpeechHandler struct {
	sessions *playback.Manager
	registry *voice.Registry
	prefs    *voice.Prefs
}

// NewSpeechHandler creates a new SpeechHandler.
func NewSpeechHandler(sessions *playback.Manager, reg *voice.Registry, prefs *voice.Prefs) *SpeechHandler {
	return &SpeechHandler{
		sessions: sessions,
		registry: reg,
		prefs:    prefs,
	}
}

// SpeakRequest asks for text to be spoken on a surface.
type SpeakRequest struct {
	Text      string `json:"text"`
	Language  string `json:"language,omitempty"`
	SpeakerID string `json:"speaker_id,omitempty"`
	Surface   string `json:"surface,omitempty"`
}

// PreviewRequest plays a short sample with an explicit speaker.
type PreviewRequest struct {
	SpeakerID string `json:"speaker_id"`
	Text      string `json:"text,omitempty"`
}

// CancelRequest aborts the active session on a surface.
type CancelRequest struct {
	Surface string `json:"surface"`
}

// SessionResponse reports the session opened for a request.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	SpeakerID string `json:"speaker_id"`
	Surface   string `json:"surface"`
}

const defaultPreviewText = "Hello! This is how I sound."

// HandleSpeak handles POST /api/speech/speak.
func (h *SpeechHandler) HandleSpeak(w http.ResponseWriter, r *http.Request) {
	var req SpeakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	surface := playback.SurfaceChat
	switch req.Surface {
	case "", string(playback.SurfaceChat):
	case string(playback.SurfaceWake):
		surface = playback.SurfaceWake
	default:
		http.Error(w, "unknown surface", http.StatusBadRequest)
		return
	}

	pref := h.prefs.Load(r.Context())
	lang := pref.Language
	if req.Language != "" {
		lang = voice.Language(req.Language)
	}
	explicit := pref.SpeakerID
	if req.SpeakerID != "" {
		explicit = req.SpeakerID
	}

	speaker := h.registry.Select(lang, explicit)

	s, err := h.sessions.Open(req.Text, speaker, surface)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	slog.Debug("API: speak", "surface", surface, "speaker", speaker.ID, "chars", len(req.Text))
	writeJSON(w, SessionResponse{SessionID: s.ID, SpeakerID: speaker.ID, Surface: string(surface)})
}

// HandlePreview handles POST /api/speech/preview. The speaker is explicit
// here; previews exist to audition a specific voice.
func (h *SpeechHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	speaker, ok := h.registry.Speaker(req.SpeakerID)
	if !ok {
		http.Error(w, "unknown speaker", http.StatusNotFound)
		return
	}

	text := req.Text
	if text == "" {
		text = defaultPreviewText
	}

	s, err := h.sessions.Open(text, speaker, playback.SurfacePreview)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, SessionResponse{SessionID: s.ID, SpeakerID: speaker.ID, Surface: string(playback.SurfacePreview)})
}

// HandleCancel handles POST /api/speech/cancel.
func (h *SpeechHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	switch req.Surface {
	case string(playback.SurfaceChat), string(playback.SurfacePreview), string(playback.SurfaceWake):
	default:
		http.Error(w, "unknown surface", http.StatusBadRequest)
		return
	}

	cancelled := h.sessions.Cancel(playback.Surface(req.Surface))
	writeJSON(w, map[string]any{"status": "ok", "cancelled": cancelled})
}

// HandleStatus handles GET /api/speech/status. An optional surface query
// parameter narrows the report to that surface's session.
func (h *SpeechHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.Status()
	if surface := r.URL.Query().Get("surface"); surface != "" {
		var filtered []playback.SessionStatus
		for _, s := range sessions {
			if string(s.Surface) == surface {
				filtered = append(filtered, s)
			}
		}
		sessions = filtered
	}
	if sessions == nil {
		sessions = []playback.SessionStatus{}
	}
	writeJSON(w, map[string]any{"sessions": sessions})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
