package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"solace/pkg/voice"
)

// PrefsHandler reads and writes the persisted voice selection.
type PrefsHandler struct {
	prefs    *voice.Prefs
	registry *voice.Registry
}

// NewPrefsHandler creates a new PrefsHandler.
func NewPrefsHandler(prefs *voice.Prefs, reg *voice.Registry) *PrefsHandler {
	return &PrefsHandler{prefs: prefs, registry: reg}
}

// PrefsRequest sets the user's language and speaker choice.
type PrefsRequest struct {
	Language  string `json:"language"`
	SpeakerID string `json:"speaker_id"`
}

// HandleGet handles GET /api/preferences.
func (h *PrefsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	pref := h.prefs.Load(r.Context())
	writeJSON(w, pref)
}

// HandleSet handles POST /api/preferences. The speaker must exist and
// support the chosen language; a persistence failure is not surfaced,
// matching the store's best-effort contract.
func (h *PrefsHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	var req PrefsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Language == "" || req.SpeakerID == "" {
		http.Error(w, "language and speaker_id are required", http.StatusBadRequest)
		return
	}

	speaker, ok := h.registry.Speaker(req.SpeakerID)
	if !ok {
		http.Error(w, "unknown speaker", http.StatusNotFound)
		return
	}
	if !speaker.Supports(voice.Language(req.Language)) {
		http.Error(w, "speaker does not support language", http.StatusBadRequest)
		return
	}

	h.prefs.Save(r.Context(), voice.Language(req.Language), req.SpeakerID)
	slog.Debug("API: preference saved", "language", req.Language, "speaker", req.SpeakerID)

	writeJSON(w, map[string]string{"status": "ok"})
}
