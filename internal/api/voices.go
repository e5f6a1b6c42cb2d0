package api

import (
	"net/http"

	"solace/pkg/voice"
)

// VoicesHandler serves the speaker catalog.
type VoicesHandler struct {
	registry *voice.Registry
}

// NewVoicesHandler creates a new VoicesHandler.
func NewVoicesHandler(reg *voice.Registry) *VoicesHandler {
	return &VoicesHandler{registry: reg}
}

// SpeakerDTO is the catalog entry shape the UI consumes.
type SpeakerDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Languages   []string `json:"languages"`
	Primary     string   `json:"primary_language"`
	Provider    string   `json:"provider"`
	Warmth      float64  `json:"warmth"`
	Clarity     float64  `json:"clarity"`
	Premium     bool     `json:"premium"`
}

// HandleList handles GET /api/voices. An optional ?language= filter narrows
// the list to speakers that support that language, in catalog order.
func (h *VoicesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	langFilter := voice.Language(r.URL.Query().Get("language"))

	speakers := h.registry.Speakers()
	out := make([]SpeakerDTO, 0, len(speakers))
	for i := range speakers {
		s := &speakers[i]
		if langFilter != "" && !s.Supports(langFilter) {
			continue
		}
		langs := make([]string, len(s.Languages))
		for j, l := range s.Languages {
			langs[j] = string(l)
		}
		out = append(out, SpeakerDTO{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Languages:   langs,
			Primary:     string(s.Primary),
			Provider:    string(s.Provider),
			Warmth:      s.Quality.Warmth,
			Clarity:     s.Quality.Clarity,
			Premium:     s.Premium,
		})
	}

	writeJSON(w, map[string]any{
		"version":  h.registry.Version(),
		"speakers": out,
	})
}
