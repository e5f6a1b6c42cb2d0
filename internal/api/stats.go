package api

import (
	"net/http"

	"solace/pkg/playback"
	"solace/pkg/tracker"
)

// StatsHandler reports per-provider usage counters and session activity.
type StatsHandler struct {
	tracker  *tracker.Tracker
	sessions *playback.Manager
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(t *tracker.Tracker, sessions *playback.Manager) *StatsHandler {
	return &StatsHandler{tracker: t, sessions: sessions}
}

// ProviderStatsDTO is one provider's counters.
type ProviderStatsDTO struct {
	APISuccess  int64 `json:"api_success"`
	APIFailures int64 `json:"api_errors"`
	Fallbacks   int64 `json:"fallbacks"`
	Cancels     int64 `json:"cancels"`
}

// StatsResponse is the full stats payload.
type StatsResponse struct {
	Providers map[string]ProviderStatsDTO `json:"providers"`
	Sessions  []playback.SessionStatus    `json:"sessions"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()

	resp := StatsResponse{
		Providers: make(map[string]ProviderStatsDTO),
		Sessions:  h.sessions.Status(),
	}
	if resp.Sessions == nil {
		resp.Sessions = []playback.SessionStatus{}
	}

	for provider, stats := range snapshot {
		resp.Providers[provider] = ProviderStatsDTO{
			APISuccess:  stats.APISuccess,
			APIFailures: stats.APIFailures,
			Fallbacks:   stats.Fallbacks,
			Cancels:     stats.Cancels,
		}
	}

	writeJSON(w, resp)
}
