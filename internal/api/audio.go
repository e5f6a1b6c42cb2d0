package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"solace/pkg/audio"
	"solace/pkg/config"
	"solace/pkg/store"
)

// AudioHandler handles audio control endpoints.
type AudioHandler struct {
	audio audio.Service
	store store.StateStore
}

// NewAudioHandler creates a new AudioHandler.
func NewAudioHandler(audioMgr audio.Service, st store.StateStore) *AudioHandler {
	return &AudioHandler{
		audio: audioMgr,
		store: st,
	}
}

// AudioControlRequest represents an audio control command.
type AudioControlRequest struct {
	Action string `json:"action"` // "pause", "resume", "stop"
}

// AudioVolumeRequest represents a volume change request.
type AudioVolumeRequest struct {
	Volume float64 `json:"volume"`
}

// AudioStatusResponse represents the audio status.
type AudioStatusResponse struct {
	IsPlaying   bool    `json:"is_playing"`
	IsPaused    bool    `json:"is_paused"`
	Volume      float64 `json:"volume"`
	PositionMs  int64   `json:"position_ms"`
	DurationMs  int64   `json:"duration_ms"`
	RemainingMs int64   `json:"remaining_ms"`
}

// HandleControl handles POST /api/audio/control
func (h *AudioHandler) HandleControl(w http.ResponseWriter, r *http.Request) {
	var req AudioControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var state string
	switch req.Action {
	case "pause":
		h.audio.Pause()
		state = "paused"
	case "resume":
		h.audio.Resume()
		state = "playing"
	case "stop":
		h.audio.Stop()
		state = "stopped"
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	slog.Debug("Audio control", "action", req.Action, "state", state)

	writeJSON(w, map[string]string{
		"status": "ok",
		"state":  state,
	})
}

// HandleVolume handles POST /api/audio/volume
func (h *AudioHandler) HandleVolume(w http.ResponseWriter, r *http.Request) {
	var req AudioVolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.audio.SetVolume(req.Volume)

	// Persist volume
	if h.store != nil {
		strVal := fmt.Sprintf("%.2f", req.Volume)
		if err := h.store.SetState(r.Context(), config.KeyVolume, strVal); err != nil {
			slog.Error("Failed to persist volume", "error", err)
		}
	}

	writeJSON(w, map[string]any{
		"status": "ok",
		"volume": h.audio.Volume(),
	})
}

// HandleStatus handles GET /api/audio/status
func (h *AudioHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := AudioStatusResponse{
		IsPlaying:   h.audio.IsPlaying(),
		IsPaused:    h.audio.IsPaused(),
		Volume:      h.audio.Volume(),
		PositionMs:  h.audio.Position().Milliseconds(),
		DurationMs:  h.audio.Duration().Milliseconds(),
		RemainingMs: h.audio.Remaining().Milliseconds(),
	}

	writeJSON(w, resp)
}
