package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"solace/pkg/asr"
	"solace/pkg/voice"
)

// maxUploadSize caps transcription uploads at 25 MB, the whisper API limit.
const maxUploadSize = 25 << 20

// TranscribeHandler handles speech-to-text uploads.
type TranscribeHandler struct {
	asr *asr.Client
}

// NewTranscribeHandler creates a new TranscribeHandler.
func NewTranscribeHandler(client *asr.Client) *TranscribeHandler {
	return &TranscribeHandler{asr: client}
}

// Handle handles POST /api/transcribe. The payload is a multipart form with
// a "file" part and an optional "language" field. Permission failures get a
// distinct error code so the UI can show credential guidance instead of a
// generic retry prompt.
func (h *TranscribeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !h.asr.Configured() {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "transcription backend not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "bad_upload", "invalid multipart payload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_upload", "missing file part")
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_upload", "unreadable file part")
		return
	}

	lang := voice.Language(r.FormValue("language"))

	text, err := h.asr.Transcribe(r.Context(), payload, header.Filename, lang)
	if err != nil {
		var pe *asr.PermissionError
		if errors.As(err, &pe) {
			writeError(w, http.StatusForbidden, "permission_denied", pe.Error())
			return
		}
		slog.Warn("API: transcription failed", "error", err)
		writeError(w, http.StatusBadGateway, "transport_failure", "transcription failed, please retry")
		return
	}

	writeJSON(w, map[string]string{"text": text})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message}); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
