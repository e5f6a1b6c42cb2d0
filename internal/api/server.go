// Package api exposes the HTTP surface for speech, voices, preferences,
// and transcription.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"solace/pkg/version"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
func NewServer(addr string, speech *SpeechHandler, voicesH *VoicesHandler, prefsH *PrefsHandler, audioH *AudioHandler, transcribeH *TranscribeHandler, stats *StatsHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)

	// 1b. Version Endpoint
	mux.HandleFunc("GET /api/version", handleVersion)

	// 2. Speech Endpoints
	mux.HandleFunc("POST /api/speech/speak", speech.HandleSpeak)
	mux.HandleFunc("POST /api/speech/preview", speech.HandlePreview)
	mux.HandleFunc("POST /api/speech/cancel", speech.HandleCancel)
	mux.HandleFunc("GET /api/speech/status", speech.HandleStatus)

	// 3. Catalog Endpoint
	mux.HandleFunc("GET /api/voices", voicesH.HandleList)

	// 4. Preference Endpoints
	mux.HandleFunc("GET /api/preferences", prefsH.HandleGet)
	mux.HandleFunc("POST /api/preferences", prefsH.HandleSet)

	// 5. Audio Endpoints
	if audioH != nil {
		mux.HandleFunc("POST /api/audio/control", audioH.HandleControl)
		mux.HandleFunc("POST /api/audio/volume", audioH.HandleVolume)
		mux.HandleFunc("GET /api/audio/status", audioH.HandleStatus)
	}

	// 6. Transcription Endpoint
	if transcribeH != nil {
		mux.HandleFunc("POST /api/transcribe", transcribeH.Handle)
	}

	// 7. Stats Endpoint
	mux.Handle("GET /api/stats", stats)

	// 8. Logs Endpoint
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)
	mux.HandleFunc("GET /api/log/recent", handleRecentLog)

	// 9. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
