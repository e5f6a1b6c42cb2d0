package asr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"solace/pkg/config"
	"solace/pkg/db"
	"solace/pkg/request"
	"solace/pkg/store"
	"solace/pkg/tracker"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "asr_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	rc := request.New(store.NewSQLiteStore(d), tracker.New(), request.ClientConfig{})
	return NewClient(config.ASRConfig{
		URL:     url,
		Key:     "test-key",
		Model:   "whisper-1",
		Timeout: config.Duration(5 * time.Second),
	}, rc)
}

func TestTranscribe(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("language"); got != "ta" {
			t.Errorf("language = %q, want ta", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "vanakkam"})
	}))
	defer svr.Close()

	c := newTestClient(t, svr.URL)

	text, err := c.Transcribe(context.Background(), []byte("RIFFdata"), "mic.wav", "ta-IN")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "vanakkam" {
		t.Errorf("text = %q, want vanakkam", text)
	}
}

func TestTranscribePermissionDenied(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
	}))
	defer svr.Close()

	c := newTestClient(t, svr.URL)

	_, err := c.Transcribe(context.Background(), []byte("RIFFdata"), "", "")
	var pe *PermissionError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want PermissionError", err)
	}
	if pe.StatusCode != 401 {
		t.Errorf("status = %d, want 401", pe.StatusCode)
	}
}

func TestTranscribeValidation(t *testing.T) {
	c := newTestClient(t, "http://localhost:1")

	if _, err := c.Transcribe(context.Background(), nil, "", ""); err == nil {
		t.Error("expected error for empty payload")
	}

	unconfigured := NewClient(config.ASRConfig{}, nil)
	if _, err := unconfigured.Transcribe(context.Background(), []byte("x"), "", ""); err == nil {
		t.Error("expected error for unconfigured backend")
	}
	if unconfigured.Configured() {
		t.Error("Configured() = true for empty config")
	}
}
