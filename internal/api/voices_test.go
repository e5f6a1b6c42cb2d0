package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"solace/pkg/voice"
)

func TestHandleList(t *testing.T) {
	reg, err := voice.ParseRegistry([]byte(testCatalog))
	if err != nil {
		t.Fatal(err)
	}
	h := NewVoicesHandler(reg)

	tests := []struct {
		name     string
		url      string
		wantIDs  []string
		wantVers int
	}{
		{"full catalog", "/api/voices", []string{"meena", "ava"}, 1},
		{"language filter", "/api/voices?language=ta-IN", []string{"meena"}, 1},
		{"unknown language", "/api/voices?language=fr-FR", []string{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.url, http.NoBody)
			w := httptest.NewRecorder()
			h.HandleList(w, req)

			var resp struct {
				Version  int          `json:"version"`
				Speakers []SpeakerDTO `json:"speakers"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Version != tt.wantVers {
				t.Errorf("version = %d, want %d", resp.Version, tt.wantVers)
			}
			if len(resp.Speakers) != len(tt.wantIDs) {
				t.Fatalf("got %d speakers, want %d", len(resp.Speakers), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if resp.Speakers[i].ID != id {
					t.Errorf("speakers[%d] = %s, want %s", i, resp.Speakers[i].ID, id)
				}
			}
		})
	}
}
