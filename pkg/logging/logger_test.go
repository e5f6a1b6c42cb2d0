package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"solace/pkg/config"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	serverLog := filepath.Join(tempDir, "server.log")

	cfg := &config.LogConfig{
		Server: config.LogSettings{
			Path:  serverLog,
			Level: "DEBUG",
		},
	}

	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer cleanup()

	if _, err := os.Stat(serverLog); os.IsNotExist(err) {
		t.Error("Server log file not created")
	}

	slog.Info("capture check")
	if got := GlobalLogCapture.GetLastLine(); got == "" {
		t.Error("log line was not captured")
	}
}

func TestSetupHandlerLevels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.log")
			h, f, err := setupHandler(path, tt.level, false)
			if err != nil {
				t.Fatalf("setupHandler failed: %v", err)
			}
			if f != nil {
				defer f.Close()
			}
			if !h.Enabled(context.Background(), tt.want) {
				t.Errorf("handler should be enabled at %v", tt.want)
			}
			if tt.want > slog.LevelDebug && h.Enabled(context.Background(), tt.want-4) {
				t.Errorf("handler should not be enabled below %v", tt.want)
			}
		})
	}
}
