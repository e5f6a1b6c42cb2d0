package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"solace/internal/api"
	"solace/pkg/asr"
	"solace/pkg/audio"
	"solace/pkg/config"
	"solace/pkg/db"
	"solace/pkg/fallback"
	"solace/pkg/logging"
	"solace/pkg/playback"
	"solace/pkg/probe"
	"solace/pkg/request"
	"solace/pkg/store"
	"solace/pkg/tracker"
	"solace/pkg/tts"
	"solace/pkg/tts/azure"
	"solace/pkg/tts/edgetts"
	"solace/pkg/tts/fishaudio"
	"solace/pkg/version"
	"solace/pkg/voice"
)

var initConfig = flag.Bool("init-config", false, "Generate default config file and exit")

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault("configs/solace.yaml"); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated: configs/solace.yaml")
		return
	}

	if err := run(context.Background(), "configs/solace.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Secrets may live in a local .env; missing file is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env", "error", err)
	}

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	tts.SetLogPath(appCfg.Log.TTS.Path)
	tts.SetEnabled(appCfg.Log.TTS.Path != "")

	slog.Info("Solace Started", "version", version.Version)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := dbConn.PruneCache(30 * 24 * time.Hour); err != nil {
		slog.Warn("Cache pruning failed", "error", err)
	}

	registry, err := voice.LoadRegistry(appCfg.Voices.Path)
	if err != nil {
		return fmt.Errorf("failed to load voice catalog: %w", err)
	}
	slog.Info("Voice catalog loaded", "version", registry.Version(), "speakers", len(registry.Speakers()))

	tr := tracker.New()
	reqClient := request.New(st, tr, request.ClientConfig{
		Retries:   appCfg.Request.Retries,
		Timeout:   time.Duration(appCfg.Request.Timeout),
		BaseDelay: time.Duration(appCfg.Request.Backoff.BaseDelay),
		MaxDelay:  time.Duration(appCfg.Request.Backoff.MaxDelay),
	})

	providers := playback.Providers{
		voice.ProviderAzure:     azure.NewProvider(appCfg.TTS.AzureSpeech, tr),
		voice.ProviderEdgeTTS:   edgetts.NewProvider(appCfg.TTS.EdgeTTS, tr),
		voice.ProviderFishAudio: fishaudio.NewProvider(appCfg.TTS.FishAudio, tr),
	}

	fbEngine := fallback.NewSystemEngine(appCfg.TTS.Fallback.Command)
	fbSynth := fallback.New(fbEngine)

	audioMgr := audio.New()
	defer audioMgr.Shutdown()
	restoreVolume(ctx, st, audioMgr)

	sessions, err := playback.NewManager(providers, fbSynth, audioMgr, tr, &appCfg.Speech)
	if err != nil {
		return fmt.Errorf("failed to initialize playback manager: %w", err)
	}
	defer sessions.Shutdown()

	prefs := voice.NewPrefs(st, registry, voice.Language(appCfg.Speech.DefaultLanguage))
	asrClient := asr.NewClient(appCfg.ASR, reqClient)

	results := probe.Run(ctx, startupProbes(appCfg, fbEngine, asrClient))
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	return runServer(ctx, appCfg, sessions, registry, prefs, audioMgr, asrClient, tr, st)
}

// startupProbes reports on the synthesis paths before the server goes live.
// Only provider credentials are critical: edge-tts needs none, so at least one
// cloud path always remains usable when the config is sane.
func startupProbes(cfg *config.Config, fbEngine fallback.Engine, asrClient *asr.Client) []probe.Probe {
	return []probe.Probe{
		{
			Name: "Azure Speech",
			Check: func(context.Context) error {
				if cfg.TTS.AzureSpeech.Key == "" || cfg.TTS.AzureSpeech.Region == "" {
					return fmt.Errorf("key or region not configured")
				}
				return nil
			},
		},
		{
			Name: "Fish Audio",
			Check: func(context.Context) error {
				if cfg.TTS.FishAudio.Key == "" {
					return fmt.Errorf("key not configured")
				}
				return nil
			},
		},
		{
			Name: "Fallback Engine",
			Check: func(ctx context.Context) error {
				voices, err := fbEngine.Voices(ctx)
				if err != nil {
					return err
				}
				if len(voices) == 0 {
					return fmt.Errorf("no system voices found")
				}
				return nil
			},
		},
		{
			Name: "Transcription",
			Check: func(context.Context) error {
				if !asrClient.Configured() {
					return fmt.Errorf("not configured, /api/transcribe disabled")
				}
				return nil
			},
		},
	}
}

func initDB(appCfg *config.Config) (*db.DB, *store.SQLiteStore, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

// restoreVolume applies the last persisted volume, if any.
func restoreVolume(ctx context.Context, st store.StateStore, audioMgr audio.Service) {
	raw, ok := st.GetState(ctx, config.KeyVolume)
	if !ok {
		return
	}
	vol, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("Ignoring invalid persisted volume", "value", raw)
		return
	}
	audioMgr.SetVolume(vol)
}

func runServer(ctx context.Context, cfg *config.Config, sessions *playback.Manager, registry *voice.Registry, prefs *voice.Prefs, audioMgr audio.Service, asrClient *asr.Client, tr *tracker.Tracker, st store.StateStore) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address,
		api.NewSpeechHandler(sessions, registry, prefs),
		api.NewVoicesHandler(registry),
		api.NewPrefsHandler(prefs, registry),
		api.NewAudioHandler(audioMgr, st),
		api.NewTranscribeHandler(asrClient),
		api.NewStatsHandler(tr, sessions),
		shutdownFunc,
	)

	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
