package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Request RequestConfig `yaml:"request"`
	TTS     TTSConfig     `yaml:"tts"`
	ASR     ASRConfig     `yaml:"asr"`
	Speech  SpeechConfig  `yaml:"speech"`
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Server  ServerConfig  `yaml:"server"`
	Voices  VoicesConfig  `yaml:"voices"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Retries int           `yaml:"retries"`
	Timeout Duration      `yaml:"timeout"`
	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// EdgeTTSConfig holds settings for Edge TTS.
type EdgeTTSConfig struct {
	VoiceID string `yaml:"voice"` // default voice, e.g. "en-US-AvaMultilingualNeural"
}

// FishAudioConfig holds settings for Fish Audio TTS.
type FishAudioConfig struct {
	Key     string `yaml:"key"`   // API Key
	VoiceID string `yaml:"voice"` // Reference ID
	Model   string `yaml:"model"` // Model ID (e.g. "s1")
}

// AzureSpeechConfig holds settings for Azure Speech TTS.
type AzureSpeechConfig struct {
	Key     string `yaml:"key"`
	Region  string `yaml:"region"` // e.g., "centralindia"
	VoiceID string `yaml:"voice"`
}

// FallbackConfig holds settings for the on-device synthesizer.
type FallbackConfig struct {
	Command string `yaml:"command"` // synthesis binary, e.g. "espeak-ng"
}

// TTSConfig holds Text-To-Speech settings.
type TTSConfig struct {
	EdgeTTS     EdgeTTSConfig     `yaml:"edge_tts"`
	FishAudio   FishAudioConfig   `yaml:"fish_audio"`
	AzureSpeech AzureSpeechConfig `yaml:"azure_speech"`
	Fallback    FallbackConfig    `yaml:"fallback"`
}

// ASRConfig holds speech-to-text settings.
type ASRConfig struct {
	URL     string   `yaml:"url"`   // transcription endpoint
	Key     string   `yaml:"key"`   // API key
	Model   string   `yaml:"model"` // e.g. "whisper-1"
	Timeout Duration `yaml:"timeout"`
}

// SpeechConfig holds playback session settings.
type SpeechConfig struct {
	DefaultLanguage string   `yaml:"default_language"`
	ReplyTimeout    Duration `yaml:"reply_timeout"`   // conversational budget
	PreviewTimeout  Duration `yaml:"preview_timeout"` // preview/synthesis budget
	ArtifactDir     string   `yaml:"artifact_dir"`    // synthesized audio scratch dir
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server LogSettings `yaml:"server"`
	TTS    LogSettings `yaml:"tts"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// VoicesConfig holds the catalog artifact location.
type VoicesConfig struct {
	Path string `yaml:"path"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Request: RequestConfig{
			Retries: 3,
			Timeout: Duration(120 * time.Second),
			Backoff: BackoffConfig{
				BaseDelay: Duration(500 * time.Millisecond),
				MaxDelay:  Duration(30 * time.Second),
			},
		},
		TTS: TTSConfig{
			EdgeTTS: EdgeTTSConfig{
				VoiceID: "en-US-AvaMultilingualNeural",
			},
			FishAudio: FishAudioConfig{
				Model: "s1",
			},
			AzureSpeech: AzureSpeechConfig{
				Region: "centralindia",
			},
			Fallback: FallbackConfig{
				Command: "espeak-ng",
			},
		},
		ASR: ASRConfig{
			URL:     "https://api.openai.com/v1/audio/transcriptions",
			Model:   "whisper-1",
			Timeout: Duration(30 * time.Second),
		},
		Speech: SpeechConfig{
			DefaultLanguage: "en-US",
			ReplyTimeout:    Duration(30 * time.Second),
			PreviewTimeout:  Duration(60 * time.Second),
			ArtifactDir:     "./data/speech",
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			TTS: LogSettings{
				Path:  "./logs/tts.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/solace.db",
		},
		Server: ServerConfig{
			Address: "localhost:1923",
		},
		Voices: VoicesConfig{
			Path: "configs/voices.yaml",
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save
// back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		// Load secrets from env if empty (do NOT save back to disk).
		if cfg.TTS.FishAudio.Key == "" {
			if key := os.Getenv("FISH_AUDIO_API_KEY"); key != "" {
				cfg.TTS.FishAudio.Key = key
			}
		}
		if cfg.TTS.AzureSpeech.Key == "" {
			if key := os.Getenv("AZURE_SPEECH_KEY"); key != "" {
				cfg.TTS.AzureSpeech.Key = key
			}
		}
		if cfg.TTS.AzureSpeech.Region == "" {
			if region := os.Getenv("AZURE_SPEECH_REGION"); region != "" {
				cfg.TTS.AzureSpeech.Region = region
			}
		}
		if cfg.ASR.Key == "" {
			if key := os.Getenv("ASR_API_KEY"); key != "" {
				cfg.ASR.Key = key
			}
		}

		if !isValidLocale(cfg.Speech.DefaultLanguage) {
			return nil, fmt.Errorf("invalid default_language format %q: must be 'xx-YY' (e.g. 'en-US', 'ta-IN')", cfg.Speech.DefaultLanguage)
		}

		return cfg, nil
	}

	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}
	return cfg, nil
}

func isValidLocale(s string) bool {
	matched, _ := regexp.MatchString(`^[a-z]{2}-[A-Z]{2}$`, s)
	return matched
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Solace Configuration
# --------------------
# Duration units: ns, us (or µs), ms, s, m, h, d (day), w (week)
# API keys may come from the environment instead:
#   FISH_AUDIO_API_KEY, AZURE_SPEECH_KEY, AZURE_SPEECH_REGION, ASR_API_KEY

`)
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}
