package config

// Persistent state keys (Registry)
const (
	KeyVoiceLanguage = "voice_language"
	KeyVoiceSpeaker  = "voice_speaker"
	KeyVolume        = "volume"
)
