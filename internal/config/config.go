package config

import (
	"os"
	"strconv"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Port int

	// Render defaults
	SampleRate      int     // offline render rate
	DefaultStyle    string  // style descriptor for unprompted sessions
	DefaultDuration float64 // seconds
	DefaultMode     string  // conscious, subliminal, silent
	ReverbTail      float64 // reverb kernel length, seconds
	OutputDir       string  // where finished session WAVs land

	// Session behavior
	RotateMin int // min seconds before the ambient rotation moves on
	RotateMax int // max seconds per style

	// Ollama LLM (optional -- turns intentions into affirmation scripts)
	OllamaURL   string
	OllamaModel string

	// Voice synthesis collaborator (optional -- narration TTS)
	VoiceAPIURL string
	VoiceName   string

	// Local monitor playback (optional)
	LocalMonitor bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port: envInt("STILLWAVE_PORT", 8080),

		SampleRate:      envInt("STILLWAVE_SAMPLE_RATE", 44100),
		DefaultStyle:    envStr("STILLWAVE_STYLE", "ambient pad"),
		DefaultDuration: envFloat("STILLWAVE_DURATION", 300),
		DefaultMode:     envStr("STILLWAVE_MODE", "conscious"),
		ReverbTail:      envFloat("STILLWAVE_REVERB_TAIL", 3.0),
		OutputDir:       envStr("STILLWAVE_OUTPUT_DIR", "/var/lib/stillwave/sessions"),

		RotateMin: envInt("STILLWAVE_ROTATE_MIN", 600),
		RotateMax: envInt("STILLWAVE_ROTATE_MAX", 1800),

		OllamaURL:   envStr("OLLAMA_URL", ""),
		OllamaModel: envStr("OLLAMA_MODEL", "qwen3:8b"),

		VoiceAPIURL: envStr("STILLWAVE_VOICE_URL", ""),
		VoiceName:   envStr("STILLWAVE_VOICE", "calm-f1"),

		LocalMonitor: envBool("STILLWAVE_LOCAL_MONITOR", false),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
