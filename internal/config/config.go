package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Directories
	AssetsDir string // fonts, intro clips, background sounds, overlay icons
	TempDir   string // per-render scratch files
	OutputDir string // final rendered files before they are sent and/or cleaned up

	// External tools
	FFmpegPath       string
	FFprobePath      string
	SoundstretchPath string
	EdgeTTSPath      string
	MFAPath          string

	// Gemini (used for image generation)
	GeminiKey string

	// OpenAI (optional — when set, caption alignment uses Whisper instead of MFA)
	OpenAIKey string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		BackendAPIKey:      getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		AssetsDir:          getEnv("ASSETS_DIR", "assets"),
		TempDir:            getEnv("TEMP_DIR", "tmp"),
		OutputDir:          getEnv("OUTPUT_DIR", "output"),
		FFmpegPath:         getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:        getEnv("FFPROBE_PATH", "ffprobe"),
		SoundstretchPath:   getEnv("SOUNDSTRETCH_PATH", "soundstretch"),
		EdgeTTSPath:        getEnv("EDGE_TTS_PATH", "edge-tts"),
		MFAPath:            getEnv("MFA_PATH", "mfa"),
		GeminiKey:          getEnv("GEMINI_API_KEY", ""),
		OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
	}

	// Validate required fields
	if cfg.GeminiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	if err := os.MkdirAll(cfg.TempDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create temp dir %s: %w", cfg.TempDir, err)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create output dir %s: %w", cfg.OutputDir, err)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
