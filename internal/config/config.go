// Package config loads runtime configuration from the environment, with a
// .env file picked up when present.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the binaries need that isn't a per-render flag.
type Config struct {
	FFmpegPath string
	OutputDir  string // where capture artifacts land
	FPS        int
	SampleRate int

	LogLevel string
	LogPath  string

	// Render defaults, overridable per run.
	VideoWidth    int
	VideoHeight   int
	IntroDuration float64
}

// Load reads configuration from environment variables with defaults.
// godotenv never overrides variables already set in the environment.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		FFmpegPath: envStr("LYRICFRAME_FFMPEG", "ffmpeg"),
		OutputDir:  envStr("LYRICFRAME_OUTPUT_DIR", "out"),
		FPS:        envInt("LYRICFRAME_FPS", 60),
		SampleRate: envInt("LYRICFRAME_SAMPLE_RATE", 48000),

		LogLevel: envStr("LYRICFRAME_LOG_LEVEL", "info"),
		LogPath:  envStr("LYRICFRAME_LOG_PATH", ""),

		VideoWidth:    envInt("LYRICFRAME_WIDTH", 1280),
		VideoHeight:   envInt("LYRICFRAME_HEIGHT", 720),
		IntroDuration: envFloat("LYRICFRAME_INTRO", 3),
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
