package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	envVars := []string{
		"LYRICFRAME_FFMPEG", "LYRICFRAME_OUTPUT_DIR", "LYRICFRAME_FPS",
		"LYRICFRAME_SAMPLE_RATE", "LYRICFRAME_LOG_LEVEL", "LYRICFRAME_LOG_PATH",
		"LYRICFRAME_WIDTH", "LYRICFRAME_HEIGHT", "LYRICFRAME_INTRO",
	}
	for _, k := range envVars {
		os.Unsetenv(k)
	}

	cfg := Load()
	if cfg.FFmpegPath != "ffmpeg" {
		t.Errorf("FFmpegPath = %q, want default", cfg.FFmpegPath)
	}
	if cfg.OutputDir != "out" {
		t.Errorf("OutputDir = %q, want 'out'", cfg.OutputDir)
	}
	if cfg.FPS != 60 {
		t.Errorf("FPS = %d, want 60", cfg.FPS)
	}
	if cfg.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", cfg.SampleRate)
	}
	if cfg.VideoWidth != 1280 || cfg.VideoHeight != 720 {
		t.Errorf("size = %dx%d, want 1280x720", cfg.VideoWidth, cfg.VideoHeight)
	}
	if cfg.IntroDuration != 3 {
		t.Errorf("IntroDuration = %v, want 3", cfg.IntroDuration)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LYRICFRAME_FPS", "30")
	t.Setenv("LYRICFRAME_FFMPEG", "/usr/local/bin/ffmpeg")
	t.Setenv("LYRICFRAME_INTRO", "1.5")
	cfg := Load()
	if cfg.FPS != 30 {
		t.Errorf("FPS = %d, want 30", cfg.FPS)
	}
	if cfg.FFmpegPath != "/usr/local/bin/ffmpeg" {
		t.Errorf("FFmpegPath = %q", cfg.FFmpegPath)
	}
	if cfg.IntroDuration != 1.5 {
		t.Errorf("IntroDuration = %v, want 1.5", cfg.IntroDuration)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("LYRICFRAME_FPS", "sixty")
	t.Setenv("LYRICFRAME_INTRO", "soon")
	cfg := Load()
	if cfg.FPS != 60 {
		t.Errorf("malformed int should fall back, got %d", cfg.FPS)
	}
	if cfg.IntroDuration != 3 {
		t.Errorf("malformed float should fall back, got %v", cfg.IntroDuration)
	}
}
