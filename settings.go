package lyricframe

import (
	"math"

	"github.com/verset/lyricframe-go/internal/bokeh"
	"github.com/verset/lyricframe-go/internal/compose"
	"github.com/verset/lyricframe-go/internal/easing"
)

// BokehSettings configures the ambient light-spot overlay.
type BokehSettings struct {
	Enabled   bool
	AutoColor bool
	Color     string // hex, used when AutoColor is false
	AutoSize  bool
	Scale     float64 // 0..100
}

// Settings is the externally mutable visual configuration. The engine reads
// a snapshot at the start of each tick and never writes it; mutate between
// ticks only. Hex colors accept 3- or 6-digit values with or without '#';
// invalid colors render as white.
type Settings struct {
	PrimaryColor    string
	SecondaryColor  string
	BackgroundColor string
	FontSize        float64 // px, 30..80
	GlowIntensity   float64 // 0..50
	LyricsXOffset   float64 // percent of frame width, 30..70
	IntroDuration   float64 // seconds, 0..10 in 0.5 steps
	SongTitle       string
	VideoWidth      int
	VideoHeight     int
	Bokeh           BokehSettings
}

// DefaultSettings returns the out-of-the-box look.
func DefaultSettings() Settings {
	return Settings{
		PrimaryColor:    "#ffffff",
		SecondaryColor:  "#8888aa",
		BackgroundColor: "#14141e",
		FontSize:        42,
		GlowIntensity:   15,
		LyricsXOffset:   42,
		IntroDuration:   3,
		VideoWidth:      1280,
		VideoHeight:     720,
		Bokeh: BokehSettings{
			Enabled:   true,
			AutoColor: true,
			Color:     "#4466ff",
			AutoSize:  true,
			Scale:     50,
		},
	}
}

// Normalize clamps every field into its documented range and snaps the intro
// duration to half-second steps.
func (s *Settings) Normalize() {
	s.FontSize = easing.Clamp(s.FontSize, 30, 80)
	s.GlowIntensity = easing.Clamp(s.GlowIntensity, 0, 50)
	s.LyricsXOffset = easing.Clamp(s.LyricsXOffset, 30, 70)
	s.IntroDuration = math.Round(easing.Clamp(s.IntroDuration, 0, 10)*2) / 2
	s.Bokeh.Scale = easing.Clamp(s.Bokeh.Scale, 0, 100)
	if s.VideoWidth < 16 {
		s.VideoWidth = 16
	}
	if s.VideoHeight < 16 {
		s.VideoHeight = 16
	}
}

// style resolves the settings into the compositor's per-frame form.
func (s Settings) style() compose.Style {
	return compose.Style{
		Primary:       easing.HexToRGB(s.PrimaryColor),
		Secondary:     easing.HexToRGB(s.SecondaryColor),
		Background:    easing.HexToRGB(s.BackgroundColor),
		FontSize:      s.FontSize,
		GlowIntensity: s.GlowIntensity,
		LyricsXOffset: s.LyricsXOffset,
		SongTitle:     s.SongTitle,
		Bokeh: bokeh.Config{
			Enabled:   s.Bokeh.Enabled,
			AutoColor: s.Bokeh.AutoColor,
			Color:     easing.HexToRGB(s.Bokeh.Color),
			AutoSize:  s.Bokeh.AutoSize,
			Scale:     s.Bokeh.Scale,
		},
	}
}
