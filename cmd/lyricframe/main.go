package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	lyricframe "github.com/verset/lyricframe-go"
	"github.com/verset/lyricframe-go/internal/config"
	"github.com/verset/lyricframe-go/internal/logger"
	"github.com/verset/lyricframe-go/internal/record"
)

var (
	lrcPath   string
	audioPath string
	coverPath string
	outDir    string
	width     int
	height    int
	fps       int
	intro     float64
	title     string

	primaryColor   string
	secondaryColor string
	bgColor        string
	fontSize       float64
	glow           float64
	xOffset        float64
	noBokeh        bool
	bokehColor     string
	bokehScale     float64
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSizeMB:  20,
		MaxBackups: 3,
		MaxAgeDays: 14,
	})
	defer logger.Sync()

	rootCmd := &cobra.Command{
		Use:   "lyricframe",
		Short: "Render synchronized lyric videos from LRC files",
		Long: "lyricframe composes a time-tagged lyric track, an audio file, and an\n" +
			"optional cover image into a lyric video.",
		SilenceUsage: true,
	}

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render a lyric video offline, faster than realtime",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cfg)
		},
	}
	defaults := lyricframe.DefaultSettings()
	f := renderCmd.Flags()
	f.StringVar(&lrcPath, "lrc", "", "path to the LRC lyric file (required)")
	f.StringVar(&audioPath, "audio", "", "path to the audio track, mp3/wav/ogg (required)")
	f.StringVar(&coverPath, "cover", "", "path to a cover image, png/jpeg")
	f.StringVar(&outDir, "out", cfg.OutputDir, "output directory for the artifact")
	f.IntVar(&width, "width", cfg.VideoWidth, "video width in pixels")
	f.IntVar(&height, "height", cfg.VideoHeight, "video height in pixels")
	f.IntVar(&fps, "fps", cfg.FPS, "frames per second")
	f.Float64Var(&intro, "intro", cfg.IntroDuration, "title intro length in seconds, 0..10")
	f.StringVar(&title, "title", "", "song title shown during the intro (defaults to the audio file name)")
	f.StringVar(&primaryColor, "primary", defaults.PrimaryColor, "active lyric line color, hex")
	f.StringVar(&secondaryColor, "secondary", defaults.SecondaryColor, "inactive lyric line color, hex")
	f.StringVar(&bgColor, "background", defaults.BackgroundColor, "background base color, hex")
	f.Float64Var(&fontSize, "font-size", defaults.FontSize, "lyric font size in pixels, 30..80")
	f.Float64Var(&glow, "glow", defaults.GlowIntensity, "glow intensity on the active line, 0..50")
	f.Float64Var(&xOffset, "x-offset", defaults.LyricsXOffset, "lyric column position, percent of width, 30..70")
	f.BoolVar(&noBokeh, "no-bokeh", false, "disable the ambient light-spot overlay")
	f.StringVar(&bokehColor, "bokeh-color", "", "fixed bokeh color, hex (default derives from time)")
	f.Float64Var(&bokehScale, "bokeh-scale", defaults.Bokeh.Scale, "bokeh particle size, 0..100 (overrides auto sizing)")
	_ = renderCmd.MarkFlagRequired("lrc")
	_ = renderCmd.MarkFlagRequired("audio")

	rootCmd.AddCommand(renderCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runRender(cfg config.Config) error {
	log := logger.L()

	lrcData, err := os.ReadFile(lrcPath)
	if err != nil {
		return fmt.Errorf("read lyrics: %w", err)
	}
	audioData, err := os.ReadFile(audioPath)
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}
	var cover image.Image
	if coverPath != "" {
		cover, err = loadImage(coverPath)
		if err != nil {
			return fmt.Errorf("read cover: %w", err)
		}
	}

	s := buildSettings()
	log.Info("starting offline render",
		zap.String("lrc", lrcPath),
		zap.String("audio", audioPath),
		zap.Int("width", s.VideoWidth),
		zap.Int("height", s.VideoHeight),
		zap.Int("fps", fps))

	sink := record.NewFFmpegSession(cfg.FFmpegPath, outDir, cfg.SampleRate, log)
	artifact, err := lyricframe.RenderVideo(lyricframe.OfflineInput{
		LyricText:  string(lrcData),
		AudioName:  audioPath,
		AudioData:  audioData,
		Cover:      cover,
		Settings:   s,
		FPS:        fps,
		SampleRate: cfg.SampleRate,
	}, sink)
	if err != nil {
		return err
	}
	log.Info("render complete", zap.String("artifact", artifact))
	fmt.Println(artifact)
	return nil
}

func buildSettings() lyricframe.Settings {
	s := lyricframe.DefaultSettings()
	s.PrimaryColor = primaryColor
	s.SecondaryColor = secondaryColor
	s.BackgroundColor = bgColor
	s.FontSize = fontSize
	s.GlowIntensity = glow
	s.LyricsXOffset = xOffset
	s.IntroDuration = intro
	s.VideoWidth = width
	s.VideoHeight = height
	s.SongTitle = title
	if s.SongTitle == "" {
		base := filepath.Base(audioPath)
		s.SongTitle = strings.TrimSuffix(base, filepath.Ext(base))
	}
	s.Bokeh.Enabled = !noBokeh
	if bokehColor != "" {
		s.Bokeh.AutoColor = false
		s.Bokeh.Color = bokehColor
	}
	if bokehScale != lyricframe.DefaultSettings().Bokeh.Scale {
		s.Bokeh.AutoSize = false
		s.Bokeh.Scale = bokehScale
	}
	return s
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
