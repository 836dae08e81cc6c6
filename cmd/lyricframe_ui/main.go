package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	lyricframe "github.com/verset/lyricframe-go"
	"github.com/verset/lyricframe-go/internal/audio"
	"github.com/verset/lyricframe-go/internal/config"
	"github.com/verset/lyricframe-go/internal/logger"
	"github.com/verset/lyricframe-go/internal/record"
)

type game struct {
	engine *lyricframe.Engine
	log    *zap.Logger

	frameImg *ebiten.Image
	frameW   int
	frameH   int

	lrcPath string

	mu         sync.Mutex
	reloadLRC  bool
	watchErr   string
	status     string
	statusErr  bool
	lastStatus time.Time
}

func (g *game) Update() error {
	g.mu.Lock()
	if g.reloadLRC {
		g.reloadLRC = false
		g.mu.Unlock()
		if n, err := g.engine.LoadLyricsFile(g.lrcPath); err != nil {
			g.setError("reload lyrics: " + err.Error())
		} else {
			g.setStatus(fmt.Sprintf("Lyrics reloaded (%d cues)", n))
		}
	} else {
		if g.watchErr != "" {
			msg := g.watchErr
			g.watchErr = ""
			g.mu.Unlock()
			g.setError(msg)
		} else {
			g.mu.Unlock()
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.engine.TogglePlay()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.toggleRecording()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) && g.engine.Recording() {
		g.engine.CancelRecording()
		g.setStatus("Recording cancelled")
	}

	st, err := g.engine.Tick(time.Now())
	if err != nil {
		g.setError(err.Error())
		return nil
	}
	if st.Artifact != "" {
		g.setStatus("Saved " + st.Artifact)
	}
	return nil
}

func (g *game) toggleRecording() {
	if g.engine.Recording() {
		artifact, err := g.engine.StopRecording()
		if err != nil {
			g.setError("stop recording: " + err.Error())
			return
		}
		g.setStatus("Saved " + artifact)
		return
	}
	if err := g.engine.StartRecording(time.Now()); err != nil {
		g.setError("start recording: " + err.Error())
		return
	}
	g.setStatus("Recording...")
}

func (g *game) Draw(screen *ebiten.Image) {
	frame := g.engine.Frame()
	if frame != nil {
		b := frame.Bounds()
		if g.frameImg == nil || g.frameW != b.Dx() || g.frameH != b.Dy() {
			g.frameW, g.frameH = b.Dx(), b.Dy()
			g.frameImg = ebiten.NewImage(g.frameW, g.frameH)
		}
		g.frameImg.WritePixels(frame.Pix)
		screen.DrawImage(g.frameImg, nil)
	}
	g.drawStatus(screen)
}

func (g *game) drawStatus(screen *ebiten.Image) {
	msg := g.status
	if g.statusErr {
		msg = "ERROR - " + msg
	}
	if g.engine.Recording() {
		msg = "[REC] " + msg
	}
	if msg == "" {
		return
	}
	if !g.statusErr && time.Since(g.lastStatus) > 5*time.Second && !g.engine.Recording() {
		return
	}
	ebitenutil.DebugPrintAt(screen, msg, 8, 8)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	s := g.engine.Settings()
	return s.VideoWidth, s.VideoHeight
}

func (g *game) setStatus(msg string) {
	g.status = msg
	g.statusErr = false
	g.lastStatus = time.Now()
	g.log.Info(msg)
}

func (g *game) setError(msg string) {
	g.status = msg
	g.statusErr = true
	g.lastStatus = time.Now()
	g.log.Warn(msg)
}

// watchLyrics reloads the lyric file on every write to it. Editors that
// replace the file atomically emit Create instead of Write, so both count.
func (g *game) watchLyrics() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(g.lrcPath)); err != nil {
		w.Close()
		return err
	}
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(g.lrcPath) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				g.mu.Lock()
				g.reloadLRC = true
				g.mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				g.mu.Lock()
				g.watchErr = "lyric watcher: " + err.Error()
				g.mu.Unlock()
			}
		}
	}()
	return nil
}

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

	var (
		lrcPath   string
		audioPath string
		coverPath string
		title     string
		intro     float64
	)
	cmd := &cobra.Command{
		Use:          "lyricframe_ui",
		Short:        "Preview and record lyric videos interactively",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg, lrcPath, audioPath, coverPath, title, intro)
		},
	}
	cmd.Flags().StringVar(&lrcPath, "lrc", "", "path to the LRC lyric file (required)")
	cmd.Flags().StringVar(&audioPath, "audio", "", "path to the audio track, mp3/wav/ogg (required)")
	cmd.Flags().StringVar(&coverPath, "cover", "", "path to a cover image, png/jpeg")
	cmd.Flags().StringVar(&title, "title", "", "song title (defaults to the audio file name)")
	cmd.Flags().Float64Var(&intro, "intro", cfg.IntroDuration, "title intro length in seconds, 0..10")
	_ = cmd.MarkFlagRequired("lrc")
	_ = cmd.MarkFlagRequired("audio")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, lrcPath, audioPath, coverPath, title string, intro float64) error {
	zlog := logger.L()

	s := lyricframe.DefaultSettings()
	s.VideoWidth = cfg.VideoWidth
	s.VideoHeight = cfg.VideoHeight
	s.IntroDuration = intro
	s.SongTitle = title
	if s.SongTitle == "" {
		base := filepath.Base(audioPath)
		s.SongTitle = strings.TrimSuffix(base, filepath.Ext(base))
	}

	eng := lyricframe.New(
		lyricframe.WithSettings(s),
		lyricframe.WithLogger(zlog),
		lyricframe.WithCaptureFPS(cfg.FPS),
		lyricframe.WithSampleRate(cfg.SampleRate),
		lyricframe.WithCaptureFactory(func(w, h int) lyricframe.CaptureSession {
			return record.NewFFmpegSession(cfg.FFmpegPath, cfg.OutputDir, cfg.SampleRate, zlog)
		}),
	)
	defer eng.Close()

	if _, err := eng.LoadLyricsFile(lrcPath); err != nil {
		return fmt.Errorf("load lyrics: %w", err)
	}
	audioData, err := os.ReadFile(audioPath)
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}
	player, err := audio.NewPlayer(audioPath, audioData, cfg.SampleRate)
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	defer player.Close()
	eng.AttachAudio(player)

	if coverPath != "" {
		f, err := os.Open(coverPath)
		if err != nil {
			return fmt.Errorf("read cover: %w", err)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("decode cover: %w", err)
		}
		eng.SetCover(img)
	}

	g := &game{
		engine:  eng,
		log:     zlog,
		lrcPath: lrcPath,
		status:  "Space: play/pause  R: record  Esc: cancel",
	}
	g.lastStatus = time.Now()
	if err := g.watchLyrics(); err != nil {
		zlog.Warn("lyric hot-reload unavailable", zap.Error(err))
	}

	ebiten.SetWindowSize(s.VideoWidth, s.VideoHeight)
	ebiten.SetWindowTitle("lyricframe")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(g)
}
