// Package lyricframe turns a time-tagged lyric track, an audio file, and a
// cover image into a continuously rendered, frame-accurate composition, and
// can capture that composition plus audio into a video artifact.
package lyricframe

import (
	"errors"
	"image"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/verset/lyricframe-go/internal/compose"
	"github.com/verset/lyricframe-go/internal/lrc"
	"github.com/verset/lyricframe-go/internal/record"
	"github.com/verset/lyricframe-go/internal/scroll"
	"github.com/verset/lyricframe-go/internal/surface"
)

// AudioSource is the playback clock the engine synchronizes to. The engine
// only reads the clock; ownership stays with the audio subsystem.
type AudioSource interface {
	Play()
	Pause()
	IsPlaying() bool
	SetPosition(time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	PCMStream() (io.Reader, error)
}

// CaptureSession receives composed frames plus interleaved PCM and yields a
// video artifact on Finish.
type CaptureSession interface {
	Start(w, h, fps int) error
	WriteFrame(frame *image.RGBA) error
	WriteAudio(pcm []byte) error
	Finish() (string, error)
	Abort()
}

// CaptureFactory builds a fresh capture session per recording.
type CaptureFactory func(w, h int) CaptureSession

// State is the per-tick playback snapshot. A new value is produced on every
// Tick; nothing in it is retained by the engine.
type State struct {
	Time         float64 // logical playback seconds used for this frame
	AbsoluteTime float64 // wall-clock animation seconds
	SmoothIndex  float64
	ActiveIndex  int
	Phase        string // "idle", "intro", or "recording"
	Artifact     string // set on the tick that finalized a recording
}

type Option func(*engineConfig)

type engineConfig struct {
	settings   Settings
	log        *zap.Logger
	capture    CaptureFactory
	fps        int
	sampleRate int
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		settings:   DefaultSettings(),
		log:        zap.NewNop(),
		fps:        60,
		sampleRate: 48000,
	}
}

func WithSettings(s Settings) Option {
	return func(cfg *engineConfig) { cfg.settings = s }
}

func WithLogger(log *zap.Logger) Option {
	return func(cfg *engineConfig) { cfg.log = log }
}

// WithCaptureFactory installs the capture sink constructor used by
// StartRecording.
func WithCaptureFactory(f CaptureFactory) Option {
	return func(cfg *engineConfig) { cfg.capture = f }
}

// WithCaptureFPS sets the frame rate declared to capture sessions.
func WithCaptureFPS(fps int) Option {
	return func(cfg *engineConfig) { cfg.fps = fps }
}

// WithSampleRate sets the PCM rate fed to capture sessions.
func WithSampleRate(rate int) Option {
	return func(cfg *engineConfig) { cfg.sampleRate = rate }
}

// Engine owns the per-tick pipeline: one time sample, index lookup, scroll
// interpolation, frame composition, and (when a session is active) capture.
// It is single-threaded by design: call Tick from one loop.
type Engine struct {
	log      *zap.Logger
	settings Settings
	fps      int
	rate     int
	capture  CaptureFactory

	timeline *lrc.Timeline
	cover    image.Image
	audio    AudioSource

	scroll   scroll.Interpolator
	recorder *record.Controller
	surf     *surface.Software

	// Geometry latched for the lifetime of a capture session. The sink's
	// frame size is fixed at Start, so resizes wait until the engine is idle.
	sessionW, sessionH int

	epoch    time.Time // animation clock zero; independent of playback
	lastTick time.Time
}

// New builds an engine with the given options.
func New(opts ...Option) *Engine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.settings.Normalize()
	return &Engine{
		log:      cfg.log,
		settings: cfg.settings,
		fps:      cfg.fps,
		rate:     cfg.sampleRate,
		capture:  cfg.capture,
		recorder: record.NewController(cfg.log),
	}
}

// LoadLyrics replaces the timeline with a freshly parsed one and rewinds the
// scroll to the top. Returns the cue count.
func (e *Engine) LoadLyrics(raw string) int {
	e.timeline = lrc.Parse(raw)
	e.scroll.Reset()
	e.log.Info("lyrics loaded", zap.Int("cues", e.timeline.Len()))
	return e.timeline.Len()
}

// LoadLyricsFile reads and parses a lyric file.
func (e *Engine) LoadLyricsFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return e.LoadLyrics(string(data)), nil
}

// CueCount returns the number of loaded cues.
func (e *Engine) CueCount() int {
	if e.timeline == nil {
		return 0
	}
	return e.timeline.Len()
}

// SetCover installs the cover image (nil clears it).
func (e *Engine) SetCover(img image.Image) { e.cover = img }

// AttachAudio installs the playback clock.
func (e *Engine) AttachAudio(src AudioSource) { e.audio = src }

// Settings returns the current settings snapshot.
func (e *Engine) Settings() Settings { return e.settings }

// UpdateSettings replaces the settings between ticks, clamping out-of-range
// values. Video geometry changes take effect once no session is active.
func (e *Engine) UpdateSettings(s Settings) {
	s.Normalize()
	e.settings = s
}

// TogglePlay flips manual playback. Ignored while a recording session owns
// the transport.
func (e *Engine) TogglePlay() {
	if e.audio == nil || e.recorder.Active() {
		return
	}
	if e.audio.IsPlaying() {
		e.audio.Pause()
		return
	}
	e.audio.Play()
}

// Recording reports whether a session is active.
func (e *Engine) Recording() bool { return e.recorder.Active() }

// StartRecording begins a capture session. It is disallowed unless audio and
// at least one cue are loaded, and is rejected while a session is active.
func (e *Engine) StartRecording(now time.Time) error {
	if e.audio == nil {
		return errors.New("no audio loaded")
	}
	if e.CueCount() == 0 {
		return errors.New("no lyric cues loaded")
	}
	if e.capture == nil {
		return errors.New("no capture factory configured")
	}
	pcm, err := e.audio.PCMStream()
	if err != nil {
		return err
	}
	st := e.settings
	e.sessionW, e.sessionH = st.VideoWidth, st.VideoHeight
	e.ensureSurface(st)
	return e.recorder.Start(record.StartParams{
		Audio:         e.audio,
		PCM:           pcm,
		CueCount:      e.CueCount(),
		Sink:          e.capture(st.VideoWidth, st.VideoHeight),
		Width:         st.VideoWidth,
		Height:        st.VideoHeight,
		FPS:           e.fps,
		SampleRate:    e.rate,
		IntroDuration: st.IntroDuration,
		Now:           now,
	})
}

// StopRecording ends an active session and returns the artifact path.
func (e *Engine) StopRecording() (string, error) {
	return e.recorder.Stop()
}

// CancelRecording tears down an active session without an artifact.
func (e *Engine) CancelRecording() { e.recorder.Cancel() }

// Close cancels any active session and releases audio routing.
func (e *Engine) Close() {
	e.recorder.Cancel()
	if e.audio != nil {
		e.audio.Pause()
	}
}

// Frame exposes the most recently composed frame. The buffer is reused
// between ticks.
func (e *Engine) Frame() *image.RGBA {
	if e.surf == nil {
		return nil
	}
	return e.surf.Image()
}

// Tick composes exactly one frame. Within the tick everything derives from a
// single time sample: index lookup, then interpolation, then compositing,
// then capture. The animation clock (AbsoluteTime) keeps advancing even
// while playback is paused.
func (e *Engine) Tick(now time.Time) (State, error) {
	if e.epoch.IsZero() {
		e.epoch = now
		e.lastTick = now
	}
	dt := now.Sub(e.lastTick)
	e.lastTick = now

	st := e.settings
	if e.recorder.Active() {
		st.VideoWidth, st.VideoHeight = e.sessionW, e.sessionH
	}
	e.ensureSurface(st)

	status, err := e.recorder.Tick(now)
	if err != nil {
		return State{}, err
	}

	var t float64
	switch status.Phase {
	case record.PhaseIntro:
		t = 0
	case record.PhaseRecording:
		t = status.Time
	default:
		if e.audio != nil {
			t = e.audio.Position().Seconds()
		}
	}
	abs := now.Sub(e.epoch).Seconds()

	active := 0
	if e.timeline != nil {
		if i := e.timeline.ActiveIndex(t); i > 0 {
			active = i
		}
	}
	smooth := e.scroll.Step(active, dt)

	compose.Render(e.surf, e.timeline, compose.Params{
		Time:          t,
		AbsoluteTime:  abs,
		SmoothIndex:   smooth,
		IsIntro:       status.IsIntro,
		TitleOpacity:  status.TitleOpacity,
		LyricsOpacity: status.LyricsOpacity,
		Cover:         e.cover,
	}, st.style())

	if e.recorder.Active() {
		if err := e.recorder.Capture(e.surf.Image()); err != nil {
			e.log.Warn("capture write failed, aborting session", zap.Error(err))
			e.recorder.Cancel()
			return State{}, err
		}
	}

	return State{
		Time:         t,
		AbsoluteTime: abs,
		SmoothIndex:  smooth,
		ActiveIndex:  active,
		Phase:        string(status.Phase),
		Artifact:     status.Artifact,
	}, nil
}

// ensureSurface keeps the render target matched to the configured output
// resolution.
func (e *Engine) ensureSurface(st Settings) {
	if e.surf != nil {
		w, h := e.surf.Bounds()
		if w == st.VideoWidth && h == st.VideoHeight {
			return
		}
	}
	e.surf = surface.NewSoftware(st.VideoWidth, st.VideoHeight)
}
