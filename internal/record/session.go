// Package record drives a capture session through its phases: a silent
// titled intro, synchronized recording, and finalization. The controller owns
// the phase; everything else (audio transport, capture sink) is a
// collaborator it sequences.
package record

import (
	"errors"
	"image"
	"io"
	"time"

	"go.uber.org/zap"
)

// Phase is the recording state. Transitions only happen inside the
// controller.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseIntro     Phase = "intro"
	PhaseRecording Phase = "recording"
)

// fadeSeconds is the length of the title fade-out at the end of the intro
// and of the lyric fade-in at the start of recording.
const fadeSeconds = 0.5

// Transport is the slice of the audio player the controller needs.
type Transport interface {
	Play()
	Pause()
	SetPosition(time.Duration) error
	Position() time.Duration
	Duration() time.Duration
}

// CaptureSession receives rendered frames and interleaved PCM and produces a
// single artifact on Finish. Implementations must tolerate Abort at any
// point after Start.
type CaptureSession interface {
	Start(w, h, fps int) error
	WriteFrame(frame *image.RGBA) error
	WriteAudio(pcm []byte) error
	Finish() (string, error)
	Abort()
}

// Status is what one controller tick tells the renderer.
type Status struct {
	Phase         Phase
	IsIntro       bool
	TitleOpacity  float64
	LyricsOpacity float64
	// Time is the logical playback time in seconds (0 during the intro).
	Time float64
	// Artifact is set on the tick that finalized the session (natural end).
	Artifact string
}

// Controller is the recording state machine. Not safe for concurrent use;
// the engine ticks it from a single loop.
type Controller struct {
	log   *zap.Logger
	phase Phase

	sink  CaptureSession
	audio Transport
	pcm   io.Reader // independent decoded stream feeding the capture track

	introStart    time.Time
	introDuration float64
	bytesPerFrame int
	silence       []byte
}

// NewController returns an idle controller.
func NewController(log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{log: log, phase: PhaseIdle}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Active reports whether a session is in progress.
func (c *Controller) Active() bool { return c.phase != PhaseIdle }

// StartParams bundles everything a session needs at start time.
type StartParams struct {
	Audio         Transport
	PCM           io.Reader // decoded s16le stereo stream for the capture track
	CueCount      int
	Sink          CaptureSession
	Width, Height int
	FPS           int
	SampleRate    int
	IntroDuration float64
	Now           time.Time
}

// Start begins a session: rewind and pause audio, mark the intro start, and
// open the capture sink. The sink's audio track is kept alive through the
// silent intro by synthetic silence written every tick. If the sink fails to
// start, the attempt aborts and the controller stays idle.
func (c *Controller) Start(p StartParams) error {
	if c.phase != PhaseIdle {
		return errors.New("recording already in progress")
	}
	if p.Audio == nil {
		return errors.New("no audio loaded")
	}
	if p.CueCount < 1 {
		return errors.New("no lyrics loaded")
	}
	if p.Sink == nil {
		return errors.New("no capture sink")
	}
	if p.FPS <= 0 || p.SampleRate <= 0 {
		return errors.New("invalid fps or sample rate")
	}

	if err := p.Audio.SetPosition(0); err != nil {
		return err
	}
	p.Audio.Pause()

	if err := p.Sink.Start(p.Width, p.Height, p.FPS); err != nil {
		c.log.Warn("capture start failed", zap.Error(err))
		return err
	}

	c.sink = p.Sink
	c.audio = p.Audio
	c.pcm = p.PCM
	c.introStart = p.Now
	c.introDuration = p.IntroDuration
	c.bytesPerFrame = p.SampleRate / p.FPS * 4 // s16le stereo
	c.silence = make([]byte, c.bytesPerFrame)
	c.phase = PhaseIntro
	c.log.Info("recording session started",
		zap.Int("width", p.Width), zap.Int("height", p.Height),
		zap.Float64("intro_seconds", p.IntroDuration))
	return nil
}

// Tick advances the phase machine using a single time sample and returns the
// render parameters for this frame. A zero-length intro transitions to
// recording on its first tick. Natural end of audio finalizes the session
// and reports the artifact in the returned status.
func (c *Controller) Tick(now time.Time) (Status, error) {
	switch c.phase {
	case PhaseIdle:
		return Status{Phase: PhaseIdle, LyricsOpacity: 1}, nil

	case PhaseIntro:
		elapsed := now.Sub(c.introStart).Seconds()
		if elapsed >= c.introDuration {
			c.audio.Play()
			c.phase = PhaseRecording
			c.log.Info("intro finished, audio started")
			return c.recordingStatus(), nil
		}
		title := 1.0
		if remaining := c.introDuration - elapsed; remaining < fadeSeconds {
			title = remaining / fadeSeconds
		}
		return Status{Phase: PhaseIntro, IsIntro: true, TitleOpacity: title}, nil

	case PhaseRecording:
		if c.audio.Position() >= c.audio.Duration() {
			artifact, err := c.Stop()
			if err != nil {
				return Status{Phase: PhaseIdle, LyricsOpacity: 1}, err
			}
			return Status{Phase: PhaseIdle, LyricsOpacity: 1, Artifact: artifact}, nil
		}
		return c.recordingStatus(), nil
	}
	return Status{Phase: c.phase}, nil
}

func (c *Controller) recordingStatus() Status {
	pos := c.audio.Position().Seconds()
	lyrics := 1.0
	if pos < fadeSeconds {
		lyrics = pos / fadeSeconds
	}
	return Status{Phase: PhaseRecording, LyricsOpacity: lyrics, Time: pos}
}

// Capture pushes the composed frame plus one frame's worth of audio into the
// sink: zeros during the intro (the keep-alive silence signal), decoded
// music once recording. Call once per tick while a session is active.
func (c *Controller) Capture(frame *image.RGBA) error {
	if c.phase == PhaseIdle || c.sink == nil {
		return nil
	}
	if err := c.sink.WriteFrame(frame); err != nil {
		return err
	}
	if c.phase == PhaseIntro || c.pcm == nil {
		return c.sink.WriteAudio(c.silence)
	}
	buf := make([]byte, c.bytesPerFrame)
	n, err := io.ReadFull(c.pcm, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return err
	}
	// Pad the tail with silence so the audio track never starves.
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return c.sink.WriteAudio(buf)
}

// Stop ends the session from any active phase, finalizes the artifact, and
// releases the audio routing. Safe to call when idle (no-op).
func (c *Controller) Stop() (string, error) {
	if c.phase == PhaseIdle {
		return "", nil
	}
	sink := c.sink
	c.release()
	artifact, err := sink.Finish()
	if err != nil {
		c.log.Warn("capture finalize failed", zap.Error(err))
		return "", err
	}
	c.log.Info("recording finalized", zap.String("artifact", artifact))
	return artifact, nil
}

// Cancel tears the session down without producing an artifact.
func (c *Controller) Cancel() {
	if c.phase == PhaseIdle {
		return
	}
	sink := c.sink
	c.release()
	sink.Abort()
	c.log.Info("recording cancelled")
}

// release detaches collaborators and returns to idle. The audio is paused so
// manual playback control returns to the transport.
func (c *Controller) release() {
	c.audio.Pause()
	c.phase = PhaseIdle
	c.sink = nil
	c.audio = nil
	c.pcm = nil
	c.silence = nil
}
