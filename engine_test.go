package lyricframe

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"testing"
	"time"
)

type fakeAudio struct {
	playing  bool
	pos      time.Duration
	duration time.Duration
	pcm      []byte
}

func (f *fakeAudio) Play()           { f.playing = true }
func (f *fakeAudio) Pause()          { f.playing = false }
func (f *fakeAudio) IsPlaying() bool { return f.playing }
func (f *fakeAudio) SetPosition(d time.Duration) error {
	f.pos = d
	return nil
}
func (f *fakeAudio) Position() time.Duration { return f.pos }
func (f *fakeAudio) Duration() time.Duration { return f.duration }
func (f *fakeAudio) PCMStream() (io.Reader, error) {
	return bytes.NewReader(f.pcm), nil
}

type fakeCapture struct {
	started  bool
	frames   int
	audio    int
	finished bool
	aborted  bool
}

func (f *fakeCapture) Start(w, h, fps int) error { f.started = true; return nil }
func (f *fakeCapture) WriteFrame(frame *image.RGBA) error {
	f.frames++
	return nil
}
func (f *fakeCapture) WriteAudio(pcm []byte) error {
	f.audio++
	return nil
}
func (f *fakeCapture) Finish() (string, error) {
	f.finished = true
	return "fake.webm", nil
}
func (f *fakeCapture) Abort() { f.aborted = true }

// sizedCapture rejects frames that don't match the geometry fixed at Start,
// like the ffmpeg sink does.
type sizedCapture struct {
	fakeCapture
	w, h int
}

func (f *sizedCapture) Start(w, h, fps int) error {
	f.w, f.h = w, h
	return f.fakeCapture.Start(w, h, fps)
}

func (f *sizedCapture) WriteFrame(frame *image.RGBA) error {
	b := frame.Bounds()
	if b.Dx() != f.w || b.Dy() != f.h {
		return fmt.Errorf("frame size %dx%d does not match session %dx%d", b.Dx(), b.Dy(), f.w, f.h)
	}
	return f.fakeCapture.WriteFrame(frame)
}

func smallSettings() Settings {
	s := DefaultSettings()
	s.VideoWidth = 64
	s.VideoHeight = 36
	s.IntroDuration = 0
	return s
}

const testLRC = "[00:10.00]alpha\n[00:20.00]beta\n[00:30.00]gamma\n"

func TestTickWithNothingLoaded(t *testing.T) {
	e := New(WithSettings(smallSettings()))
	st, err := e.Tick(time.Now())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if st.Phase != "idle" || st.Time != 0 {
		t.Fatalf("state = %+v, want idle at t=0", st)
	}
	if e.Frame() == nil {
		t.Fatal("frame should exist after a tick")
	}
	w, h := 0, 0
	if b := e.Frame().Bounds(); b.Dx() > 0 {
		w, h = b.Dx(), b.Dy()
	}
	if w != 64 || h != 36 {
		t.Fatalf("frame size = %dx%d, want 64x36", w, h)
	}
}

func TestTickTracksAudioClock(t *testing.T) {
	e := New(WithSettings(smallSettings()))
	e.LoadLyrics(testLRC)
	au := &fakeAudio{duration: time.Minute, pos: 25 * time.Second}
	e.AttachAudio(au)

	now := time.Now()
	var st State
	var err error
	for i := 0; i < 300; i++ {
		st, err = e.Tick(now.Add(time.Duration(i) * time.Second / 60))
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if st.ActiveIndex != 1 {
		t.Fatalf("active index at 25s = %d, want 1", st.ActiveIndex)
	}
	if st.SmoothIndex != 1 {
		t.Fatalf("smooth index should have settled at 1, got %v", st.SmoothIndex)
	}
	if st.Time != 25 {
		t.Fatalf("tick time = %v, want 25", st.Time)
	}
}

func TestLoadLyricsResetsScroll(t *testing.T) {
	e := New(WithSettings(smallSettings()))
	e.LoadLyrics(testLRC)
	au := &fakeAudio{duration: time.Minute, pos: 35 * time.Second}
	e.AttachAudio(au)
	now := time.Now()
	for i := 0; i < 120; i++ {
		if _, err := e.Tick(now.Add(time.Duration(i) * time.Second / 60)); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}
	if e.scroll.Value() == 0 {
		t.Fatal("scroll should have moved before reload")
	}
	e.LoadLyrics(testLRC)
	if e.scroll.Value() != 0 {
		t.Fatalf("scroll = %v after reload, want 0", e.scroll.Value())
	}
}

func TestStartRecordingRequiresAudioAndCues(t *testing.T) {
	e := New(WithSettings(smallSettings()), WithCaptureFactory(func(w, h int) CaptureSession {
		return &fakeCapture{}
	}))
	if err := e.StartRecording(time.Now()); err == nil {
		t.Fatal("start without audio should fail")
	}
	e.AttachAudio(&fakeAudio{duration: time.Minute})
	if err := e.StartRecording(time.Now()); err == nil {
		t.Fatal("start without cues should fail")
	}
}

func TestRecordingEndToEndZeroIntro(t *testing.T) {
	sink := &fakeCapture{}
	e := New(WithSettings(smallSettings()), WithCaptureFactory(func(w, h int) CaptureSession {
		return sink
	}))
	e.LoadLyrics(testLRC)
	au := &fakeAudio{duration: 2 * time.Second, pcm: bytes.Repeat([]byte{1}, 1<<20)}
	e.AttachAudio(au)

	now := time.Now()
	if err := e.StartRecording(now); err != nil {
		t.Fatalf("start recording: %v", err)
	}
	if !sink.started {
		t.Fatal("sink not started")
	}

	// With a zero-length intro, the first tick must already be recording
	// with audio running.
	st, err := e.Tick(now)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if st.Phase != "recording" {
		t.Fatalf("phase = %q, want recording on first tick", st.Phase)
	}
	if !au.playing {
		t.Fatal("audio should start essentially immediately")
	}
	if sink.frames != 1 || sink.audio != 1 {
		t.Fatalf("sink got %d frames / %d audio chunks, want 1/1", sink.frames, sink.audio)
	}

	// Natural end of audio finalizes the artifact.
	au.pos = au.duration
	st, err = e.Tick(now.Add(3 * time.Second))
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if st.Artifact != "fake.webm" || !sink.finished {
		t.Fatalf("natural end should finalize: %+v", st)
	}
	if e.Recording() {
		t.Fatal("engine should be idle after finalize")
	}
	if au.playing {
		t.Fatal("audio should be paused after finalize")
	}
}

func TestIntroTickShowsTitleNotLyrics(t *testing.T) {
	sink := &fakeCapture{}
	s := smallSettings()
	s.IntroDuration = 2
	e := New(WithSettings(s), WithCaptureFactory(func(w, h int) CaptureSession {
		return sink
	}))
	e.LoadLyrics(testLRC)
	au := &fakeAudio{duration: time.Minute, pos: 42 * time.Second, pcm: make([]byte, 1<<20)}
	e.AttachAudio(au)

	now := time.Now()
	if err := e.StartRecording(now); err != nil {
		t.Fatalf("start: %v", err)
	}
	if au.pos != 0 {
		t.Fatal("starting a session must rewind audio to 0")
	}
	st, err := e.Tick(now.Add(time.Second))
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if st.Phase != "intro" {
		t.Fatalf("phase = %q, want intro", st.Phase)
	}
	if st.Time != 0 {
		t.Fatalf("intro logical time = %v, want 0", st.Time)
	}
	if au.playing {
		t.Fatal("audio must stay paused through the intro")
	}
}

func TestTogglePlayIgnoredWhileRecording(t *testing.T) {
	sink := &fakeCapture{}
	s := smallSettings()
	s.IntroDuration = 5
	e := New(WithSettings(s), WithCaptureFactory(func(w, h int) CaptureSession {
		return sink
	}))
	e.LoadLyrics(testLRC)
	au := &fakeAudio{duration: time.Minute, pcm: make([]byte, 1024)}
	e.AttachAudio(au)
	if err := e.StartRecording(time.Now()); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.TogglePlay()
	if au.playing {
		t.Fatal("transport controls must not leak into an active session")
	}
	e.CancelRecording()
	if !sink.aborted {
		t.Fatal("cancel should abort the sink")
	}
}

func TestResizeDuringRecordingWaitsForIdle(t *testing.T) {
	sink := &sizedCapture{}
	e := New(WithSettings(smallSettings()), WithCaptureFactory(func(w, h int) CaptureSession {
		return sink
	}))
	e.LoadLyrics(testLRC)
	au := &fakeAudio{duration: time.Minute, pcm: make([]byte, 1<<20)}
	e.AttachAudio(au)

	now := time.Now()
	if err := e.StartRecording(now); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.Tick(now); err != nil {
		t.Fatalf("tick: %v", err)
	}

	s := e.Settings()
	s.VideoWidth = 128
	e.UpdateSettings(s)

	// The session keeps its latched geometry; the resize must not abort it.
	if _, err := e.Tick(now.Add(time.Second / 60)); err != nil {
		t.Fatalf("tick after resize: %v", err)
	}
	if sink.aborted {
		t.Fatal("resize mid-session must not abort the capture")
	}
	if sink.frames != 2 {
		t.Fatalf("frames = %d, want 2", sink.frames)
	}
	if b := e.Frame().Bounds(); b.Dx() != 64 {
		t.Fatalf("frame width = %d during session, want 64", b.Dx())
	}

	if _, err := e.StopRecording(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, err := e.Tick(now.Add(time.Second / 30)); err != nil {
		t.Fatalf("tick after stop: %v", err)
	}
	if b := e.Frame().Bounds(); b.Dx() != 128 {
		t.Fatalf("frame width = %d after session, want 128", b.Dx())
	}
}

func TestUpdateSettingsClamps(t *testing.T) {
	e := New()
	s := e.Settings()
	s.FontSize = 500
	s.GlowIntensity = -3
	s.LyricsXOffset = 90
	s.IntroDuration = 3.26
	e.UpdateSettings(s)
	got := e.Settings()
	if got.FontSize != 80 || got.GlowIntensity != 0 || got.LyricsXOffset != 70 {
		t.Fatalf("settings not clamped: %+v", got)
	}
	if got.IntroDuration != 3.5 {
		t.Fatalf("intro duration = %v, want snapped to 3.5", got.IntroDuration)
	}
}
