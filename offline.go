package lyricframe

import (
	"errors"
	"image"
	"io"
	"math"
	"time"

	"github.com/verset/lyricframe-go/internal/audio"
	"github.com/verset/lyricframe-go/internal/compose"
	"github.com/verset/lyricframe-go/internal/lrc"
	"github.com/verset/lyricframe-go/internal/scroll"
	"github.com/verset/lyricframe-go/internal/surface"
)

// fadeSeconds matches the live session fades: title out at the end of the
// intro, lyrics in at the start of playback.
const fadeSeconds = 0.5

// OfflineInput is everything a non-realtime render needs.
type OfflineInput struct {
	LyricText  string
	AudioName  string // file name; the extension selects the decoder
	AudioData  []byte
	Cover      image.Image // nil for the placeholder panel
	Settings   Settings
	FPS        int
	SampleRate int
}

// RenderVideo composes the full video deterministically at a fixed frame
// step, faster than realtime: the silent title intro first, then the whole
// track with synchronized lyrics, all pushed into sink. Returns the artifact
// path from sink.Finish.
func RenderVideo(in OfflineInput, sink CaptureSession) (string, error) {
	if in.FPS <= 0 {
		return "", errors.New("fps must be positive")
	}
	if in.SampleRate <= 0 {
		return "", errors.New("sample rate must be positive")
	}
	in.Settings.Normalize()
	st := in.Settings

	tl := lrc.Parse(in.LyricText)
	if tl.Len() == 0 {
		return "", errors.New("no lyric cues parsed")
	}
	pcm, duration, err := audio.DecodePCM(in.AudioName, in.AudioData, in.SampleRate)
	if err != nil {
		return "", err
	}

	if err := sink.Start(st.VideoWidth, st.VideoHeight, in.FPS); err != nil {
		return "", err
	}

	surf := surface.NewSoftware(st.VideoWidth, st.VideoHeight)
	style := st.style()
	var smooth scroll.Interpolator
	frameDT := time.Second / time.Duration(in.FPS)
	chunk := in.SampleRate / in.FPS * 4 // s16le stereo bytes per frame
	silence := make([]byte, chunk)

	// Intro: title only, silence keeping the audio track alive.
	introFrames := int(math.Round(st.IntroDuration * float64(in.FPS)))
	for f := 0; f < introFrames; f++ {
		elapsed := float64(f) / float64(in.FPS)
		title := 1.0
		if remaining := st.IntroDuration - elapsed; remaining < fadeSeconds {
			title = remaining / fadeSeconds
		}
		compose.Render(surf, tl, compose.Params{
			AbsoluteTime: elapsed,
			IsIntro:      true,
			TitleOpacity: title,
			Cover:        in.Cover,
		}, style)
		if err := writeCapture(sink, surf.Image(), silence); err != nil {
			sink.Abort()
			return "", err
		}
	}

	// Playback: one frame per fixed step until the track ends.
	totalFrames := int(math.Ceil(duration.Seconds() * float64(in.FPS)))
	buf := make([]byte, chunk)
	for f := 0; f < totalFrames; f++ {
		t := float64(f) / float64(in.FPS)
		lyrics := 1.0
		if t < fadeSeconds {
			lyrics = t / fadeSeconds
		}
		active := tl.ActiveIndex(t)
		if active < 0 {
			active = 0
		}
		sm := smooth.Step(active, frameDT)
		compose.Render(surf, tl, compose.Params{
			Time:          t,
			AbsoluteTime:  st.IntroDuration + t,
			SmoothIndex:   sm,
			LyricsOpacity: lyrics,
			Cover:         in.Cover,
		}, style)

		n, err := io.ReadFull(pcm, buf)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			sink.Abort()
			return "", err
		}
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		if err := writeCapture(sink, surf.Image(), buf); err != nil {
			sink.Abort()
			return "", err
		}
	}

	return sink.Finish()
}

func writeCapture(sink CaptureSession, frame *image.RGBA, pcm []byte) error {
	if err := sink.WriteFrame(frame); err != nil {
		return err
	}
	return sink.WriteAudio(pcm)
}
