// Package audio wraps the ebiten audio backend behind the small transport
// surface the engine needs: play/pause, a seekable playback clock, and an
// independent decoded PCM stream for the capture path.
package audio

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// bytesPerSample is s16le stereo: 2 bytes x 2 channels.
const bytesPerSample = 4

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// DecodePCM decodes an audio file into a raw s16le stereo stream without
// touching the realtime audio backend. The offline renderer uses this to
// read the track faster than realtime.
func DecodePCM(name string, data []byte, sampleRate int) (io.Reader, time.Duration, error) {
	stream, length, err := decode(strings.ToLower(filepath.Ext(name)), data, sampleRate)
	if err != nil {
		return nil, 0, err
	}
	d := time.Duration(float64(length) / float64(sampleRate*bytesPerSample) * float64(time.Second))
	return stream, d, nil
}

// Player is a Source backed by an ebiten audio player over an in-memory
// decoded track.
type Player struct {
	player     *ebitaudio.Player
	raw        []byte // encoded file bytes, re-decoded for PCM taps
	ext        string
	sampleRate int
	duration   time.Duration
}

// NewPlayer decodes data (mp3, wav, or ogg selected by the name's extension)
// and prepares a paused player at position 0.
func NewPlayer(name string, data []byte, sampleRate int) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(name))
	stream, length, err := decode(ext, data, sampleRate)
	if err != nil {
		return nil, err
	}
	pl, err := ctx.NewPlayer(stream)
	if err != nil {
		return nil, fmt.Errorf("create audio player: %w", err)
	}
	return &Player{
		player:     pl,
		raw:        data,
		ext:        ext,
		sampleRate: sampleRate,
		duration:   time.Duration(float64(length) / float64(sampleRate*bytesPerSample) * float64(time.Second)),
	}, nil
}

func decode(ext string, data []byte, sampleRate int) (io.ReadSeeker, int64, error) {
	r := bytes.NewReader(data)
	switch ext {
	case ".mp3":
		s, err := mp3.DecodeWithSampleRate(sampleRate, r)
		if err != nil {
			return nil, 0, fmt.Errorf("decode mp3: %w", err)
		}
		return s, s.Length(), nil
	case ".wav":
		s, err := wav.DecodeWithSampleRate(sampleRate, r)
		if err != nil {
			return nil, 0, fmt.Errorf("decode wav: %w", err)
		}
		return s, s.Length(), nil
	case ".ogg":
		s, err := vorbis.DecodeWithSampleRate(sampleRate, r)
		if err != nil {
			return nil, 0, fmt.Errorf("decode ogg: %w", err)
		}
		return s, s.Length(), nil
	}
	return nil, 0, fmt.Errorf("unsupported audio format %q", ext)
}

func (p *Player) Play()           { p.player.Play() }
func (p *Player) Pause()          { p.player.Pause() }
func (p *Player) IsPlaying() bool { return p.player.IsPlaying() }

// Position returns what the listener actually hears right now.
func (p *Player) Position() time.Duration { return p.player.Position() }

func (p *Player) SetPosition(d time.Duration) error { return p.player.SetPosition(d) }

func (p *Player) Duration() time.Duration { return p.duration }

func (p *Player) PCMStream() (io.Reader, error) {
	stream, _, err := decode(p.ext, p.raw, p.sampleRate)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// Close releases the underlying player.
func (p *Player) Close() error { return p.player.Close() }
