package record

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// videoBitrate targets visual fidelity over size, per the capture contract.
const videoBitrate = "8M"

// FFmpegSession encodes captured frames and PCM into a VP9 webm by shelling
// out to ffmpeg. Frames stream into ffmpeg's stdin as raw RGBA while the PCM
// spools to a side file; Finish muxes the two in a second ffmpeg run.
type FFmpegSession struct {
	ffmpegPath string
	outDir     string
	sampleRate int
	log        *zap.Logger

	w, h, fps int
	cmd       *exec.Cmd
	stdin     *os.File
	stderr    bytes.Buffer
	audioPath string
	videoPath string
	audioFile *os.File
}

// NewFFmpegSession builds a capture session writing its artifact into
// outDir. sampleRate is the rate of the PCM handed to WriteAudio.
func NewFFmpegSession(ffmpegPath, outDir string, sampleRate int, log *zap.Logger) *FFmpegSession {
	if log == nil {
		log = zap.NewNop()
	}
	return &FFmpegSession{ffmpegPath: ffmpegPath, outDir: outDir, sampleRate: sampleRate, log: log}
}

func (s *FFmpegSession) Start(w, h, fps int) error {
	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", s.outDir, err)
	}
	s.w, s.h, s.fps = w, h, fps
	id := uuid.NewString()
	s.videoPath = filepath.Join(s.outDir, "video-"+id+".webm")
	s.audioPath = filepath.Join(s.outDir, "audio-"+id+".pcm")

	af, err := os.Create(s.audioPath)
	if err != nil {
		return fmt.Errorf("create audio spool: %w", err)
	}
	s.audioFile = af

	pr, pw, err := os.Pipe()
	if err != nil {
		af.Close()
		return fmt.Errorf("frame pipe: %w", err)
	}
	cmd := exec.Command(s.ffmpegPath,
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", w, h),
		"-r", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-c:v", "libvpx-vp9",
		"-b:v", videoBitrate,
		"-pix_fmt", "yuv420p",
		s.videoPath,
	)
	cmd.Stdin = pr
	s.stderr.Reset()
	cmd.Stderr = &s.stderr
	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		af.Close()
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	pr.Close()
	s.cmd = cmd
	s.stdin = pw
	s.log.Debug("ffmpeg encoder started",
		zap.String("video", s.videoPath), zap.Int("fps", fps))
	return nil
}

func (s *FFmpegSession) WriteFrame(frame *image.RGBA) error {
	if s.stdin == nil {
		return fmt.Errorf("capture not started")
	}
	b := frame.Bounds()
	if b.Dx() != s.w || b.Dy() != s.h {
		return fmt.Errorf("frame size %dx%d does not match session %dx%d", b.Dx(), b.Dy(), s.w, s.h)
	}
	if frame.Stride == s.w*4 {
		_, err := s.stdin.Write(frame.Pix)
		return err
	}
	for y := 0; y < s.h; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+s.w*4]
		if _, err := s.stdin.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *FFmpegSession) WriteAudio(pcm []byte) error {
	if s.audioFile == nil {
		return fmt.Errorf("capture not started")
	}
	_, err := s.audioFile.Write(pcm)
	return err
}

// Finish closes the frame stream, waits for the encoder, then muxes the
// video with the spooled PCM into the final artifact.
func (s *FFmpegSession) Finish() (string, error) {
	if s.cmd == nil {
		return "", fmt.Errorf("capture not started")
	}
	s.stdin.Close()
	s.audioFile.Close()
	if err := s.cmd.Wait(); err != nil {
		s.cleanup()
		return "", fmt.Errorf("ffmpeg encode: %w\n%s", err, s.stderr.Bytes())
	}

	out := filepath.Join(s.outDir, "lyricframe-"+uuid.NewString()+".webm")
	mux := exec.Command(s.ffmpegPath,
		"-y",
		"-i", s.videoPath,
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", s.sampleRate),
		"-ac", "2",
		"-i", s.audioPath,
		"-c:v", "copy",
		"-c:a", "libopus",
		"-b:a", "192k",
		"-shortest",
		out,
	)
	if muxOut, err := mux.CombinedOutput(); err != nil {
		s.cleanup()
		return "", fmt.Errorf("ffmpeg mux: %w\n%s", err, muxOut)
	}
	s.cleanup()
	s.log.Info("capture artifact written", zap.String("path", out))
	return out, nil
}

// Abort kills the encoder and removes partial files. No artifact survives.
func (s *FFmpegSession) Abort() {
	if s.stdin != nil {
		s.stdin.Close()
	}
	if s.audioFile != nil {
		s.audioFile.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	s.cleanup()
}

func (s *FFmpegSession) cleanup() {
	if s.videoPath != "" {
		os.Remove(s.videoPath)
	}
	if s.audioPath != "" {
		os.Remove(s.audioPath)
	}
	s.cmd = nil
	s.stdin = nil
	s.audioFile = nil
}
