package audio

import (
	"encoding/binary"
	"testing"
)

func TestEncodeWAVS16LEHeader(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767}
	b := EncodeWAVS16LE(samples, 48000, 2)

	if len(b) != 44+len(samples)*2 {
		t.Fatalf("len = %d, want %d", len(b), 44+len(samples)*2)
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint16(b[20:]); got != 1 {
		t.Errorf("format = %d, want 1 (PCM)", got)
	}
	if got := binary.LittleEndian.Uint16(b[22:]); got != 2 {
		t.Errorf("channels = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(b[24:]); got != 48000 {
		t.Errorf("sample rate = %d, want 48000", got)
	}
	if got := binary.LittleEndian.Uint32(b[28:]); got != 48000*4 {
		t.Errorf("byte rate = %d, want %d", got, 48000*4)
	}
	if got := binary.LittleEndian.Uint32(b[40:]); got != uint32(len(samples)*2) {
		t.Errorf("data size = %d, want %d", got, len(samples)*2)
	}
	if got := int16(binary.LittleEndian.Uint16(b[46:])); got != 1000 {
		t.Errorf("second sample = %d, want 1000", got)
	}
}

func TestDecodePCMRoundTrip(t *testing.T) {
	want := []int16{0, 0, 100, -100, 500, -500}
	wav := EncodeWAVS16LE(want, 48000, 2)
	_, d, err := DecodePCM("fixture.wav", wav, 48000)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 3 stereo frames at 48kHz.
	wantDur := float64(len(want)/2) / 48000
	if got := d.Seconds(); got < wantDur*0.9 || got > wantDur*1.1 {
		t.Errorf("duration = %v, want ~%v s", got, wantDur)
	}
}

func TestDecodePCMRejectsUnknownExtension(t *testing.T) {
	if _, _, err := DecodePCM("track.flac", []byte{1, 2, 3}, 48000); err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
}
