// Package easing holds the pure numeric helpers shared by the compositor:
// color parsing and blending, cosine easing, and greedy word wrap.
package easing

import (
	"math"
	"strings"
)

// RGB is an 8-bit-per-channel color triple.
type RGB struct {
	R, G, B uint8
}

// HexToRGB parses a 3- or 6-digit hex color, with or without a leading '#'.
// Anything unparseable yields white so a bad user color never aborts a frame.
func HexToRGB(hex string) RGB {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return RGB{255, 255, 255}
	}
	var out [3]uint8
	for i := 0; i < 3; i++ {
		hi, ok1 := hexDigit(s[i*2])
		lo, ok2 := hexDigit(s[i*2+1])
		if !ok1 || !ok2 {
			return RGB{255, 255, 255}
		}
		out[i] = hi<<4 | lo
	}
	return RGB{out[0], out[1], out[2]}
}

func hexDigit(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

// LerpColor blends a toward b by factor f (clamped to [0,1]), rounding each
// channel to the nearest integer.
func LerpColor(a, b RGB, f float64) RGB {
	f = Clamp(f, 0, 1)
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*f))
	}
	return RGB{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B)}
}

// Ease is the cosine falloff used for the active-line scale bump:
// 1 at distance 0, 0 at distance >= 1, smooth in between.
func Ease(d float64) float64 {
	if d < 0 {
		d = -d
	}
	if d > 1 {
		d = 1
	}
	return (1 + math.Cos(math.Pi*d)) / 2
}

// WrapText splits text into lines no wider than maxWidth under the given
// measure function. The wrap is greedy by word; a single word wider than
// maxWidth is kept whole on its own line.
func WrapText(measure func(string) float64, text string, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	lines := make([]string, 0, 2)
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if measure(candidate) < maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
