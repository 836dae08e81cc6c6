// Package bokeh generates the ambient light-spot overlay. The field is a pure
// function of frame size, absolute time, and config: no stored state, no
// randomness, so identical inputs always reproduce identical particles. That
// property is what keeps recorded output repeatable.
package bokeh

import (
	"math"

	"github.com/verset/lyricframe-go/internal/easing"
)

// Count is the fixed number of particles in the field.
const Count = 15

// Config selects how particles are colored and sized.
type Config struct {
	Enabled   bool
	AutoColor bool       // cycle hue over time instead of using Color
	Color     easing.RGB // fixed color when AutoColor is false
	AutoSize  bool       // oscillate radius inside a frame-relative envelope
	Scale     float64    // 0..100, mapped to a 50..450 px base radius
}

// Particle is one draw command: a radial gradient disc fading from Alpha at
// the center to transparent at Radius, composited additively.
type Particle struct {
	X, Y   float64
	Radius float64
	Alpha  float64
	Color  easing.RGB
}

// Generate returns the particle field for one frame. Particle i is fully
// determined by its index: seed = (i*1337) mod 1000 drives speed and phase,
// and index parity picks the horizontal drift direction.
func Generate(width, height int, absTime float64, cfg Config) []Particle {
	w := float64(width)
	h := float64(height)
	out := make([]Particle, 0, Count)
	for i := 0; i < Count; i++ {
		seed := float64((i * 1337) % 1000)
		speed := 0.15 + (seed/1000)*0.35
		bias := 1.0
		if i%2 == 1 {
			bias = -1.0
		}

		x := w/2 + bias*w*0.38*math.Sin(absTime*speed+seed)
		y := h/2 + h*0.38*math.Cos(absTime*speed*0.8+seed)

		var radius float64
		if cfg.AutoSize {
			// Envelope tied to the frame's short side so the field scales
			// with resolution.
			short := math.Min(w, h)
			minR := short * 0.06
			maxR := short * 0.28
			radius = minR + (maxR-minR)*(0.5+0.5*math.Sin(absTime*speed*0.6+seed))
		} else {
			base := 50 + easing.Clamp(cfg.Scale, 0, 100)/100*400
			radius = base + base*0.05*math.Sin(absTime*0.5+seed)
		}

		alpha := 0.15 + 0.05*math.Sin(absTime*speed*2+seed)

		col := cfg.Color
		if cfg.AutoColor {
			hue := math.Mod(absTime*12+float64(i)*24+seed, 360)
			col = hueToRGB(hue)
		}

		out = append(out, Particle{X: x, Y: y, Radius: radius, Alpha: alpha, Color: col})
	}
	return out
}

// hueToRGB converts a hue in degrees to a fully saturated, half-lightness RGB
// color (the S=1, L=0.5 slice of HSL).
func hueToRGB(hue float64) easing.RGB {
	hp := math.Mod(hue, 360) / 60
	x := 1 - math.Abs(math.Mod(hp, 2)-1)
	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = 1, x, 0
	case hp < 2:
		r, g, b = x, 1, 0
	case hp < 3:
		r, g, b = 0, 1, x
	case hp < 4:
		r, g, b = 0, x, 1
	case hp < 5:
		r, g, b = x, 0, 1
	default:
		r, g, b = 1, 0, x
	}
	return easing.RGB{
		R: uint8(math.Round(r * 255)),
		G: uint8(math.Round(g * 255)),
		B: uint8(math.Round(b * 255)),
	}
}
