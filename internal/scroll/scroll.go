// Package scroll lag-filters the discrete active lyric index into a smooth
// float position driving the visual stack.
package scroll

import (
	"math"
	"time"
)

const (
	// snapDistance treats index jumps beyond this as a user seek: the scroll
	// snaps instead of visibly crawling across many lines.
	snapDistance = 10
	// settleEpsilon kills residual float drift once converged.
	settleEpsilon = 0.001
)

// dampingRate is the exponential convergence constant. It is derived so a
// tick arriving at exactly 60 Hz moves 10% of the remaining distance,
// matching the feel of a fixed-cadence implementation while staying correct
// at any real tick rate: factor = 1 - exp(-rate*dt).
var dampingRate = -60 * math.Log(0.9)

// Interpolator converges a float index toward the discrete active index.
// The zero value is ready to use, starting at index 0.
type Interpolator struct {
	smooth float64
}

// Value returns the current smoothed index.
func (s *Interpolator) Value() float64 { return s.smooth }

// Reset returns the scroll position to index 0. Call when a new timeline
// replaces the old one.
func (s *Interpolator) Reset() { s.smooth = 0 }

// Step advances the smoothed index toward active given the real time elapsed
// since the previous step, and returns the new value.
func (s *Interpolator) Step(active int, dt time.Duration) float64 {
	diff := float64(active) - s.smooth
	abs := math.Abs(diff)
	switch {
	case abs > snapDistance:
		s.smooth = float64(active)
	case abs < settleEpsilon:
		s.smooth = float64(active)
	default:
		if dt < 0 {
			dt = 0
		}
		s.smooth += diff * (1 - math.Exp(-dampingRate*dt.Seconds()))
	}
	return s.smooth
}
