// Package surface defines the minimal 2D drawing interface the compositor
// renders against, plus a deterministic software implementation. Keeping the
// compositor behind this interface is what lets the same frame logic feed the
// interactive window, the offline renderer, and the capture pipeline.
package surface

import (
	"image"

	"github.com/verset/lyricframe-go/internal/bokeh"
	"github.com/verset/lyricframe-go/internal/easing"
)

// TextStyle carries everything needed to draw one run of text.
type TextStyle struct {
	Size  float64 // glyph height in pixels
	Color easing.RGB
	Alpha float64 // 0..1
	Glow  float64 // glow halo strength in pixels; 0 disables
	Blur  float64 // defocus blur radius in pixels; 0 disables
	Bold  bool
}

// Surface is the drawing target for one composed frame. Implementations must
// be deterministic: the same call sequence produces the same pixels.
type Surface interface {
	// Bounds returns the frame size in pixels.
	Bounds() (w, h int)
	// Clear resets the frame to opaque black.
	Clear()
	// FillVerticalGradient fills the frame top to bottom.
	FillVerticalGradient(top, bottom easing.RGB)
	// DrawBackdrop draws img cover-fit across the whole frame, blurred and
	// faded to alpha, as an ambient wash behind everything else.
	DrawBackdrop(img image.Image, blur, alpha float64)
	// DrawParticles composites the bokeh field additively (lighten).
	DrawParticles(ps []bokeh.Particle)
	// DrawCover draws img cover-fit into a square panel at (x, y) with
	// rounded corners, a soft shadow, and a thin border.
	DrawCover(img image.Image, x, y, size, cornerRadius float64)
	// FillRoundedRect fills a rounded rectangle with col at the given alpha.
	FillRoundedRect(x, y, w, h, radius float64, col easing.RGB, alpha float64)
	// DrawTextCentered draws text horizontally centered on cx with its
	// vertical center at cy.
	DrawTextCentered(text string, cx, cy float64, style TextStyle)
	// MeasureText returns the rendered width of text at the given size.
	MeasureText(text string, size float64) float64
}
