// Package compose turns one time sample plus settings into a fully layered
// frame. Render is a pure function of its inputs: it holds no state between
// frames, which keeps recorded output reproducible.
package compose

import (
	"image"
	"math"

	"github.com/verset/lyricframe-go/internal/bokeh"
	"github.com/verset/lyricframe-go/internal/easing"
	"github.com/verset/lyricframe-go/internal/lrc"
	"github.com/verset/lyricframe-go/internal/surface"
)

// backgroundFloor is the fixed dark bottom of the background gradient.
var backgroundFloor = easing.RGB{R: 10, G: 10, B: 18}

const (
	fallbackTitle = "Unknown Track"
	// lineHeightFactor spaces lyric rows relative to the font size.
	lineHeightFactor = 2.2
	// visibleWindow is how many indices either side of the smoothed index
	// still get considered for drawing.
	visibleWindow = 5
	// skipAlpha is the threshold below which a line is not drawn at all.
	skipAlpha = 0.01
)

// Params is the per-tick snapshot the compositor consumes.
type Params struct {
	Time          float64 // playback seconds, drives nothing directly but kept for symmetry
	AbsoluteTime  float64 // wall-clock seconds, drives bokeh motion
	SmoothIndex   float64
	IsIntro       bool
	TitleOpacity  float64
	LyricsOpacity float64
	Cover         image.Image // nil when no cover art is loaded
}

// Style is the resolved visual configuration for one frame. Colors are
// already parsed; ranges are assumed normalized by the caller.
type Style struct {
	Primary       easing.RGB
	Secondary     easing.RGB
	Background    easing.RGB
	FontSize      float64
	GlowIntensity float64
	LyricsXOffset float64 // percent of frame width where the text panel begins
	SongTitle     string
	Bokeh         bokeh.Config
}

// Render draws one complete frame: background gradient, blurred cover
// backdrop, bokeh overlay, cover panel, then either the intro title block or
// the scrolling lyric stack, never both.
func Render(dst surface.Surface, tl *lrc.Timeline, p Params, st Style) {
	w, h := dst.Bounds()
	fw := float64(w)
	fh := float64(h)

	dst.Clear()
	dst.FillVerticalGradient(st.Background, backgroundFloor)

	if p.Cover != nil {
		dst.DrawBackdrop(p.Cover, fw*0.03, 0.15)
	}

	if st.Bokeh.Enabled {
		dst.DrawParticles(bokeh.Generate(w, h, p.AbsoluteTime, st.Bokeh))
	}

	panelX := fw * st.LyricsXOffset / 100
	margin := fw * 0.04
	drawCoverPanel(dst, p.Cover, panelX, fh, margin, st)

	textX := panelX + margin
	textW := fw - textX - margin
	if textW < 1 {
		return
	}
	cx := textX + textW/2

	if p.IsIntro {
		drawTitle(dst, cx, fh/2, textW, p.TitleOpacity, st)
		return
	}
	drawLyricStack(dst, tl, cx, fh/2, textW, p, st)
}

// drawCoverPanel places the square cover-art panel in the left region, or a
// placeholder tile when no image is loaded.
func drawCoverPanel(dst surface.Surface, cover image.Image, panelX, fh, margin float64, st Style) {
	size := math.Min(panelX-margin*2, fh-margin*2)
	if size < 1 {
		return
	}
	x := (panelX - size) / 2
	y := (fh - size) / 2
	radius := size * 0.06
	if cover != nil {
		dst.DrawCover(cover, x, y, size, radius)
		return
	}
	dst.FillRoundedRect(x, y, size, size, radius, easing.RGB{R: 28, G: 28, B: 40}, 1)
	dst.DrawTextCentered("No Cover Art", x+size/2, y+size/2, surface.TextStyle{
		Size:  st.FontSize * 0.6,
		Color: easing.RGB{R: 120, G: 120, B: 140},
		Alpha: 1,
	})
}

// drawTitle renders the intro title block: the song title (or fallback)
// wrapped to the panel width, its wrapped lines centered as a group.
func drawTitle(dst surface.Surface, cx, cy, maxW, opacity float64, st Style) {
	if opacity <= skipAlpha {
		return
	}
	title := st.SongTitle
	if title == "" {
		title = fallbackTitle
	}
	size := st.FontSize * 1.4
	measure := func(s string) float64 { return dst.MeasureText(s, size) }
	lines := easing.WrapText(measure, title, maxW)
	lh := size * 1.3
	top := cy - lh*float64(len(lines)-1)/2
	for i, ln := range lines {
		dst.DrawTextCentered(ln, cx, top+lh*float64(i), surface.TextStyle{
			Size:  size,
			Color: st.Primary,
			Alpha: opacity,
			Glow:  st.GlowIntensity,
			Bold:  true,
		})
	}
}

// drawLyricStack renders every cue within the visible window around the
// smoothed index. Per-line scale, color, alpha, blur, and glow all derive
// from the line's distance to the smoothed index.
func drawLyricStack(dst surface.Surface, tl *lrc.Timeline, cx, cy, maxW float64, p Params, st Style) {
	if tl == nil || tl.Len() == 0 || p.LyricsOpacity <= 0 {
		return
	}
	lineHeight := st.FontSize * lineHeightFactor
	lo := int(math.Ceil(p.SmoothIndex - visibleWindow))
	hi := int(math.Floor(p.SmoothIndex + visibleWindow))
	if lo < 0 {
		lo = 0
	}
	if hi > tl.Len()-1 {
		hi = tl.Len() - 1
	}
	for i := lo; i <= hi; i++ {
		distance := float64(i) - p.SmoothIndex
		abs := math.Abs(distance)

		alpha := 1.0
		if abs > 2 {
			alpha = 1 - (abs-2)*0.4
		}
		alpha *= p.LyricsOpacity
		if alpha <= skipAlpha {
			continue
		}

		scale := 1.0
		if abs < 1 {
			scale = 1 + 0.15*easing.Ease(abs)
		}

		col := st.Secondary
		if abs < 0.6 {
			col = easing.LerpColor(st.Primary, st.Secondary, easing.Clamp(abs*1.667, 0, 1))
		}

		blur := 0.0
		if abs > 1.2 {
			blur = (abs - 1.2) * 2
		}

		glow := 0.0
		bold := false
		if abs < 0.4 {
			glow = st.GlowIntensity * (1 - abs/0.4)
			bold = true
		}

		size := st.FontSize * scale
		measure := func(s string) float64 { return dst.MeasureText(s, size) }
		wrapped := easing.WrapText(measure, tl.Line(i).Text, maxW)
		subLH := size * 1.2
		y := cy + distance*lineHeight
		top := y - subLH*float64(len(wrapped)-1)/2
		for j, ln := range wrapped {
			dst.DrawTextCentered(ln, cx, top+subLH*float64(j), surface.TextStyle{
				Size:  size,
				Color: col,
				Alpha: alpha,
				Glow:  glow,
				Blur:  blur,
				Bold:  bold,
			})
		}
	}
}
