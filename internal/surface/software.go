package surface

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/verset/lyricframe-go/internal/bokeh"
	"github.com/verset/lyricframe-go/internal/easing"
)

// Glyph metrics of the bitmap face text is rendered with before scaling.
const (
	glyphW      = 7
	glyphH      = 13
	glyphAscent = 11
)

// Software renders frames into an *image.RGBA. It is the renderer behind
// both offline export and the interactive window (which blits the pixels to
// the screen each tick).
type Software struct {
	img  *image.RGBA
	w, h int
}

// NewSoftware creates a software surface of the given size.
func NewSoftware(w, h int) *Software {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Software{img: image.NewRGBA(image.Rect(0, 0, w, h)), w: w, h: h}
}

// Image exposes the backing pixels. The buffer is reused between frames;
// callers that keep a frame (the capture path) must copy it.
func (s *Software) Image() *image.RGBA { return s.img }

func (s *Software) Bounds() (int, int) { return s.w, s.h }

func (s *Software) Clear() {
	pix := s.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = 0
		pix[i+1] = 0
		pix[i+2] = 0
		pix[i+3] = 255
	}
}

func (s *Software) FillVerticalGradient(top, bottom easing.RGB) {
	for y := 0; y < s.h; y++ {
		f := 0.0
		if s.h > 1 {
			f = float64(y) / float64(s.h-1)
		}
		c := easing.LerpColor(top, bottom, f)
		row := s.img.Pix[y*s.img.Stride : y*s.img.Stride+s.w*4]
		for x := 0; x < s.w*4; x += 4 {
			row[x] = c.R
			row[x+1] = c.G
			row[x+2] = c.B
			row[x+3] = 255
		}
	}
}

func (s *Software) DrawBackdrop(src image.Image, blur, alpha float64) {
	if src == nil || alpha <= 0 {
		return
	}
	// Scale cover-fit at quarter resolution: the heavy blur erases the
	// detail anyway and the blur passes get 16x cheaper.
	dw := maxInt(1, s.w/4)
	dh := maxInt(1, s.h/4)
	tmp := image.NewRGBA(image.Rect(0, 0, dw, dh))
	coverScale(tmp, src)
	boxBlur(tmp, int(math.Round(blur/4)))
	full := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
	xdraw.ApproxBiLinear.Scale(full, full.Bounds(), tmp, tmp.Bounds(), xdraw.Src, nil)
	blendOver(s.img, full, easing.Clamp(alpha, 0, 1))
}

func (s *Software) DrawParticles(ps []bokeh.Particle) {
	for _, p := range ps {
		s.drawParticle(p)
	}
}

// drawParticle rasterizes one radial gradient disc with additive blending:
// center alpha fades linearly to zero at the radius, and each channel adds
// into the framebuffer, saturating at 255.
func (s *Software) drawParticle(p bokeh.Particle) {
	if p.Radius <= 0 || p.Alpha <= 0 {
		return
	}
	x0 := maxInt(0, int(p.X-p.Radius))
	x1 := minInt(s.w-1, int(p.X+p.Radius))
	y0 := maxInt(0, int(p.Y-p.Radius))
	y1 := minInt(s.h-1, int(p.Y+p.Radius))
	r2 := p.Radius * p.Radius
	for y := y0; y <= y1; y++ {
		dy := float64(y) - p.Y
		row := s.img.Pix[y*s.img.Stride:]
		for x := x0; x <= x1; x++ {
			dx := float64(x) - p.X
			d2 := dx*dx + dy*dy
			if d2 >= r2 {
				continue
			}
			fall := p.Alpha * (1 - math.Sqrt(d2)/p.Radius)
			i := x * 4
			row[i] = addSat(row[i], p.Color.R, fall)
			row[i+1] = addSat(row[i+1], p.Color.G, fall)
			row[i+2] = addSat(row[i+2], p.Color.B, fall)
		}
	}
}

func (s *Software) DrawCover(src image.Image, x, y, size, cornerRadius float64) {
	// Soft shadow: a darker rounded rect offset behind the panel.
	s.FillRoundedRect(x+6, y+8, size, size, cornerRadius, easing.RGB{R: 0, G: 0, B: 0}, 0.45)
	if src != nil {
		panel := image.NewRGBA(image.Rect(0, 0, int(size), int(size)))
		coverScale(panel, src)
		s.blitRounded(panel, int(x), int(y), cornerRadius)
	}
	s.strokeRoundedRect(x, y, size, size, cornerRadius, easing.RGB{R: 255, G: 255, B: 255}, 0.25)
}

func (s *Software) FillRoundedRect(x, y, w, h, radius float64, col easing.RGB, alpha float64) {
	alpha = easing.Clamp(alpha, 0, 1)
	if alpha == 0 {
		return
	}
	x0 := maxInt(0, int(x))
	y0 := maxInt(0, int(y))
	x1 := minInt(s.w-1, int(x+w))
	y1 := minInt(s.h-1, int(y+h))
	for py := y0; py <= y1; py++ {
		row := s.img.Pix[py*s.img.Stride:]
		for px := x0; px <= x1; px++ {
			if !insideRounded(float64(px)-x, float64(py)-y, w, h, radius) {
				continue
			}
			i := px * 4
			row[i] = mix(row[i], col.R, alpha)
			row[i+1] = mix(row[i+1], col.G, alpha)
			row[i+2] = mix(row[i+2], col.B, alpha)
		}
	}
}

// strokeRoundedRect draws a thin border by filling the outline ring.
func (s *Software) strokeRoundedRect(x, y, w, h, radius float64, col easing.RGB, alpha float64) {
	x0 := maxInt(0, int(x)-1)
	y0 := maxInt(0, int(y)-1)
	x1 := minInt(s.w-1, int(x+w)+1)
	y1 := minInt(s.h-1, int(y+h)+1)
	for py := y0; py <= y1; py++ {
		row := s.img.Pix[py*s.img.Stride:]
		for px := x0; px <= x1; px++ {
			outer := insideRounded(float64(px)-x, float64(py)-y, w, h, radius)
			inner := insideRounded(float64(px)-x-1.5, float64(py)-y-1.5, w-3, h-3, math.Max(0, radius-1.5))
			if !outer || inner {
				continue
			}
			i := px * 4
			row[i] = mix(row[i], col.R, alpha)
			row[i+1] = mix(row[i+1], col.G, alpha)
			row[i+2] = mix(row[i+2], col.B, alpha)
		}
	}
}

// blitRounded copies panel onto the frame at (x, y), clipping pixels outside
// the rounded-corner mask.
func (s *Software) blitRounded(panel *image.RGBA, x, y int, radius float64) {
	pw := panel.Bounds().Dx()
	ph := panel.Bounds().Dy()
	for py := 0; py < ph; py++ {
		dy := y + py
		if dy < 0 || dy >= s.h {
			continue
		}
		srow := panel.Pix[py*panel.Stride:]
		drow := s.img.Pix[dy*s.img.Stride:]
		for px := 0; px < pw; px++ {
			dx := x + px
			if dx < 0 || dx >= s.w {
				continue
			}
			if !insideRounded(float64(px), float64(py), float64(pw), float64(ph), radius) {
				continue
			}
			si := px * 4
			di := dx * 4
			drow[di] = srow[si]
			drow[di+1] = srow[si+1]
			drow[di+2] = srow[si+2]
		}
	}
}

func (s *Software) MeasureText(text string, size float64) float64 {
	return float64(len([]rune(text))) * glyphW * size / glyphH
}

func (s *Software) DrawTextCentered(text string, cx, cy float64, style TextStyle) {
	if text == "" || style.Alpha <= 0 || style.Size <= 0 {
		return
	}
	mask := renderGlyphMask(text, style.Bold)
	scale := style.Size / glyphH
	sw := maxInt(1, int(float64(mask.Bounds().Dx())*scale))
	sh := maxInt(1, int(float64(mask.Bounds().Dy())*scale))
	scaled := image.NewRGBA(image.Rect(0, 0, sw, sh))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), mask, mask.Bounds(), xdraw.Src, nil)

	x := int(cx - float64(sw)/2)
	y := int(cy - float64(sh)/2)

	if style.Glow > 0 {
		halo := cloneRGBA(scaled)
		boxBlur(halo, int(math.Round(style.Glow/3))+1)
		s.compositeMask(halo, x, y, style.Color, style.Alpha*0.8)
	}
	if style.Blur > 0 {
		boxBlur(scaled, int(math.Round(style.Blur)))
	}
	s.compositeMask(scaled, x, y, style.Color, style.Alpha)
}

// renderGlyphMask draws text in white on transparent with the bitmap face.
// Bold is faked by double-striking one pixel to the right.
func renderGlyphMask(text string, bold bool) *image.RGBA {
	runes := []rune(text)
	w := maxInt(1, len(runes)*glyphW+2)
	mask := image.NewRGBA(image.Rect(0, 0, w, glyphH))
	d := font.Drawer{
		Dst:  mask,
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(0, glyphAscent),
	}
	d.DrawString(text)
	if bold {
		d.Dot = fixed.P(1, glyphAscent)
		d.DrawString(text)
	}
	return mask
}

// compositeMask alpha-blends a white-on-transparent glyph mask onto the
// frame, tinted with col and scaled by alpha.
func (s *Software) compositeMask(mask *image.RGBA, x, y int, col easing.RGB, alpha float64) {
	alpha = easing.Clamp(alpha, 0, 1)
	mw := mask.Bounds().Dx()
	mh := mask.Bounds().Dy()
	for py := 0; py < mh; py++ {
		dy := y + py
		if dy < 0 || dy >= s.h {
			continue
		}
		mrow := mask.Pix[py*mask.Stride:]
		drow := s.img.Pix[dy*s.img.Stride:]
		for px := 0; px < mw; px++ {
			dx := x + px
			if dx < 0 || dx >= s.w {
				continue
			}
			a := float64(mrow[px*4+3]) / 255 * alpha
			if a <= 0 {
				continue
			}
			i := dx * 4
			drow[i] = mix(drow[i], col.R, a)
			drow[i+1] = mix(drow[i+1], col.G, a)
			drow[i+2] = mix(drow[i+2], col.B, a)
		}
	}
}

// coverScale scales src into dst preserving aspect ratio, cropping the
// overflow (CSS object-fit: cover).
func coverScale(dst *image.RGBA, src image.Image) {
	sb := src.Bounds()
	dw := dst.Bounds().Dx()
	dh := dst.Bounds().Dy()
	if sb.Dx() == 0 || sb.Dy() == 0 || dw == 0 || dh == 0 {
		return
	}
	srcAspect := float64(sb.Dx()) / float64(sb.Dy())
	dstAspect := float64(dw) / float64(dh)
	crop := sb
	if srcAspect > dstAspect {
		// Source wider: crop left/right.
		cw := int(float64(sb.Dy()) * dstAspect)
		off := (sb.Dx() - cw) / 2
		crop = image.Rect(sb.Min.X+off, sb.Min.Y, sb.Min.X+off+cw, sb.Max.Y)
	} else if srcAspect < dstAspect {
		ch := int(float64(sb.Dx()) / dstAspect)
		off := (sb.Dy() - ch) / 2
		crop = image.Rect(sb.Min.X, sb.Min.Y+off, sb.Max.X, sb.Min.Y+off+ch)
	}
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
}

// boxBlur applies three box passes per axis, a close gaussian approximation.
func boxBlur(img *image.RGBA, radius int) {
	if radius <= 0 {
		return
	}
	for i := 0; i < 3; i++ {
		boxBlurAxis(img, radius, true)
		boxBlurAxis(img, radius, false)
	}
}

func boxBlurAxis(img *image.RGBA, radius int, horizontal bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	outer, inner := h, w
	if !horizontal {
		outer, inner = w, h
	}
	line := make([][4]int, inner)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			x, y := i, o
			if !horizontal {
				x, y = o, i
			}
			p := img.PixOffset(x, y)
			line[i] = [4]int{int(img.Pix[p]), int(img.Pix[p+1]), int(img.Pix[p+2]), int(img.Pix[p+3])}
		}
		for i := 0; i < inner; i++ {
			lo := maxInt(0, i-radius)
			hi := minInt(inner-1, i+radius)
			var sum [4]int
			for j := lo; j <= hi; j++ {
				for c := 0; c < 4; c++ {
					sum[c] += line[j][c]
				}
			}
			n := hi - lo + 1
			x, y := i, o
			if !horizontal {
				x, y = o, i
			}
			p := img.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				img.Pix[p+c] = uint8(sum[c] / n)
			}
		}
	}
}

// blendOver mixes src into dst at the given global alpha.
func blendOver(dst, src *image.RGBA, alpha float64) {
	n := minInt(len(dst.Pix), len(src.Pix))
	for i := 0; i < n; i += 4 {
		dst.Pix[i] = mix(dst.Pix[i], src.Pix[i], alpha)
		dst.Pix[i+1] = mix(dst.Pix[i+1], src.Pix[i+1], alpha)
		dst.Pix[i+2] = mix(dst.Pix[i+2], src.Pix[i+2], alpha)
	}
}

func insideRounded(px, py, w, h, r float64) bool {
	if px < 0 || py < 0 || px > w || py > h {
		return false
	}
	if r <= 0 {
		return true
	}
	r = math.Min(r, math.Min(w, h)/2)
	cx := easing.Clamp(px, r, w-r)
	cy := easing.Clamp(py, r, h-r)
	dx := px - cx
	dy := py - cy
	return dx*dx+dy*dy <= r*r
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out
}

func mix(dst, src uint8, a float64) uint8 {
	return uint8(float64(dst)*(1-a) + float64(src)*a + 0.5)
}

func addSat(dst, src uint8, a float64) uint8 {
	v := int(dst) + int(float64(src)*a+0.5)
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
