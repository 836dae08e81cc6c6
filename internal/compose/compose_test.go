package compose

import (
	"fmt"
	"image"
	"strings"
	"testing"

	"github.com/verset/lyricframe-go/internal/bokeh"
	"github.com/verset/lyricframe-go/internal/easing"
	"github.com/verset/lyricframe-go/internal/lrc"
	"github.com/verset/lyricframe-go/internal/surface"
)

// recorder is a Surface that logs draw calls instead of producing pixels.
type recorder struct {
	w, h  int
	calls []string
	texts []drawnText
}

type drawnText struct {
	text  string
	cx    float64
	style surface.TextStyle
}

func newRecorder(w, h int) *recorder { return &recorder{w: w, h: h} }

func (r *recorder) Bounds() (int, int) { return r.w, r.h }
func (r *recorder) Clear()             { r.calls = append(r.calls, "clear") }
func (r *recorder) FillVerticalGradient(top, bottom easing.RGB) {
	r.calls = append(r.calls, "gradient")
}
func (r *recorder) DrawBackdrop(img image.Image, blur, alpha float64) {
	r.calls = append(r.calls, fmt.Sprintf("backdrop a=%.2f", alpha))
}
func (r *recorder) DrawParticles(ps []bokeh.Particle) {
	r.calls = append(r.calls, fmt.Sprintf("particles n=%d", len(ps)))
}
func (r *recorder) DrawCover(img image.Image, x, y, size, radius float64) {
	r.calls = append(r.calls, "cover")
}
func (r *recorder) FillRoundedRect(x, y, w, h, radius float64, col easing.RGB, alpha float64) {
	r.calls = append(r.calls, "rect")
}
func (r *recorder) DrawTextCentered(text string, cx, cy float64, style surface.TextStyle) {
	r.calls = append(r.calls, "text:"+text)
	r.texts = append(r.texts, drawnText{text: text, cx: cx, style: style})
}
func (r *recorder) MeasureText(text string, size float64) float64 {
	return float64(len([]rune(text))) * size * 0.55
}

func testStyle() Style {
	return Style{
		Primary:       easing.RGB{R: 255, G: 255, B: 255},
		Secondary:     easing.RGB{R: 120, G: 120, B: 160},
		Background:    easing.RGB{R: 20, G: 20, B: 30},
		FontSize:      40,
		GlowIntensity: 20,
		LyricsXOffset: 45,
		SongTitle:     "Test Song",
		Bokeh:         bokeh.Config{Enabled: true},
	}
}

func testTimeline(n int) *lrc.Timeline {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "[%02d:%02d.00]line %d\n", i/60, i%60, i)
	}
	return lrc.Parse(sb.String())
}

func callIndex(calls []string, prefix string) int {
	for i, c := range calls {
		if strings.HasPrefix(c, prefix) {
			return i
		}
	}
	return -1
}

func TestRenderLayerOrder(t *testing.T) {
	r := newRecorder(1280, 720)
	cover := image.NewRGBA(image.Rect(0, 0, 4, 4))
	Render(r, testTimeline(3), Params{Cover: cover, LyricsOpacity: 1}, testStyle())

	order := []string{"clear", "gradient", "backdrop", "particles", "cover", "text:"}
	prev := -1
	for _, prefix := range order {
		idx := callIndex(r.calls, prefix)
		if idx < 0 {
			t.Fatalf("missing %q in calls %v", prefix, r.calls)
		}
		if idx < prev {
			t.Fatalf("layer %q drawn out of order: %v", prefix, r.calls)
		}
		prev = idx
	}
}

func TestRenderIntroShowsTitleOnly(t *testing.T) {
	r := newRecorder(1280, 720)
	Render(r, testTimeline(3), Params{IsIntro: true, TitleOpacity: 1, LyricsOpacity: 0}, testStyle())
	if callIndex(r.calls, "text:Test Song") < 0 {
		t.Fatalf("title not drawn: %v", r.calls)
	}
	for _, c := range r.calls {
		if strings.HasPrefix(c, "text:line") {
			t.Fatalf("lyric drawn during intro: %v", r.calls)
		}
	}
	if !r.texts[len(r.texts)-1].style.Bold {
		t.Fatal("title should be bold")
	}
}

func TestRenderFallbackTitle(t *testing.T) {
	r := newRecorder(1280, 720)
	st := testStyle()
	st.SongTitle = ""
	Render(r, testTimeline(1), Params{IsIntro: true, TitleOpacity: 1}, st)
	if callIndex(r.calls, "text:Unknown Track") < 0 {
		t.Fatalf("fallback title not drawn: %v", r.calls)
	}
}

func TestRenderPlaybackHidesTitle(t *testing.T) {
	r := newRecorder(1280, 720)
	Render(r, testTimeline(3), Params{LyricsOpacity: 1}, testStyle())
	if callIndex(r.calls, "text:Test Song") >= 0 {
		t.Fatalf("title drawn outside intro: %v", r.calls)
	}
	if callIndex(r.calls, "text:line 0") < 0 {
		t.Fatalf("lyrics not drawn: %v", r.calls)
	}
}

func TestRenderSkipsInvisibleLines(t *testing.T) {
	r := newRecorder(1280, 720)
	Render(r, testTimeline(12), Params{SmoothIndex: 0, LyricsOpacity: 1}, testStyle())
	// alpha = 1 - (d-2)*0.4 falls to <= 0.01 before d=5, so "line 5" must be
	// skipped while "line 4" (alpha 0.2) is still drawn.
	if callIndex(r.calls, "text:line 4") < 0 {
		t.Fatalf("line 4 should be drawn: %v", r.calls)
	}
	if callIndex(r.calls, "text:line 5") >= 0 {
		t.Fatalf("line 5 should be skipped: %v", r.calls)
	}
}

func TestRenderActiveLineStyling(t *testing.T) {
	r := newRecorder(1280, 720)
	st := testStyle()
	Render(r, testTimeline(6), Params{SmoothIndex: 2, LyricsOpacity: 1}, st)
	var active, far *drawnText
	for i := range r.texts {
		switch r.texts[i].text {
		case "line 2":
			active = &r.texts[i]
		case "line 4":
			far = &r.texts[i]
		}
	}
	if active == nil || far == nil {
		t.Fatalf("expected lines 2 and 4 drawn, got %v", r.calls)
	}
	if !active.style.Bold || active.style.Glow <= 0 {
		t.Fatalf("active line must be bold with glow: %+v", active.style)
	}
	if active.style.Color != st.Primary {
		t.Fatalf("active line color = %v, want primary %v", active.style.Color, st.Primary)
	}
	if active.style.Size <= st.FontSize {
		t.Fatalf("active line should be scaled up: %v", active.style.Size)
	}
	if far.style.Bold || far.style.Glow != 0 {
		t.Fatalf("distant line must not be bold/glowing: %+v", far.style)
	}
	if far.style.Color != st.Secondary {
		t.Fatalf("distant line color = %v, want secondary", far.style.Color)
	}
	if far.style.Blur <= 0 {
		t.Fatalf("line at distance 2 should be blurred: %+v", far.style)
	}
}

func TestRenderZeroLyricsOpacity(t *testing.T) {
	r := newRecorder(1280, 720)
	Render(r, testTimeline(3), Params{LyricsOpacity: 0}, testStyle())
	for _, c := range r.calls {
		if strings.HasPrefix(c, "text:line") {
			t.Fatalf("lyrics drawn at zero opacity: %v", r.calls)
		}
	}
}

func TestRenderResolutionIndependentCenter(t *testing.T) {
	// The lyric column center must track the frame width, not a fixed
	// design resolution.
	small := newRecorder(640, 360)
	large := newRecorder(1920, 1080)
	p := Params{SmoothIndex: 0, LyricsOpacity: 1}
	Render(small, testTimeline(1), p, testStyle())
	Render(large, testTimeline(1), p, testStyle())
	if len(small.texts) == 0 || len(large.texts) == 0 {
		t.Fatal("expected lyric text on both surfaces")
	}
	ratio := large.texts[0].cx / small.texts[0].cx
	if ratio < 2.9 || ratio > 3.1 {
		t.Fatalf("text center did not scale with width: ratio %v", ratio)
	}
}

func TestRenderPlaceholderWhenNoCover(t *testing.T) {
	r := newRecorder(1280, 720)
	Render(r, testTimeline(1), Params{LyricsOpacity: 1}, testStyle())
	if callIndex(r.calls, "cover") >= 0 {
		t.Fatalf("cover drawn without an image: %v", r.calls)
	}
	if callIndex(r.calls, "rect") < 0 || callIndex(r.calls, "text:No Cover Art") < 0 {
		t.Fatalf("placeholder tile missing: %v", r.calls)
	}
}

func TestRenderBokehDisabled(t *testing.T) {
	r := newRecorder(1280, 720)
	st := testStyle()
	st.Bokeh.Enabled = false
	Render(r, testTimeline(1), Params{LyricsOpacity: 1}, st)
	if callIndex(r.calls, "particles") >= 0 {
		t.Fatalf("particles drawn while disabled: %v", r.calls)
	}
}
