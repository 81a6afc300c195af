package text

import (
	"image"
	"image/color"
	"testing"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/flowi-go/flowi/job"
)

// blockFace is a fixed-width mock font.Face: every glyph is a solid
// advance×height opaque block, giving deterministic, easily-checked
// measurements without needing a real font file on disk.
type blockFace struct {
	advance int
	ascent  int
	descent int
}

func (f *blockFace) Close() error { return nil }

func (f *blockFace) Glyph(dot fixed.Point26_6, r rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	if r == ' ' {
		return image.Rectangle{}, nil, image.Point{}, fixed.I(f.advance), false
	}
	x0 := dot.X.Floor()
	y0 := dot.Y.Floor() - f.ascent
	dr := image.Rect(x0, y0, x0+f.advance, y0+f.ascent+f.descent)
	mask := image.NewUniform(color.Opaque)
	return dr, mask, image.Point{}, fixed.I(f.advance), true
}

func (f *blockFace) GlyphBounds(r rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	return fixed.Rectangle26_6{}, fixed.I(f.advance), true
}

func (f *blockFace) GlyphAdvance(r rune) (fixed.Int26_6, bool) {
	return fixed.I(f.advance), true
}

func (f *blockFace) Kern(r0, r1 rune) fixed.Int26_6 { return 0 }

func (f *blockFace) Metrics() font.Metrics {
	return font.Metrics{
		Ascent:  fixed.I(f.ascent),
		Descent: fixed.I(f.descent),
	}
}

func newGenerator() (*Generator, *job.System) {
	js := job.New(2)
	return New(js, 16), js
}

func TestMeasureTextSizeDeterministic(t *testing.T) {
	g, js := newGenerator()
	defer js.Close()
	h := g.LoadFont(&blockFace{advance: 8, ascent: 10, descent: 4}, 14)

	w1, h1, err := g.MeasureTextSize(h, "abc")
	if err != nil {
		t.Fatal(err)
	}
	w2, h2, err := g.MeasureTextSize(h, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if w1 != w2 || h1 != h2 {
		t.Fatalf("measurement not deterministic: (%d,%d) vs (%d,%d)", w1, h1, w2, h2)
	}
	if w1 != 24 {
		t.Fatalf("got width %d, want 24 (3 glyphs * 8px advance)", w1)
	}
	if h1 != 14 {
		t.Fatalf("got height %d, want 14 (ascent+descent)", h1)
	}
}

func TestMeasureTextSizeMultiLine(t *testing.T) {
	g, js := newGenerator()
	defer js.Close()
	h := g.LoadFont(&blockFace{advance: 8, ascent: 10, descent: 4}, 14)

	w, lineH, err := g.MeasureTextSize(h, "ab\nabcd")
	if err != nil {
		t.Fatal(err)
	}
	if w != 32 {
		t.Fatalf("got width %d, want 32 (max of 16,32)", w)
	}
	if lineH != 28 {
		t.Fatalf("got height %d, want 28 (2 lines * 14)", lineH)
	}
}

func TestRasterizeTextCacheMissThenHit(t *testing.T) {
	g, js := newGenerator()
	defer js.Close()
	h := g.LoadFont(&blockFace{advance: 4, ascent: 6, descent: 2}, 10)

	if _, ok := g.RasterizeText(h, "x", 0); ok {
		t.Fatal("expected cache miss on first call")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		g.PumpResults()
		if _, ok := g.RasterizeText(h, "x", 0); ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("mask never became available after pumping results")
}

func TestRasterizeTextDoesNotDoubleSchedule(t *testing.T) {
	g, js := newGenerator()
	defer js.Close()
	h := g.LoadFont(&blockFace{advance: 4, ascent: 6, descent: 2}, 10)

	g.RasterizeText(h, "y", 0)
	g.RasterizeText(h, "y", 0)

	if len(g.pending) != 1 {
		t.Fatalf("expected exactly one pending job, got %d", len(g.pending))
	}
}
