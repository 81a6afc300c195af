// Package text implements the dual-state text generator of spec.md §4.5:
// a synchronous measurer usable from the main thread, and an asynchronous
// rasterizer that posts glyph-mask jobs to the job system and caches the
// result. Grounded on the teacher's font plumbing
// (vendor/github.com/aarzilli/nucular/shiny.go's FontWidth/fontWidthCache
// and util.go's FontHeight), generalized from golang.org/x/image/font's
// Drawer to the spec's (font,size,bytes,sub_pixel) cache key and
// hashicorp/golang-lru/v2 in place of the teacher's v1 Cache.
package text

import (
	"fmt"
	"image"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/flowi-go/flowi/color"
	"github.com/flowi-go/flowi/job"
)

// FontHandle identifies a loaded (face, pixel-size) pair.
type FontHandle int

type loadedFont struct {
	face   font.Face
	sizePx int
}

// Mask is a single-channel 15-bit linear glyph-mask buffer: 0 is
// transparent, color.One is fully opaque (§4.5 "Rasterize").
type Mask struct {
	Width, Height int
	Data          []int16
}

type cacheKey struct {
	font     FontHandle
	text     string
	subPixel int
}

// Generator holds the loaded-fonts table shared by the synchronous
// measurer and the asynchronous rasterizer, plus the glyph-mask cache.
type Generator struct {
	mu    sync.RWMutex
	fonts []loadedFont

	jobs    *job.System
	cache   *lru.Cache[cacheKey, *Mask]
	pending map[cacheKey]*job.Handle
}

// New creates a generator backed by jobs for rasterization work and an
// LRU glyph-mask cache of the given capacity.
func New(jobs *job.System, cacheCapacity int) *Generator {
	if cacheCapacity < 1 {
		cacheCapacity = 256 // matches the teacher's fontWidthCacheSize default
	}
	c, _ := lru.New[cacheKey, *Mask](cacheCapacity)
	return &Generator{jobs: jobs, cache: c, pending: make(map[cacheKey]*job.Handle)}
}

// PumpResults drains any rasterize jobs that have finished since the last
// call, moving their masks into the cache. The frame orchestrator calls
// this during its I/O pump step (§4.10 step 2), the same point fileorama's
// ready channels are drained.
func (g *Generator) PumpResults() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, h := range g.pending {
		mask, err, ok := job.TryGetTyped[*Mask](h)
		if !ok {
			continue
		}
		delete(g.pending, key)
		if err != nil {
			continue
		}
		g.cache.Add(key, mask)
	}
}

// LoadFont registers a face at a pixel size and returns its handle.
func (g *Generator) LoadFont(face font.Face, sizePx int) FontHandle {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fonts = append(g.fonts, loadedFont{face: face, sizePx: sizePx})
	return FontHandle(len(g.fonts) - 1)
}

func (g *Generator) lookup(h FontHandle) (loadedFont, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lookupLocked(h)
}

func (g *Generator) lookupLocked(h FontHandle) (loadedFont, error) {
	if int(h) < 0 || int(h) >= len(g.fonts) {
		return loadedFont{}, fmt.Errorf("text: unknown font handle %d", h)
	}
	return g.fonts[h], nil
}

// MeasureTextSize shapes text and returns (max line width, sum of line
// heights), deterministic for identical inputs (§4.5 "Measure").
func (g *Generator) MeasureTextSize(fnt FontHandle, text string) (w, h int, err error) {
	lf, err := g.lookup(fnt)
	if err != nil {
		return 0, 0, err
	}
	lineHeight := lf.face.Metrics().Ascent.Ceil() + lf.face.Metrics().Descent.Ceil()
	drawer := font.Drawer{Face: lf.face}

	lineStart := 0
	lines := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			line := text[lineStart:i]
			lineW := drawer.MeasureString(line).Ceil()
			if lineW > w {
				w = lineW
			}
			lines++
			lineStart = i + 1
		}
	}
	if lines == 0 {
		lines = 1
	}
	h = lines * lineHeight
	return w, h, nil
}

// RasterizeText returns the cached mask for (font, text, subPixel) if
// present. On a cache miss it posts a rasterize job and returns (nil,
// false); callers must tolerate the glyph being unavailable for one frame
// (§4.5 "Rasterize").
func (g *Generator) RasterizeText(fnt FontHandle, text string, subPixel int) (*Mask, bool) {
	key := cacheKey{font: fnt, text: text, subPixel: subPixel}
	if m, ok := g.cache.Get(key); ok {
		return m, true
	}

	g.mu.Lock()
	_, alreadyPending := g.pending[key]
	if alreadyPending {
		g.mu.Unlock()
		return nil, false
	}
	lf, err := g.lookupLocked(fnt)
	if err != nil {
		g.mu.Unlock()
		return nil, false
	}
	h := g.jobs.Schedule(func() (any, error) {
		return rasterizeMask(lf, text, subPixel)
	})
	g.pending[key] = h
	g.mu.Unlock()
	return nil, false
}

// rasterizeMask draws text via the face's glyph images into a tight
// single-line linear-alpha buffer. Multi-line text stacks each line's mask
// vertically at its own ascent+descent.
func rasterizeMask(lf loadedFont, text string, subPixel int) (*Mask, error) {
	metrics := lf.face.Metrics()
	lineHeight := metrics.Ascent.Ceil() + metrics.Descent.Ceil()

	w, totalH, err := measureWithFace(lf, text)
	if err != nil {
		return nil, err
	}
	if w == 0 {
		w = 1
	}
	if totalH == 0 {
		totalH = lineHeight
	}
	mask := &Mask{Width: w, Height: totalH, Data: make([]int16, w*totalH)}

	lineStart := 0
	lineIdx := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			line := text[lineStart:i]
			drawLine(mask, lf, line, lineIdx*lineHeight, metrics.Ascent.Ceil(), subPixel)
			lineIdx++
			lineStart = i + 1
		}
	}
	return mask, nil
}

func measureWithFace(lf loadedFont, text string) (w, h int, err error) {
	metrics := lf.face.Metrics()
	lineHeight := metrics.Ascent.Ceil() + metrics.Descent.Ceil()
	drawer := font.Drawer{Face: lf.face}
	lineStart, lines := 0, 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			lw := drawer.MeasureString(text[lineStart:i]).Ceil()
			if lw > w {
				w = lw
			}
			lines++
			lineStart = i + 1
		}
	}
	if lines == 0 {
		lines = 1
	}
	return w, lines * lineHeight, nil
}

// drawLine walks glyphs via Face.Glyph, converting each glyph's alpha
// coverage to a 15-bit linear value and writing it into mask starting at
// row baselineY-ascent.
func drawLine(mask *Mask, lf loadedFont, line string, rowOffset, ascent, subPixel int) {
	// subPixel is a count of 1/64px steps, the native unit of fixed.Int26_6.
	dot := fixed.P(0, ascent)
	dot.X += fixed.Int26_6(subPixel)
	prev := rune(-1)
	for _, r := range line {
		if prev >= 0 {
			dot.X += lf.face.Kern(prev, r)
		}
		dr, gmask, maskp, advance, ok := lf.face.Glyph(dot, r)
		if ok {
			blitGlyph(mask, dr, gmask, maskp, rowOffset)
		}
		dot.X += advance
		prev = r
	}
}

func blitGlyph(mask *Mask, dr image.Rectangle, gmask image.Image, maskp image.Point, rowOffset int) {
	for y := dr.Min.Y; y < dr.Max.Y; y++ {
		my := y - dr.Min.Y + maskp.Y
		outY := y + rowOffset
		if outY < 0 || outY >= mask.Height {
			continue
		}
		for x := dr.Min.X; x < dr.Max.X; x++ {
			if x < 0 || x >= mask.Width {
				continue
			}
			mx := x - dr.Min.X + maskp.X
			_, _, _, a := gmask.At(mx, my).RGBA()
			v := int16(uint32(a) * color.One / 0xFFFF)
			idx := outY*mask.Width + x
			if v > mask.Data[idx] {
				mask.Data[idx] = v
			}
		}
	}
}
