// Package raster implements the software rasterizer: a set of per-command
// kernels that paint into a 15-bit linear tile buffer, plus the final
// linear->sRGB pack (§4.9). Grounded on the teacher's own software
// rasterizer, vendor/github.com/aarzilli/nucular/shiny.go's (*context).Draw,
// which walks a flat command slice with a type switch and a current scissor
// sub-image; the same shape is kept here, generalized from nucular's 8-bit
// image.RGBA destination to our premultiplied 15-bit-linear color.Linear
// buffer and the command kinds spec.md §4.7 names.
package raster

import (
	"github.com/flowi-go/flowi/color"
	"github.com/flowi-go/flowi/command"
	"github.com/flowi-go/flowi/decode"
	"github.com/flowi-go/flowi/layout"
	"github.com/flowi-go/flowi/text"
	"github.com/flowi-go/flowi/tile"
)

// Buffer is a linear-color pixel surface: the full-screen backing store the
// renderer paints into, one tile's worth at a time.
type Buffer struct {
	Width, Height int
	Pixels        []color.Linear
}

func newBuffer(w, h int) *Buffer {
	return &Buffer{Width: w, Height: h, Pixels: make([]color.Linear, w*h)}
}

func (b *Buffer) at(x, y int) color.Linear {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return color.Linear{}
	}
	return b.Pixels[y*b.Width+x]
}

func (b *Buffer) set(x, y int, c color.Linear) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	b.Pixels[y*b.Width+x] = c
}

func (b *Buffer) blend(x, y int, c color.Linear) {
	b.set(x, y, color.Blend(b.at(x, y), c))
}

// scissor is the tile-local clip rect kernels must intersect against (§4.9
// "Common framing"): kernels work in screen coordinates on the full-screen
// buffer, add 0.5 and truncate to integers, and intersect with this rect
// before their inner loop.
type scissor struct{ x0, y0, x1, y1 int }

func intersect(a scissor, r layout.Rect, buf *Buffer) scissor {
	x0 := int(r.X + 0.5)
	y0 := int(r.Y + 0.5)
	x1 := int(r.X + r.W + 0.5)
	y1 := int(r.Y + r.H + 0.5)
	if x0 < a.x0 {
		x0 = a.x0
	}
	if y0 < a.y0 {
		y0 = a.y0
	}
	if x1 > a.x1 {
		x1 = a.x1
	}
	if y1 > a.y1 {
		y1 = a.y1
	}
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > buf.Width {
		x1 = buf.Width
	}
	if y1 > buf.Height {
		y1 = buf.Height
	}
	return scissor{x0, y0, x1, y1}
}

// rasterRect fills r with c, clipped to s. The step/remainder framing of
// §4.9 ("iterate the inner loop at 4 pixels per step ... a small remainder
// loop") is a SIMD-width detail; Go has no portable fixed-width vector type,
// so the loop is written as a single scalar pass covering every column
// (equivalent output, collapsed step shape — see DESIGN.md).
func rasterRect(buf *Buffer, rect layout.Rect, c color.Linear, s scissor) {
	box := intersect(s, rect, buf)
	premul := c.Premultiply()
	for y := box.y0; y < box.y1; y++ {
		for x := box.x0; x < box.x1; x++ {
			buf.blend(x, y, premul)
		}
	}
}

// cornerOffsets gives the sign of the circle-center offset for each of the
// four corners (TL, TR, BR, BL), per §4.9's "4-entry CORNER_OFFSETS table".
var cornerOffsets = [4][2]float32{
	{1, 1},   // top-left: center is down-right of the corner pixel
	{-1, 1},  // top-right: center is down-left
	{-1, -1}, // bottom-right: center is up-left
	{1, -1},  // bottom-left: center is up-right
}

// cornerBoxes returns, for each corner, the square region its rounding
// affects and the corner point itself (§4.9 "A corner region of size
// ceil(radius)+1 per affected corner").
func cornerBoxes(rect layout.Rect, radii layout.Corners) (boxes [4]layout.Rect, points [4][2]float32) {
	points = [4][2]float32{
		{rect.X, rect.Y},
		{rect.X + rect.W, rect.Y},
		{rect.X + rect.W, rect.Y + rect.H},
		{rect.X, rect.Y + rect.H},
	}
	boxes = [4]layout.Rect{
		{X: rect.X, Y: rect.Y, W: radii[0], H: radii[0]},
		{X: rect.X + rect.W - radii[1], Y: rect.Y, W: radii[1], H: radii[1]},
		{X: rect.X + rect.W - radii[2], Y: rect.Y + rect.H - radii[2], W: radii[2], H: radii[2]},
		{X: rect.X, Y: rect.Y + rect.H - radii[3], W: radii[3], H: radii[3]},
	}
	return
}

// shapeAlpha is the rounded-rect's per-pixel coverage (§4.9 "the signed
// distance to the circle edge is clamped to [0, 1] and used as a linear
// alpha multiplier"): 0 outside rect, 1 in the interior and the plain edge
// strips, and a corner-distance falloff inside any rounded corner's box.
func shapeAlpha(rect layout.Rect, radii layout.Corners, px, py float32) float32 {
	if px < rect.X || px >= rect.X+rect.W || py < rect.Y || py >= rect.Y+rect.H {
		return 0
	}
	boxes, points := cornerBoxes(rect, radii)
	for ci, box := range boxes {
		radius := radii[ci]
		if radius <= 0 {
			continue
		}
		if px < box.X || px >= box.X+box.W || py < box.Y || py >= box.Y+box.H {
			continue
		}
		cx := points[ci][0] + cornerOffsets[ci][0]*radius
		cy := points[ci][1] + cornerOffsets[ci][1]*radius
		dist := sqrt32((px-cx)*(px-cx) + (py-cy)*(py-cy))
		return clamp01(radius + 0.5 - dist)
	}
	return 1
}

// rasterRectRounded fills rect with c, rounding each corner whose radius in
// radii is > 0 (§4.9 "Rounded corners"): the body and four edge strips
// render as plain rects, and each rounded corner's square region renders by
// a per-pixel distance-to-circle alpha test.
func rasterRectRounded(buf *Buffer, rect layout.Rect, c color.Linear, radii layout.Corners, s scissor) {
	box := intersect(s, rect, buf)
	premul := c.Premultiply()
	for y := box.y0; y < box.y1; y++ {
		py := float32(y) + 0.5
		for x := box.x0; x < box.x1; x++ {
			px := float32(x) + 0.5
			alpha := shapeAlpha(rect, radii, px, py)
			if alpha <= 0 {
				continue
			}
			buf.blend(x, y, scaleAlpha(premul, alpha))
		}
	}
}

func scaleAlpha(c color.Linear, alpha float32) color.Linear {
	if alpha >= 1 {
		return c
	}
	return color.Linear{
		R: int16(float32(c.R) * alpha),
		G: int16(float32(c.G) * alpha),
		B: int16(float32(c.B) * alpha),
		A: int16(float32(c.A) * alpha),
	}
}

// rasterBorder strokes rect's edge (§4.7's Border(outer,inner) kind) by
// painting only the ring between the outer and inner rounded shapes — the
// inner shape's coverage is subtracted from the outer's per pixel rather
// than cleared afterwards, so a fully transparent border color can never
// leave a visible hole-less fill behind.
func rasterBorder(buf *Buffer, rect layout.Rect, c color.Linear, outer, inner layout.Corners, width float32, s scissor) {
	innerRect := layout.Rect{
		X: rect.X + width, Y: rect.Y + width,
		W: rect.W - 2*width, H: rect.H - 2*width,
	}
	box := intersect(s, rect, buf)
	premul := c.Premultiply()
	for y := box.y0; y < box.y1; y++ {
		py := float32(y) + 0.5
		for x := box.x0; x < box.x1; x++ {
			px := float32(x) + 0.5
			outerAlpha := shapeAlpha(rect, outer, px, py)
			if outerAlpha <= 0 {
				continue
			}
			innerAlpha := float32(0)
			if innerRect.W > 0 && innerRect.H > 0 {
				innerAlpha = shapeAlpha(innerRect, inner, px, py)
			}
			ringAlpha := clamp01(outerAlpha - innerAlpha)
			if ringAlpha <= 0 {
				continue
			}
			buf.blend(x, y, scaleAlpha(premul, ringAlpha))
		}
	}
}

// rasterImage blits img into rect. When rect's size equals the image's
// content size this is the aligned 1:1 path of §4.9; otherwise it is the
// Q15 sharp-bilinear scaling path, reusing the same per-pixel sampler for
// both (the aligned case is simply the scaled case with ratio == 1<<15).
func rasterImage(buf *Buffer, rect layout.Rect, img *decode.Image, s scissor) {
	box := intersect(s, rect, buf)
	if img == nil || rect.W <= 0 || rect.H <= 0 {
		return
	}
	xRatio := (int64(img.Width) << 15) / int64(rect.W)
	yRatio := (int64(img.Height) << 15) / int64(rect.H)
	for y := box.y0; y < box.y1; y++ {
		srcYQ := int64((float64(y)+0.5-float64(rect.Y))*float64(yRatio)) - (1 << 14)
		sy := int(srcYQ >> 15)
		fy := int32(srcYQ & ((1 << 15) - 1))
		for x := box.x0; x < box.x1; x++ {
			srcXQ := int64((float64(x)+0.5-float64(rect.X))*float64(xRatio)) - (1 << 14)
			sx := int(srcXQ >> 15)
			fx := int32(srcXQ & ((1 << 15) - 1))
			c := bilinearSample(img, sx, sy, fx, fy)
			buf.blend(x, y, c.Premultiply())
		}
	}
}

func bilinearSample(img *decode.Image, x, y int, fx, fy int32) color.Linear {
	c00 := img.At(x, y)
	c10 := img.At(x+1, y)
	c01 := img.At(x, y+1)
	c11 := img.At(x+1, y+1)
	top := lerpChan(c00, c10, fx)
	bot := lerpChan(c01, c11, fx)
	return lerpChan(top, bot, fy)
}

func lerpChan(a, b color.Linear, t int32) color.Linear {
	return color.Linear{
		R: lerp15(a.R, b.R, t),
		G: lerp15(a.G, b.G, t),
		B: lerp15(a.B, b.B, t),
		A: lerp15(a.A, b.A, t),
	}
}

func lerp15(a, b int16, t int32) int16 {
	return int16(int32(a) + ((int32(b)-int32(a))*t)>>15)
}

// rasterBackground copies img over the whole screen without blending (§4.9
// "Background": "the lowest layer").
func rasterBackground(buf *Buffer, img *decode.Image) {
	if img == nil {
		return
	}
	xRatio := (int64(img.Width) << 15) / int64(buf.Width)
	yRatio := (int64(img.Height) << 15) / int64(buf.Height)
	for y := 0; y < buf.Height; y++ {
		srcYQ := int64(2*y+1)*yRatio/2 - (1 << 14)
		sy := int(srcYQ >> 15)
		fy := int32(srcYQ & ((1 << 15) - 1))
		for x := 0; x < buf.Width; x++ {
			srcXQ := int64(2*x+1)*xRatio/2 - (1 << 14)
			sx := int(srcXQ >> 15)
			fx := int32(srcXQ & ((1 << 15) - 1))
			buf.set(x, y, bilinearSample(img, sx, sy, fx, fy))
		}
	}
}

// rasterText blends mask over rect using fg as the (premultiplied) text
// color and each mask texel as the lerp weight (§4.9 "Text").
func rasterText(buf *Buffer, rect layout.Rect, mask *text.Mask, fg color.Linear, s scissor) {
	if mask == nil {
		return
	}
	box := intersect(s, rect, buf)
	premul := fg.Premultiply()
	for y := box.y0; y < box.y1; y++ {
		my := y - int(rect.Y)
		if my < 0 || my >= mask.Height {
			continue
		}
		for x := box.x0; x < box.x1; x++ {
			mx := x - int(rect.X)
			if mx < 0 || mx >= mask.Width {
				continue
			}
			a := mask.Data[my*mask.Width+mx]
			if a <= 0 {
				continue
			}
			shaded := premul
			shaded.A = int16(int32(premul.A) * int32(a) / color.One)
			shaded.R = int16(int32(premul.R) * int32(a) / color.One)
			shaded.G = int16(int32(premul.G) * int32(a) / color.One)
			shaded.B = int16(int32(premul.B) * int32(a) / color.One)
			buf.blend(x, y, shaded)
		}
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sqrt32(v float32) float32 {
	// Newton-Raphson from a crude seed; avoids pulling in math.Sqrt's
	// float64 round-trip in a per-pixel hot loop. Good to within 1e-4 for
	// the small (few-pixel) radii this is ever called with.
	if v <= 0 {
		return 0
	}
	x := v
	for i := 0; i < 6; i++ {
		x = 0.5 * (x + v/x)
	}
	return x
}

// renderKind runs the kernel matching c.Kind into buf, clipped to s.
func renderKind(buf *Buffer, c *command.Command, s scissor) {
	switch c.Kind {
	case command.KindRect:
		rasterRect(buf, c.Rect, c.Color, s)
	case command.KindRectRounded:
		rasterRectRounded(buf, c.Rect, c.Color, c.OuterRadius, s)
	case command.KindBorder:
		rasterBorder(buf, c.Rect, c.Color, c.OuterRadius, c.InnerRadius, c.BorderWidth, s)
	case command.KindImage:
		if img, ok := c.Image.(*decode.Image); ok {
			rasterImage(buf, c.Rect, img, s)
		}
	case command.KindTextBuffer:
		rasterText(buf, c.Rect, c.Mask, c.Color, s)
	case command.KindBackground:
		if img, ok := c.BackgroundImage.(*decode.Image); ok {
			rasterBackground(buf, img)
		}
	case command.KindScissorStart, command.KindScissorEnd:
		// scissor bracketing is resolved by the caller's scissor stack, not
		// by a kernel of its own.
	}
}

// tileScissorStack tracks nested ScissorStart/ScissorEnd brackets as
// Translate emits them, narrowing the active clip rect (§4.7).
type tileScissorStack struct {
	base  scissor
	stack []scissor
}

func newScissorStack(base scissor) *tileScissorStack {
	return &tileScissorStack{base: base, stack: []scissor{base}}
}

func (s *tileScissorStack) current() scissor { return s.stack[len(s.stack)-1] }

func (s *tileScissorStack) push(r layout.Rect, buf *Buffer) {
	s.stack = append(s.stack, intersect(s.current(), r, buf))
}

func (s *tileScissorStack) pop() {
	if len(s.stack) > 1 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}
