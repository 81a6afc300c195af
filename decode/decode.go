// Package decode turns encoded image bytes (PNG, JPEG, SVG) into the
// runtime's linear Color16 pixel format, then rescales per the three modes
// §4.4 of the spec describes. Grounded on github.com/disintegration/imaging
// for the raster codecs and github.com/srwiley/oksvg +
// github.com/srwiley/rasterx for SVG, both named in SPEC_FULL.md's DOMAIN
// STACK table.
package decode

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/flowi-go/flowi/color"
)

// Format identifies the pixel layout of a DecodedImage. The runtime only
// ever produces Rgba16 (§4.4 "Output contract"); the type exists so callers
// pattern-match rather than assume.
type Format int

const (
	Rgba16 Format = iota
)

// Info carries metadata a caller may want alongside the raw pixels; the
// rasterizer itself only consumes Data/Stride/Width/Height.
type Info struct {
	SourceWidth, SourceHeight int
	HasAlpha                  bool
}

// Image is the decoded result: a contiguous Color16 buffer with a one-pixel
// border on every edge (§4.4 "Output contract"), Repeat-padded so the
// bilinear samplers in package raster never need edge branches.
type Image struct {
	Format        Format
	Width, Height int // content dimensions, excluding the border
	Border        int
	Stride        int // pixels per row, including border on both sides
	Data          []color.Linear
	Info          Info
}

// index returns the border-relative pixel index for content coordinate (x,y).
func (img *Image) index(x, y int) int {
	return (y+img.Border)*img.Stride + (x + img.Border)
}

// At reads a content pixel; x and y may run from -Border to dim+Border-1 to
// reach the padding.
func (img *Image) At(x, y int) color.Linear {
	return img.Data[img.index(x, y)]
}

func (img *Image) set(x, y int, c color.Linear) {
	img.Data[img.index(x, y)] = c
}

// newImage allocates a bordered buffer for a w×h content image.
func newImage(w, h, border int) *Image {
	stride := w + 2*border
	return &Image{
		Width: w, Height: h, Border: border, Stride: stride,
		Data: make([]color.Linear, stride*(h+2*border)),
	}
}

// applyRepeatBorder fills the border ring by clamping to the nearest edge
// pixel, matching spec.md §4.4's "one-pixel Repeat border" for the None
// rescale mode and every sampler's edge behavior.
func (img *Image) applyRepeatBorder() {
	b := img.Border
	if b == 0 {
		return
	}
	clampX := func(x int) int {
		if x < 0 {
			return 0
		}
		if x >= img.Width {
			return img.Width - 1
		}
		return x
	}
	clampY := func(y int) int {
		if y < 0 {
			return 0
		}
		if y >= img.Height {
			return img.Height - 1
		}
		return y
	}
	for y := -b; y < img.Height+b; y++ {
		for x := -b; x < img.Width+b; x++ {
			if x >= 0 && x < img.Width && y >= 0 && y < img.Height {
				continue
			}
			img.set(x, y, img.At(clampX(x), clampY(y)))
		}
	}
}

// fromGoImage converts a decoded image.Image (always 8-bit per channel from
// imaging/oksvg) to a bordered linear Color16 buffer via the sRGB->linear
// table (§4.4 "Decode").
func fromGoImage(src image.Image) (*Image, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("decode: empty image")
	}
	nrgba := imaging.Clone(src) // normalizes any source model to 8-bit NRGBA
	out := newImage(w, h, 1)
	out.Info = Info{SourceWidth: w, SourceHeight: h}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := nrgba.At(x, y).RGBA()
			lr := color.SRGBToLinear(uint8(r >> 8))
			lg := color.SRGBToLinear(uint8(g >> 8))
			lb := color.SRGBToLinear(uint8(b >> 8))
			la := int16(color.One)
			if a != 0xFFFF {
				out.Info.HasAlpha = true
				la = int16(uint32(a) * color.One / 0xFFFF)
			}
			out.set(x, y, color.Linear{R: lr, G: lg, B: lb, A: la}.Premultiply())
		}
	}
	out.applyRepeatBorder()
	return out, nil
}

// DecodePNG decodes PNG bytes to a bordered linear image.
func DecodePNG(data []byte) (*Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: png: %w", err)
	}
	return fromGoImage(img)
}

// DecodeJPEG decodes 8-bit JPEG bytes to a bordered linear image (§4.4:
// "JPEG via an 8-bit-only path" — imaging/image/jpeg only ever produces
// 8-bit-per-channel output, so no depth check is needed beyond the decode
// itself failing on malformed input).
func DecodeJPEG(data []byte) (*Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: jpeg: %w", err)
	}
	return fromGoImage(img)
}

// DecodeSVG rasterizes SVG bytes to a w×h bordered linear image using
// oksvg to parse and rasterx to scan-convert.
func DecodeSVG(data []byte, w, h int) (*Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return fromGoImage(rgba)
}

// RescaleMode selects one of the three rescale behaviors in §4.4.
type RescaleMode int

const (
	RescaleNone RescaleMode = iota
	RescaleToTarget
	RescaleToTargetInteger
)

// RescaleRequest is the opaque driverData payload LoadURLWithDriverData
// passes to the image MemoryDriver (fileorama.ImageDriver) to pick a
// rescale mode without a second round trip.
type RescaleRequest struct {
	Mode    RescaleMode
	Width   int
	Height  int
	Falloff bool
	SVGW    int // SVG target raster size, used only when decoding vectors
	SVGH    int
}

// DecodeAndRescale decodes data then applies req's rescale mode, matching
// §4.4's three variants.
func DecodeAndRescale(data []byte, extHint string, req RescaleRequest) (*Image, error) {
	svgW, svgH := req.SVGW, req.SVGH
	if svgW == 0 {
		svgW = req.Width
	}
	if svgH == 0 {
		svgH = req.Height
	}
	img, err := Decode(data, extHint, svgW, svgH)
	if err != nil {
		return nil, err
	}
	switch req.Mode {
	case RescaleToTarget:
		return ScaleToTarget(img, req.Width, req.Height), nil
	case RescaleToTargetInteger:
		return ScaleToTargetInteger(img, req.Width, req.Height, req.Falloff), nil
	default:
		return WithNoneBorder(img), nil
	}
}

// Decode picks a decoder by sniffing the magic bytes (PNG/JPEG) or, for
// SVG (which has no fixed magic), falls back to the caller-supplied hint.
// w,h are only consulted for SVG, since raster formats carry their own
// dimensions.
func Decode(data []byte, extHint string, w, h int) (*Image, error) {
	switch {
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}):
		return DecodePNG(data)
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return DecodeJPEG(data)
	case extHint == "svg":
		return DecodeSVG(data, w, h)
	default:
		return nil, fmt.Errorf("decode: unrecognized image format (ext hint %q)", extHint)
	}
}
