// Package color implements the runtime's linear color representation and the
// sRGB<->linear conversion tables used by the rasterizer.
package color

import "math"

// Linear holds four premultiplied 15-bit-linear channels. 0x7FFF is 1.0.
type Linear struct {
	R, G, B, A int16
}

const (
	// One is the fixed-point value representing 1.0 in the 15-bit linear range.
	One = 0x7FFF
	// srgbToLinearBits is the width of the sRGB->linear lookup table index.
	srgbToLinearBits = 8
	// linearToSRGBBits is the width of the linear->sRGB lookup table index.
	linearToSRGBBits = 11
	linearShift       = 15 - linearToSRGBBits
	linearMask        = 1<<linearToSRGBBits - 1
)

// Premultiply scales r,g,b by a/One using a saturating high-multiply, so that
// an opaque source (a == One) is returned unchanged.
func (c Linear) Premultiply() Linear {
	a := int32(c.A)
	return Linear{
		R: mulDiv(c.R, a),
		G: mulDiv(c.G, a),
		B: mulDiv(c.B, a),
		A: c.A,
	}
}

func mulDiv(v int16, a int32) int16 {
	r := (int32(v)*a + One/2) / One
	if r > One {
		r = One
	}
	if r < 0 {
		r = 0
	}
	return int16(r)
}

// srgbToLinearTable maps an 8-bit sRGB channel value to its 15-bit linear
// equivalent. Built once at process start, then treated as immutable.
var srgbToLinearTable [1 << srgbToLinearBits]int16

// linearToSRGBTable maps an 11-bit linear channel value to its 8-bit sRGB
// equivalent.
var linearToSRGBTable [1 << linearToSRGBBits]uint8

func init() {
	for i := range srgbToLinearTable {
		srgbToLinearTable[i] = int16(srgbToLinearExact(float64(i) / 255.0))
	}
	// LinearToSRGB truncates to the 11-bit index, so entry i covers the 16
	// linear values starting at i<<linearShift. Each entry is sampled a quarter
	// of the way into that range: sampling its lowest value would read up to
	// 1.6 steps too dark near black, and index 0 still maps to 0.
	for i := range linearToSRGBTable {
		v := (float64(i<<linearShift) + float64(1<<linearShift)/4) / One
		linearToSRGBTable[i] = uint8(linearToSRGBExact(v)*255.0 + 0.5)
	}
}

func srgbToLinearExact(c float64) float64 {
	var lin float64
	if c <= 0.04045 {
		lin = c / 12.92
	} else {
		lin = math.Pow((c+0.055)/1.055, 2.4)
	}
	return lin * One
}

func linearToSRGBExact(lin float64) float64 {
	if lin <= 0.0031308 {
		return lin * 12.92
	}
	return 1.055*math.Pow(lin, 1.0/2.4) - 0.055
}

// SRGBToLinear converts one 8-bit sRGB channel to the 15-bit linear range.
func SRGBToLinear(v uint8) int16 {
	return srgbToLinearTable[v]
}

// LinearToSRGB converts one linear channel (any sign-extended width) to an
// 8-bit sRGB value by shifting down to 11 bits and masking, per §3.
func LinearToSRGB(v int16) uint8 {
	idx := (int32(v) >> linearShift) & linearMask
	return linearToSRGBTable[idx]
}

// Blend composites src over dst using premultiplied "dst*(1-a) + src".
func Blend(dst, src Linear) Linear {
	inv := int32(One - src.A)
	return Linear{
		R: int16(int32(src.R) + (int32(dst.R)*inv)/One),
		G: int16(int32(src.G) + (int32(dst.G)*inv)/One),
		B: int16(int32(src.B) + (int32(dst.B)*inv)/One),
		A: int16(int32(src.A) + (int32(dst.A)*inv)/One),
	}
}
