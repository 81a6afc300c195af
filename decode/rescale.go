package decode

import "github.com/flowi-go/flowi/color"

// q15One is the fixed-point unit used by the rescale samplers (§4.4).
const q15One = 1 << 15

// ScaleToTarget performs the bilinear "sharp" rescale described in §4.4:
// integer-ratio Q15 fixed point, reading through the source's Repeat
// border so edge pixels never need a branch.
func ScaleToTarget(src *Image, ow, oh int) *Image {
	if ow <= 0 || oh <= 0 {
		ow, oh = 1, 1
	}
	out := newImage(ow, oh, 1)
	out.Format = Rgba16
	out.Info = src.Info

	xRatio := (src.Width << 15) / ow
	yRatio := (src.Height << 15) / oh

	for oy := 0; oy < oh; oy++ {
		srcYQ := oy * yRatio
		sy := srcYQ >> 15
		wy := int32(srcYQ & (q15One - 1))
		for ox := 0; ox < ow; ox++ {
			srcXQ := ox * xRatio
			sx := srcXQ >> 15
			wx := int32(srcXQ & (q15One - 1))

			c00 := src.At(sx, sy)
			c10 := src.At(sx+1, sy)
			c01 := src.At(sx, sy+1)
			c11 := src.At(sx+1, sy+1)

			top := lerpLinear(c00, c10, wx)
			bot := lerpLinear(c01, c11, wx)
			out.set(ox, oy, lerpLinear(top, bot, wy))
		}
	}
	out.applyRepeatBorder()
	return out
}

func lerpLinear(a, b color.Linear, w int32) color.Linear {
	return color.Linear{
		R: lerpChannel(a.R, b.R, w),
		G: lerpChannel(a.G, b.G, w),
		B: lerpChannel(a.B, b.B, w),
		A: lerpChannel(a.A, b.A, w),
	}
}

func lerpChannel(a, b int16, w int32) int16 {
	return int16(int32(a) + (((int32(b)-int32(a))*w + q15One/2) >> 15))
}

// ScaleToTargetInteger replicates each source pixel into a k×k block, per
// §4.4: k = max(1, min(ow/sw, oh/sh)). falloff, when true, multiplies each
// output pixel by a corner vignette, matching SPEC_FULL.md supplemented
// feature #4's clamp-to-[0,1] on the multiplier's inputs (drawn from
// original_source's image-scaler/src/lib.rs).
func ScaleToTargetInteger(src *Image, ow, oh int, falloff bool) *Image {
	k := ow / src.Width
	if alt := oh / src.Height; alt < k {
		k = alt
	}
	if k < 1 {
		k = 1
	}
	outW := src.Width * k
	outH := src.Height * k
	out := newImage(outW, outH, 1)
	out.Format = Rgba16
	out.Info = src.Info

	for sy := 0; sy < src.Height; sy++ {
		for sx := 0; sx < src.Width; sx++ {
			c := src.At(sx, sy)
			for dy := 0; dy < k; dy++ {
				oy := sy*k + dy
				for dx := 0; dx < k; dx++ {
					ox := sx*k + dx
					px := c
					if falloff {
						px = applyFalloff(px, ox, oy, outW, outH)
					}
					out.set(ox, oy, px)
				}
			}
		}
	}
	out.applyRepeatBorder()
	return out
}

// applyFalloff multiplies c by ((x/W) * ((H-y)/H)) * One, clamping both
// ratios to [0,1] first so a y at or past H never yields a negative
// multiplier (SPEC_FULL.md supplemented feature #4).
func applyFalloff(c color.Linear, x, y, w, h int) color.Linear {
	fx := clamp01(float64(x) / float64(w))
	fy := clamp01(float64(h-y) / float64(h))
	mul := int32((fx * fy) * color.One)
	return color.Linear{
		R: scaleChannel(c.R, mul),
		G: scaleChannel(c.G, mul),
		B: scaleChannel(c.B, mul),
		A: scaleChannel(c.A, mul),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func scaleChannel(v int16, mul int32) int16 {
	r := (int32(v) * mul) / color.One
	if r > color.One {
		r = color.One
	}
	if r < 0 {
		r = 0
	}
	return int16(r)
}

// WithNoneBorder wraps a freshly decoded image for the "None" rescale mode
// (§4.4): decode already produces the one-pixel Repeat border, so this is
// an identity pass kept for call-site symmetry with the other two modes.
func WithNoneBorder(src *Image) *Image { return src }
