package tile

import (
	"fmt"
	"math/bits"

	"github.com/flowi-go/flowi/command"
)

// FxHash-family constants (rustc's rustc-hash crate): a multiplicative
// hash with a rotate-xor-multiply step. Grounded on spec.md §4.8's
// explicit naming of the FxHash family; no Go port of it appears anywhere
// in the retrieval pack, so the folding function is reimplemented directly
// from the published algorithm rather than imported (see DESIGN.md).
const (
	fxSeed  uint64 = 0
	fxConst uint64 = 0x517cc1b727220a95
)

func fxFoldWord(h, word uint64) uint64 {
	return bits.RotateLeft64(h, 5) ^ word*fxConst
}

func fxFoldFloat(h uint64, v float32) uint64 {
	// Quantize by 100x and truncate, per §4.8: "floats are quantized by
	// multiplying by a fixed factor (100.0) and truncating to integer" —
	// this is what makes the hash stable across structurally-equal
	// commands produced by independent float computations.
	q := int64(v * 100.0)
	return fxFoldWord(h, uint64(q))
}

func fxFoldRect(h uint64, r [4]float32) uint64 {
	for _, v := range r {
		h = fxFoldFloat(h, v)
	}
	return h
}

func fxFoldPointer(h uint64, p any) uint64 {
	if p == nil {
		return fxFoldWord(h, 0)
	}
	// Pointers are hashed as usize (§4.8); Go gives no portable numeric
	// pointer value without unsafe per-type plumbing, so the identity is
	// captured via its %p representation instead.
	s := fmt.Sprintf("%p", p)
	var acc uint64
	for i := 0; i < len(s); i++ {
		acc = acc*31 + uint64(s[i])
	}
	return fxFoldWord(h, acc)
}

func fxFoldCommand(h uint64, c *command.Command) uint64 {
	h = fxFoldWord(h, uint64(c.Kind)) // explicit discriminant, per §4.8
	h = fxFoldRect(h, [4]float32{c.Rect.X, c.Rect.Y, c.Rect.W, c.Rect.H})
	h = fxFoldFloat(h, float32(c.Color.R))
	h = fxFoldFloat(h, float32(c.Color.G))
	h = fxFoldFloat(h, float32(c.Color.B))
	h = fxFoldFloat(h, float32(c.Color.A))
	h = fxFoldFloat(h, c.BorderWidth)
	switch c.Kind {
	case command.KindImage:
		h = fxFoldPointer(h, c.Image)
	case command.KindTextBuffer:
		h = fxFoldPointer(h, c.Mask)
	case command.KindBackground:
		h = fxFoldPointer(h, c.BackgroundImage)
	}
	return h
}
