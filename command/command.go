// Package command translates a solved layout.Tree into a flat, painter's
// order stream of render commands (§4.7). Grounded on the teacher's own
// command buffer (vendor/github.com/aarzilli/nucular/command/command.go),
// generalized from nucular's fixed command kinds to the set spec.md names.
package command

import (
	"github.com/flowi-go/flowi/color"
	"github.com/flowi-go/flowi/layout"
	"github.com/flowi-go/flowi/text"
)

// Kind discriminates a Command's payload.
type Kind int

const (
	KindRect Kind = iota
	KindRectRounded
	KindBorder
	KindImage
	KindTextBuffer
	KindScissorStart
	KindScissorEnd
	KindBackground
)

// Command is one draw instruction (§4.7); only the fields relevant to Kind
// are populated.
type Command struct {
	Kind Kind
	Rect layout.Rect

	Color color.Linear

	// RectRounded / Border
	OuterRadius layout.Corners
	InnerRadius layout.Corners
	BorderWidth float32

	// Image
	Image any // *decode.Image, stored as any so this package does not import decode

	// TextBuffer
	Mask *text.Mask

	// Background
	BackgroundImage any // *decode.Image
}

// MaskLookup resolves a text leaf's rasterized mask, mirroring
// text.Generator.RasterizeText's (mask, ok) cache-hit contract.
type MaskLookup func(content string) (*text.Mask, bool)

// Translate walks t in depth-first painter's order starting at root,
// emitting one command per visible box (§4.7). Text leaves whose mask
// cache misses are dropped for this frame rather than emitted with a nil
// mask, per §4.7 ("such commands are dropped for one frame").
func Translate(t *layout.Tree, root int, masks MaskLookup) []Command {
	var out []Command
	translate(t, root, masks, &out)
	return out
}

func translate(t *layout.Tree, idx int, masks MaskLookup, out *[]Command) {
	box := t.Box(idx)
	decl := box.Decl

	scissored := decl.ScrollEnabled[0] || decl.ScrollEnabled[1]
	if scissored {
		*out = append(*out, Command{Kind: KindScissorStart, Rect: box.Rect})
	}

	emitBoxCommands(box, masks, out)

	for c := box.FirstChild; ; {
		if c < 0 {
			break
		}
		translate(t, c, masks, out)
		c = t.Box(c).NextSibling
	}

	if scissored {
		*out = append(*out, Command{Kind: KindScissorEnd})
	}
}

func emitBoxCommands(box *layout.Box, masks MaskLookup, out *[]Command) {
	decl := box.Decl

	if decl.BackgroundImage != nil && box.Parent < 0 {
		// A background pinned to the root box covers the whole screen
		// (§4.7 "A dedicated Background command represents a screen-wide
		// backing image").
		*out = append(*out, Command{Kind: KindBackground, Rect: box.Rect, BackgroundImage: decl.BackgroundImage})
	}

	hasRadius := decl.CornerRadius[0] > 0 || decl.CornerRadius[1] > 0 || decl.CornerRadius[2] > 0 || decl.CornerRadius[3] > 0

	switch {
	case box.IsTextLeaf:
		if mask, ok := masks(box.TextContent); ok {
			*out = append(*out, Command{Kind: KindTextBuffer, Rect: box.Rect, Mask: mask})
		}
	case decl.BackgroundImage != nil && box.Parent >= 0:
		*out = append(*out, Command{Kind: KindImage, Rect: box.Rect, Image: decl.BackgroundImage})
	case hasRadius:
		*out = append(*out, Command{Kind: KindRectRounded, Rect: box.Rect, Color: decl.BackgroundColor, OuterRadius: decl.CornerRadius})
	default:
		if decl.BackgroundColor != (color.Linear{}) {
			*out = append(*out, Command{Kind: KindRect, Rect: box.Rect, Color: decl.BackgroundColor})
		}
	}

	if decl.BorderWidth > 0 {
		inner := decl.CornerRadius
		for i := range inner {
			inner[i] -= decl.BorderWidth
			if inner[i] < 0 {
				inner[i] = 0
			}
		}
		*out = append(*out, Command{
			Kind: KindBorder, Rect: box.Rect, Color: decl.BorderColor,
			OuterRadius: decl.CornerRadius, InnerRadius: inner, BorderWidth: decl.BorderWidth,
		})
	}
}
