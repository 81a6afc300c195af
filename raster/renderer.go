package raster

import (
	"github.com/flowi-go/flowi/color"
	"github.com/flowi-go/flowi/command"
	"github.com/flowi-go/flowi/tile"
)

// SoftwareRenderData mirrors the Renderer interface's
// software_renderer_info() result (§6): a view onto the packed sRGB frame.
type SoftwareRenderData struct {
	Buffer        []byte
	Width, Height int
}

// Renderer is the software backend implementing the Renderer interface of
// §6 (render, set_window_size, software_renderer_info) by driving the
// raster kernels over a tile.Grid and skipping tiles whose hash didn't
// change (§4.8, §4.9).
type Renderer struct {
	width, height int
	grid          *tile.Grid
	linear        *Buffer
	srgb          []byte // packed RGB24, row-major
}

// NewRenderer allocates a renderer for a window of the given size, tiled at
// tileSize pixels (§4.8's Grid).
func NewRenderer(width, height, tileSize int) *Renderer {
	r := &Renderer{}
	r.SetWindowSize(width, height, tileSize)
	return r
}

// SetWindowSize rebuilds the tile grid and backing buffers for a new window
// size (§6 "set_window_size").
func (r *Renderer) SetWindowSize(width, height, tileSize int) {
	r.width, r.height = width, height
	r.grid = tile.NewGrid(width, height, tileSize)
	r.linear = newBuffer(width, height)
	r.srgb = make([]byte, width*height*3)
}

// Render bins cmds to tiles, hashes each tile's bound content, and
// rasterizes only the tiles whose hash changed since the last call (§4.9
// step 8, §4.8 "If tile.current_hash == tile.prev_hash, the tile is
// skipped: neither cleared nor redrawn").
func (r *Renderer) Render(cmds []command.Command) {
	tile.Bin(r.grid, cmds)
	tile.HashTiles(r.grid, cmds)

	for i := range r.grid.Tiles {
		t := &r.grid.Tiles[i]
		if !r.grid.Dirty(i) {
			continue
		}
		r.clearTile(t)
		r.rasterizeTile(t, cmds)
		r.packTile(t)
	}
}

func (r *Renderer) clearTile(t *tile.Tile) {
	for y := t.Y; y < t.Y+t.H; y++ {
		row := r.linear.Pixels[y*r.linear.Width+t.X : y*r.linear.Width+t.X+t.W]
		for i := range row {
			row[i] = color.Linear{}
		}
	}
}

func (r *Renderer) rasterizeTile(t *tile.Tile, cmds []command.Command) {
	base := scissor{x0: t.X, y0: t.Y, x1: t.X + t.W, y1: t.Y + t.H}
	clip := newScissorStack(base)
	for _, ci := range t.Commands {
		c := &cmds[ci]
		switch c.Kind {
		case command.KindScissorStart:
			clip.push(c.Rect, r.linear)
		case command.KindScissorEnd:
			clip.pop()
		default:
			renderKind(r.linear, c, clip.current())
		}
	}
}

// packTile converts one tile's linear pixels to 8-bit sRGB and writes them
// into the output frame (§4.9 "Final pack"). The 2-pixels-per-index LUT
// probe of the spec's SIMD description collapses to one table lookup per
// channel per pixel here; the result is identical, the instruction count is
// not (see DESIGN.md).
func (r *Renderer) packTile(t *tile.Tile) {
	for y := t.Y; y < t.Y+t.H; y++ {
		for x := t.X; x < t.X+t.W; x++ {
			c := r.linear.Pixels[y*r.linear.Width+x]
			off := (y*r.width + x) * 3
			r.srgb[off+0] = color.LinearToSRGB(c.R)
			r.srgb[off+1] = color.LinearToSRGB(c.G)
			r.srgb[off+2] = color.LinearToSRGB(c.B)
		}
	}
}

// SoftwareRendererInfo returns a view onto the packed sRGB frame (§6).
func (r *Renderer) SoftwareRendererInfo() SoftwareRenderData {
	return SoftwareRenderData{Buffer: r.srgb, Width: r.width, Height: r.height}
}
