// Package tile implements the screen's tile grid, command-to-tile binning,
// and the FxHash-style content hash used to skip unchanged tiles (§4.8).
// Grounded on the teacher's command buffer walk
// (vendor/github.com/aarzilli/nucular/command) for the notion of a flat
// command list, generalized to a tiled target with per-tile skip-if-equal
// hashing, which the teacher (a single immediate-mode window blit) has no
// equivalent of.
package tile

import (
	"github.com/flowi-go/flowi/command"
	"github.com/flowi-go/flowi/layout"
)

// Grid is the screen's fixed tile layout, established once at startup
// (§4.8 "Binning"): a regular grid whose last row/column may be smaller
// than tileSize.
type Grid struct {
	ScreenW, ScreenH int
	TileSize         int
	Cols, Rows       int
	Tiles            []Tile
}

// Tile is one tile's binned command indices plus its hash state.
type Tile struct {
	X, Y, W, H int
	Commands   []int
	PrevHash   uint64
	CurHash    uint64
}

// NewGrid lays out tiles covering screenW x screenH at tileSize pixels
// each.
func NewGrid(screenW, screenH, tileSize int) *Grid {
	if tileSize <= 0 {
		tileSize = 64
	}
	cols := (screenW + tileSize - 1) / tileSize
	rows := (screenH + tileSize - 1) / tileSize
	g := &Grid{ScreenW: screenW, ScreenH: screenH, TileSize: tileSize, Cols: cols, Rows: rows}
	g.Tiles = make([]Tile, cols*rows)
	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			x := tx * tileSize
			y := ty * tileSize
			w := tileSize
			if x+w > screenW {
				w = screenW - x
			}
			h := tileSize
			if y+h > screenH {
				h = screenH - y
			}
			g.Tiles[ty*cols+tx] = Tile{X: x, Y: y, W: w, H: h}
		}
	}
	return g
}

func (g *Grid) at(tx, ty int) *Tile { return &g.Tiles[ty*g.Cols+tx] }

// aabbOverlap is the 4-wide SIMD-shaped test of §4.8: negate the max
// components of one box and compare against the other's min/max swizzled
// so overlap reduces to "all four comparisons true". Expressed here as
// plain scalar comparisons — Go has no portable SIMD intrinsic, so the
// shape is kept (four paired compares) rather than the instruction choice
// (see DESIGN.md).
func aabbOverlap(a, b [4]float32) bool {
	// a, b = [minX, minY, maxX, maxY]
	return a[0] < b[2] && b[0] < a[2] && a[1] < b[3] && b[1] < a[3]
}

func rectAABB(r layout.Rect) [4]float32 {
	return [4]float32{r.X, r.Y, r.X + r.W, r.Y + r.H}
}

func tileAABB(t Tile) [4]float32 {
	return [4]float32{float32(t.X), float32(t.Y), float32(t.X + t.W), float32(t.Y + t.H)}
}

// Bin assigns every command's index to every tile whose AABB it overlaps
// (§4.8 "Binning"). Scissor brackets and the Background command (which has
// no geometry of its own beyond the whole screen) are treated as
// full-screen for binning purposes.
func Bin(g *Grid, cmds []command.Command) {
	for i := range g.Tiles {
		g.Tiles[i].Commands = g.Tiles[i].Commands[:0]
	}
	for ci, c := range cmds {
		var box [4]float32
		switch c.Kind {
		case command.KindScissorStart, command.KindScissorEnd, command.KindBackground:
			box = [4]float32{0, 0, float32(g.ScreenW), float32(g.ScreenH)}
		default:
			box = rectAABB(c.Rect)
		}
		for ty := 0; ty < g.Rows; ty++ {
			for tx := 0; tx < g.Cols; tx++ {
				tl := g.at(tx, ty)
				if aabbOverlap(box, tileAABB(*tl)) {
					tl.Commands = append(tl.Commands, ci)
				}
			}
		}
	}
}

// HashTiles folds an FxHash-family hash over each tile's bound command
// sequence (§4.8 "Hashing"), quantizing floats and discriminating by kind
// so structurally-equal commands hash identically across frames.
func HashTiles(g *Grid, cmds []command.Command) {
	for i := range g.Tiles {
		t := &g.Tiles[i]
		t.PrevHash = t.CurHash
		h := fxSeed
		for _, ci := range t.Commands {
			h = fxFoldCommand(h, &cmds[ci])
		}
		t.CurHash = h
	}
}

// Dirty reports whether tile i's content changed since the last hash pass
// (§4.8: "If tile.current_hash == tile.prev_hash, the tile is skipped").
func (g *Grid) Dirty(i int) bool { return g.Tiles[i].CurHash != g.Tiles[i].PrevHash }
