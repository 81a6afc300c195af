package tile

import (
	"testing"

	"github.com/flowi-go/flowi/color"
	"github.com/flowi-go/flowi/command"
	"github.com/flowi-go/flowi/layout"
)

func TestGridLastRowColumnSmaller(t *testing.T) {
	g := NewGrid(100, 100, 64)
	if g.Cols != 2 || g.Rows != 2 {
		t.Fatalf("got %dx%d tiles, want 2x2", g.Cols, g.Rows)
	}
	last := g.at(1, 1)
	if last.W != 36 || last.H != 36 {
		t.Fatalf("got last tile %dx%d, want 36x36", last.W, last.H)
	}
}

func TestBinAssignsOnlyOverlappingTiles(t *testing.T) {
	g := NewGrid(128, 128, 64)
	cmds := []command.Command{
		{Kind: command.KindRect, Rect: layout.Rect{X: 0, Y: 0, W: 10, H: 10}},
		{Kind: command.KindRect, Rect: layout.Rect{X: 70, Y: 70, W: 10, H: 10}},
	}
	Bin(g, cmds)

	if len(g.at(0, 0).Commands) != 1 || g.at(0, 0).Commands[0] != 0 {
		t.Fatalf("tile (0,0) commands = %v, want [0]", g.at(0, 0).Commands)
	}
	if len(g.at(1, 1).Commands) != 1 || g.at(1, 1).Commands[0] != 1 {
		t.Fatalf("tile (1,1) commands = %v, want [1]", g.at(1, 1).Commands)
	}
	if len(g.at(1, 0).Commands) != 0 {
		t.Fatalf("tile (1,0) commands = %v, want none", g.at(1, 0).Commands)
	}
}

func TestHashSkipsUnchangedTile(t *testing.T) {
	g := NewGrid(64, 64, 64)
	cmds := []command.Command{
		{Kind: command.KindRect, Rect: layout.Rect{X: 0, Y: 0, W: 10, H: 10}, Color: color.Linear{R: color.One, A: color.One}},
	}
	Bin(g, cmds)
	HashTiles(g, cmds)
	if g.Dirty(0) == false {
		t.Fatal("first hash pass should mark the tile dirty (prev=0, cur=seed fold)")
	}

	Bin(g, cmds)
	HashTiles(g, cmds)
	if g.Dirty(0) {
		t.Fatal("identical content should hash equal across frames and not be dirty")
	}

	cmds[0].Color.R = 0
	Bin(g, cmds)
	HashTiles(g, cmds)
	if !g.Dirty(0) {
		t.Fatal("changed content should be dirty")
	}
}
