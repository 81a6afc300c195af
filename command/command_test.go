package command

import (
	"testing"

	"github.com/flowi-go/flowi/arena"
	"github.com/flowi-go/flowi/color"
	"github.com/flowi-go/flowi/layout"
	"github.com/flowi-go/flowi/text"
)

func noMasks(string) (*text.Mask, bool) { return nil, false }

func TestTranslateEmitsRectForBackgroundColor(t *testing.T) {
	a, err := arena.New(1<<20, false)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	tree := layout.NewTree(a)
	tree.Begin(100, 100)
	tree.BeginBox(layout.Declaration{
		Size:            [2]layout.SizeConfig{{Kind: layout.SizeFixed, Value: 10}, {Kind: layout.SizeFixed, Value: 10}},
		BackgroundColor: color.Linear{R: color.One, A: color.One},
	})
	tree.EndBox()
	layout.Solve(tree)

	cmds := Translate(tree, tree.Root(), noMasks)
	found := false
	for _, c := range cmds {
		if c.Kind == KindRect && c.Color.R == color.One {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a Rect command for the background color")
	}
}

func TestTranslateDropsTextOnCacheMiss(t *testing.T) {
	a, err := arena.New(1<<20, false)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	tree := layout.NewTree(a)
	tree.Begin(100, 100)
	tree.Text("hello", 40, 12)
	layout.Solve(tree)

	cmds := Translate(tree, tree.Root(), noMasks)
	for _, c := range cmds {
		if c.Kind == KindTextBuffer {
			t.Fatal("expected text command to be dropped on a cold cache")
		}
	}
}

func TestTranslateRoundedWhenRadiusSet(t *testing.T) {
	a, err := arena.New(1<<20, false)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	tree := layout.NewTree(a)
	tree.Begin(100, 100)
	tree.BeginBox(layout.Declaration{
		Size:         [2]layout.SizeConfig{{Kind: layout.SizeFixed, Value: 10}, {Kind: layout.SizeFixed, Value: 10}},
		CornerRadius: layout.Corners{4, 4, 4, 4},
	})
	tree.EndBox()
	layout.Solve(tree)

	cmds := Translate(tree, tree.Root(), noMasks)
	found := false
	for _, c := range cmds {
		if c.Kind == KindRectRounded {
			found = true
		}
	}
	if !found {
		t.Fatal("expected RectRounded when any corner radius is set")
	}
}
