package layout

import (
	"testing"

	"github.com/flowi-go/flowi/arena"
)

func newTestTree(t *testing.T) (*arena.Arena, *Tree) {
	t.Helper()
	a, err := arena.New(1<<20, false)
	if err != nil {
		t.Fatal(err)
	}
	return a, NewTree(a)
}

func TestFixedSizing(t *testing.T) {
	a, tree := newTestTree(t)
	defer a.Close()

	tree.Begin(800, 600)
	tree.BeginBox(Declaration{Size: [2]SizeConfig{{Kind: SizeFixed, Value: 100}, {Kind: SizeFixed, Value: 50}}})
	tree.EndBox()
	Solve(tree)

	child := tree.Box(tree.Children(tree.Root())[0])
	if child.Rect.W != 100 || child.Rect.H != 50 {
		t.Fatalf("got %+v, want 100x50", child.Rect)
	}
}

func TestFitToChildren(t *testing.T) {
	a, tree := newTestTree(t)
	defer a.Close()

	tree.Begin(800, 600)
	parent := tree.BeginBox(Declaration{
		Direction: LeftToRight,
		ChildGap:  10,
		Size:      [2]SizeConfig{{Kind: SizeFit}, {Kind: SizeFit}},
	})
	tree.BeginBox(Declaration{Size: [2]SizeConfig{{Kind: SizeFixed, Value: 20}, {Kind: SizeFixed, Value: 30}}})
	tree.EndBox()
	tree.BeginBox(Declaration{Size: [2]SizeConfig{{Kind: SizeFixed, Value: 40}, {Kind: SizeFixed, Value: 10}}})
	tree.EndBox()
	tree.EndBox()
	Solve(tree)

	p := tree.Box(parent)
	if p.Rect.W != 70 { // 20+40+10 gap
		t.Fatalf("got width %v, want 70", p.Rect.W)
	}
	if p.Rect.H != 30 { // max(30,10)
		t.Fatalf("got height %v, want 30", p.Rect.H)
	}
}

func TestPercentAndGrow(t *testing.T) {
	a, tree := newTestTree(t)
	defer a.Close()

	tree.Begin(800, 600)
	parent := tree.BeginBox(Declaration{
		Direction: LeftToRight,
		Size:      [2]SizeConfig{{Kind: SizeFixed, Value: 400}, {Kind: SizeFixed, Value: 100}},
	})
	tree.BeginBox(Declaration{Size: [2]SizeConfig{{Kind: SizePercent, Value: 0.25}, {Kind: SizeFixed, Value: 50}}})
	tree.EndBox()
	tree.BeginBox(Declaration{Size: [2]SizeConfig{{Kind: SizeGrow}, {Kind: SizeFixed, Value: 50}}})
	tree.EndBox()
	tree.EndBox()
	Solve(tree)

	kids := tree.Children(parent)
	c0 := tree.Box(kids[0])
	c1 := tree.Box(kids[1])
	if c0.Rect.W != 100 {
		t.Fatalf("percent child got %v, want 100", c0.Rect.W)
	}
	if c1.Rect.W != 300 {
		t.Fatalf("grow child got %v, want 300", c1.Rect.W)
	}
}

func TestOverflowShrink(t *testing.T) {
	a, tree := newTestTree(t)
	defer a.Close()

	tree.Begin(800, 600)
	parent := tree.BeginBox(Declaration{
		Direction: LeftToRight,
		Size:      [2]SizeConfig{{Kind: SizeFixed, Value: 100}, {Kind: SizeFixed, Value: 50}},
	})
	tree.BeginBox(Declaration{Size: [2]SizeConfig{{Kind: SizeFixed, Value: 80}, {Kind: SizeFixed, Value: 50}}})
	tree.EndBox()
	tree.BeginBox(Declaration{Size: [2]SizeConfig{{Kind: SizeFixed, Value: 80}, {Kind: SizeFixed, Value: 50}}})
	tree.EndBox()
	tree.EndBox()
	Solve(tree)

	kids := tree.Children(parent)
	var total float32
	for _, k := range kids {
		total += tree.Box(k).Rect.W
	}
	if total > 100.01 {
		t.Fatalf("children overflowed parent: total width %v > 100", total)
	}
}

func TestSignalSequencing(t *testing.T) {
	rect := Rect{X: 100, Y: 100, W: 100, H: 30}
	st := &BoxState{}

	sig1 := ComputeSignal(rect, st, Input{MouseX: 150, MouseY: 115})
	if sig1&SignalHovering == 0 || sig1&SignalEnterHover == 0 {
		t.Fatalf("frame 1: got %b, want HOVERING|ENTER_HOVER", sig1)
	}

	sig2 := ComputeSignal(rect, st, Input{MouseX: 150, MouseY: 115, LeftDown: true, LeftWasDown: false})
	if sig2&SignalHovering == 0 || sig2&SignalLeftClicked == 0 {
		t.Fatalf("frame 2: got %b, want HOVERING|LEFT_CLICKED", sig2)
	}

	sig3 := ComputeSignal(rect, st, Input{MouseX: 50, MouseY: 50, LeftDown: false, LeftWasDown: true})
	if sig3&SignalExitHover == 0 || sig3&SignalLeftReleased == 0 {
		t.Fatalf("frame 3: got %b, want EXIT_HOVER|LEFT_RELEASED", sig3)
	}
}

func TestClickTrackerDoubleClick(t *testing.T) {
	var c ClickTracker
	s1 := c.Register(0.0, 10, 10, 0.3, 5)
	s2 := c.Register(0.1, 11, 11, 0.3, 5)
	if s1 != 1 {
		t.Fatalf("first click streak = %d, want 1", s1)
	}
	if s2 != 2 {
		t.Fatalf("second click streak = %d, want 2 (double click)", s2)
	}
	s3 := c.Register(2.0, 11, 11, 0.3, 5)
	if s3 != 1 {
		t.Fatalf("streak after timeout = %d, want reset to 1", s3)
	}
}

func TestStateTableSweep(t *testing.T) {
	st := NewStateTable()
	a := st.get(1)
	a.LastTouched = 1
	b := st.get(2)
	b.LastTouched = 0

	st.Sweep(1)
	if _, ok := st.entries[1]; !ok {
		t.Fatal("entry touched this frame should survive sweep")
	}
	if _, ok := st.entries[2]; ok {
		t.Fatal("entry not touched this frame should be reclaimed")
	}
}
