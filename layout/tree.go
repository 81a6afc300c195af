package layout

import "github.com/flowi-go/flowi/arena"

const noIndex = -1

// Box is one node of the intrusive box tree (§9 "Ownership of box tree"):
// parent/first/last/next indices into Tree.boxes, plus the declaration that
// produced it and the sizes/rect the solver computes.
type Box struct {
	Decl Declaration

	Parent, FirstChild, LastChild, NextSibling int

	// TextWidth/TextHeight are set for text leaves from a synchronous
	// measurement (§4.5); zero for ordinary boxes.
	TextWidth, TextHeight float32
	IsTextLeaf            bool
	TextContent           string

	// computed holds the solver's working size per axis across passes 1-4;
	// Rect is the pass-5 output.
	computed [2]float32
	Rect     Rect

	ScissorIndex int // index into Tree.scissors, or -1 if not scissored
}

// Tree is one frame's box tree, allocated from an arena that the caller
// rewinds between frames.
type Tree struct {
	boxes    *arena.PodArena[Box]
	stack    []int
	root     int
	scissors []Rect
}

// NewTree creates an empty tree backed by a (the caller is expected to
// Rewind a once per frame before calling NewTree again).
func NewTree(a *arena.Arena) *Tree {
	t := &Tree{boxes: arena.NewPod[Box](a), root: noIndex}
	return t
}

// Begin opens the root box covering (0,0)-(screenW,screenH).
func (t *Tree) Begin(screenW, screenH float32) int {
	decl := Declaration{
		Size: [2]SizeConfig{{Kind: SizeFixed, Value: screenW}, {Kind: SizeFixed, Value: screenH}},
	}
	idx := t.pushBox(decl)
	t.root = idx
	t.stack = []int{idx}
	return idx
}

// BeginBox opens a child box under the current top-of-stack box.
func (t *Tree) BeginBox(decl Declaration) int {
	decl.defaultSize()
	idx := t.pushBox(decl)
	if len(t.stack) > 0 {
		t.attachChild(t.stack[len(t.stack)-1], idx)
	}
	t.stack = append(t.stack, idx)
	return idx
}

// EndBox closes the most recently opened box.
func (t *Tree) EndBox() {
	if len(t.stack) == 0 {
		return
	}
	t.stack = t.stack[:len(t.stack)-1]
}

// Text appends a measured text leaf under the current top-of-stack box.
func (t *Tree) Text(str string, w, h float32) int {
	decl := Declaration{
		Name: str,
		Size: [2]SizeConfig{{Kind: SizeFixed, Value: w}, {Kind: SizeFixed, Value: h}},
	}
	idx := t.pushBox(decl)
	node := t.boxes.At(idx)
	node.IsTextLeaf = true
	node.TextContent = str
	node.TextWidth, node.TextHeight = w, h
	if len(t.stack) > 0 {
		t.attachChild(t.stack[len(t.stack)-1], idx)
	}
	return idx
}

func (t *Tree) pushBox(decl Declaration) int {
	idx := t.boxes.Len()
	box := Box{Decl: decl, Parent: noIndex, FirstChild: noIndex, LastChild: noIndex, NextSibling: noIndex, ScissorIndex: noIndex}
	t.boxes.Push(box)
	return idx
}

func (t *Tree) attachChild(parentIdx, childIdx int) {
	parent := t.boxes.At(parentIdx)
	child := t.boxes.At(childIdx)
	child.Parent = parentIdx
	if parent.FirstChild == noIndex {
		parent.FirstChild = childIdx
	} else {
		t.boxes.At(parent.LastChild).NextSibling = childIdx
	}
	parent.LastChild = childIdx
}

// Box returns a pointer to node i.
func (t *Tree) Box(i int) *Box { return t.boxes.At(i) }

// Len is the number of boxes in the tree.
func (t *Tree) Len() int { return t.boxes.Len() }

// Root returns the root box index.
func (t *Tree) Root() int { return t.root }

// Children returns the child indices of box i, in declaration order.
func (t *Tree) Children(i int) []int {
	var out []int
	for c := t.boxes.At(i).FirstChild; c != noIndex; c = t.boxes.At(c).NextSibling {
		out = append(out, c)
	}
	return out
}
