// Package layout implements the immediate-mode box-tree layout engine of
// spec.md §4.6: a per-frame declaration sequence (begin_box/end_box/text),
// a four-pass constraint solver, signal detection, and persistent per-id
// widget state. Grounded on package arena for the tree's storage (intrusive
// parent/first/last/next, rewound each frame per §9 "Ownership of box
// tree") and on the teacher's rect/input plumbing
// (vendor/github.com/aarzilli/nucular/rect, input.go) for the Signal and
// click-tracking shape.
package layout

import "github.com/flowi-go/flowi/color"

// Axis indexes the two layout dimensions.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// SizeKind selects how a box's size along one axis is determined (§4.6).
type SizeKind int

const (
	SizeFixed SizeKind = iota
	SizeGrow
	SizePercent
	SizeFit
)

// SizeConfig is one axis's sizing declaration.
type SizeConfig struct {
	Kind  SizeKind
	Value float32 // pixels for Fixed, fraction [0,1] for Percent, ignored otherwise
}

// Direction is the axis children are laid out along.
type Direction int

const (
	LeftToRight Direction = iota
	TopToBottom
)

// Align is a single-axis alignment choice.
type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
)

// Rect is an axis-aligned screen-space rectangle in pixels.
type Rect struct {
	X, Y, W, H float32
}

func (r Rect) Contains(px, py float32) bool {
	return px >= r.X && px < r.X+r.W && py >= r.Y && py < r.Y+r.H
}

// Corners holds one value per rounded corner, ordered
// top-left, top-right, bottom-right, bottom-left.
type Corners [4]float32

// Declaration is the per-box configuration application code supplies each
// frame (§4.6 "Input").
type Declaration struct {
	ID   uint64
	Name string

	Size [2]SizeConfig

	PaddingStart, PaddingEnd [2]float32 // per axis: [AxisX] = left/right, [AxisY] = top/bottom
	ChildGap                 float32
	Direction                Direction
	AlignChildren            [2]Align

	CornerRadius Corners
	BorderWidth  float32
	BorderColor  color.Linear

	BackgroundColor color.Linear
	BackgroundImage any // *decode.Image, stored as any so this package does not import decode

	ScrollEnabled [2]bool
	AllowOverflow bool
	Floating      bool
}

// defaultSize fills unset size configs with Fit, the solver's default.
func (d *Declaration) defaultSize() {
	if d.Size[AxisX] == (SizeConfig{}) && d.Size[AxisY] == (SizeConfig{}) {
		d.Size[AxisX] = SizeConfig{Kind: SizeFit}
		d.Size[AxisY] = SizeConfig{Kind: SizeFit}
	}
}
