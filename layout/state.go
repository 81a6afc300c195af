package layout

// Signal is a per-box per-frame bitfield describing hover/click edges
// (§4.6 "Signals").
type Signal uint32

const (
	SignalEnterHover Signal = 1 << iota
	SignalExitHover
	SignalHovering
	SignalLeftClicked
	SignalLeftReleased
	SignalRightClicked
	SignalRightReleased
)

// BoxState is the per-id state that must persist across frames even though
// the box tree itself is rewound every frame (§9 "Ownership of box tree"):
// hover flags, the last computed rect, and the frame counter it was last
// touched on so stale entries are identifiable for a bulk sweep.
type BoxState struct {
	LastRect     Rect
	WasHovering  bool
	LastTouched  uint64
	ClickTracker ClickTracker
	ScrollX      float32
	ScrollY      float32
}

// StateTable is the id -> BoxState persistent map (§4.6 "State retention").
// Entries not touched in a frame are reclaimable on bulk rewind; Sweep
// performs that reclaim explicitly rather than relying on a GC-managed
// cache, matching the spec's "kept in an id->state map" wording.
type StateTable struct {
	entries map[uint64]*BoxState
	focusID uint64
}

func NewStateTable() *StateTable {
	return &StateTable{entries: make(map[uint64]*BoxState)}
}

// State returns the persistent state for id, creating an empty entry on
// first use. Exported so package flowi's orchestrator can drive signal
// detection against the previous frame's rect before this frame's layout
// solve has run (§4.10: "Input edge-detection... runs between steps (2) and
// (3) using the previous frame's box rects").
func (s *StateTable) State(id uint64) *BoxState { return s.get(id) }

func (s *StateTable) get(id uint64) *BoxState {
	st, ok := s.entries[id]
	if !ok {
		st = &BoxState{}
		s.entries[id] = st
	}
	return st
}

// Sweep deletes any entry whose LastTouched is older than currentFrame,
// i.e. not touched this frame (§4.6 "entries not touched in a frame are
// reclaimable on bulk rewind").
func (s *StateTable) Sweep(currentFrame uint64) {
	for id, st := range s.entries {
		if st.LastTouched != currentFrame {
			delete(s.entries, id)
		}
	}
}

// SetFocus/Focus manage the single process-scope focus id (§4.6 "Focus id
// is a single process-scope value").
func (s *StateTable) SetFocus(id uint64) { s.focusID = id }
func (s *StateTable) Focus() uint64      { return s.focusID }

// ClickTracker keeps an integer click streak (1=single, 2=double,
// 3+=triple and beyond) per SPEC_FULL.md supplemented feature #5, derived
// from original_source's flowi_core/src/input.rs rather than spec.md's
// simpler boolean double/triple flags.
type ClickTracker struct {
	Streak       int
	LastClickAt  float64 // seconds
	LastX, LastY float32
}

// Register records a click at (t, x, y) and returns the updated streak,
// resetting to 1 if doubleClickTime elapsed or travel exceeded
// distanceThreshold (both supplied by the caller; distanceThreshold is a
// plain distance and is squared here).
func (c *ClickTracker) Register(t float64, x, y float32, doubleClickTime float64, distanceThreshold float32) int {
	dt := t - c.LastClickAt
	dx := x - c.LastX
	dy := y - c.LastY
	distSq := dx*dx + dy*dy
	if c.Streak > 0 && dt <= doubleClickTime && distSq <= distanceThreshold*distanceThreshold {
		c.Streak++
	} else {
		c.Streak = 1
	}
	c.LastClickAt, c.LastX, c.LastY = t, x, y
	return c.Streak
}

// Input is the subset of pointer state the signal pass needs (§4.6
// "Signals").
type Input struct {
	MouseX, MouseY           float32
	LeftDown, RightDown      bool
	LeftWasDown, RightWasDown bool
}

// ComputeSignal derives a box's Signal for this frame from its rect, the
// previous frame's hover state, and the current input, per §4.6 and the
// worked example in spec.md §8 test 6.
func ComputeSignal(rect Rect, st *BoxState, in Input) Signal {
	var sig Signal
	hovering := rect.Contains(in.MouseX, in.MouseY)

	if hovering && !st.WasHovering {
		sig |= SignalEnterHover
	}
	if !hovering && st.WasHovering {
		sig |= SignalExitHover
	}
	if hovering {
		sig |= SignalHovering
	}
	if hovering {
		if in.LeftDown && !in.LeftWasDown {
			sig |= SignalLeftClicked
		}
		if !in.LeftDown && in.LeftWasDown {
			sig |= SignalLeftReleased
		}
		if in.RightDown && !in.RightWasDown {
			sig |= SignalRightClicked
		}
		if !in.RightDown && in.RightWasDown {
			sig |= SignalRightReleased
		}
	} else if !hovering && st.WasHovering {
		// A release that happens after the pointer has already left the box
		// (spec.md §8 test 6, frame 3) is still reported against the box
		// that was hovered on the previous frame.
		if !in.LeftDown && in.LeftWasDown {
			sig |= SignalLeftReleased
		}
		if !in.RightDown && in.RightWasDown {
			sig |= SignalRightReleased
		}
	}

	st.WasHovering = hovering
	st.LastRect = rect
	return sig
}
