// Package arena implements the virtual-memory-reserved, incrementally
// committed bump allocator the runtime uses for all per-frame state. See
// spec.md §4.1.
package arena

import (
	"fmt"
)

// Error is a typed arena failure, matching spec.md §7's error kinds.
type Error struct {
	Kind   string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func errReserveFailed(detail string) error       { return &Error{"ReserveFailed", detail} }
func errProtectionFailed(detail string) error    { return &Error{"ProtectionFailed", detail} }
func errOutOfReservedMemory() error              { return &Error{Kind: "OutOfReservedMemory"} }
func errTooLargeReserve() error                  { return &Error{Kind: "TooLargeReserve"} }

// DefaultReserve is the default virtual size of a per-arena reservation
// (spec.md §6 configuration table).
const DefaultReserve = 1 << 30 // 1 GiB

// vmRange is one reserved virtual address range: base..base+reserved, with
// committed and pos tracked separately. Invariant: pos <= committed <= reserved.
type vmRange struct {
	mem       []byte // committed+uncommitted reservation, backed by mmap
	reserved  int
	committed int
	pos       int
	pageSize  int
}

// Arena is a pair (current, previous) of virtual memory ranges with a
// rewind discipline. See spec.md §4.1.
type Arena struct {
	current  vmRange
	previous vmRange
	debug    bool
}

// New reserves align_up(reserve, pageSize) bytes of address space without
// committing them. debug enables the PAGE_NOACCESS rewind guard.
func New(reserve int, debug bool) (*Arena, error) {
	if reserve <= 0 {
		return nil, errTooLargeReserve()
	}
	page := pageSize()
	aligned := alignUp(reserve, page)
	if aligned < 0 { // overflow wrapped to a negative int
		return nil, errTooLargeReserve()
	}
	cur, err := reserveRange(aligned, page)
	if err != nil {
		return nil, errReserveFailed(err.Error())
	}
	a := &Arena{current: cur, debug: debug}
	if debug {
		// The debug rewind guard ping-pongs between two independently
		// reserved ranges (spec.md §4.1), so the "previous" side needs its
		// own reservation from the start, not a zero-value placeholder.
		prev, err := reserveRange(aligned, page)
		if err != nil {
			return nil, errReserveFailed(err.Error())
		}
		a.previous = prev
	}
	return a, nil
}

func alignUp(v, align int) int {
	return (v + align - 1) &^ (align - 1)
}

// AllocRaw carves size bytes aligned to alignment from the current position,
// committing whole pages on demand.
func (a *Arena) AllocRaw(size, alignment int) ([]byte, error) {
	r := &a.current
	start := alignUp(r.pos, alignment)
	newPos := start + size
	if newPos > r.committed {
		needed := alignUp(newPos-r.committed, r.pageSize)
		if r.committed+needed > r.reserved {
			return nil, errOutOfReservedMemory()
		}
		if err := commitMemory(r.mem, r.committed, needed); err != nil {
			return nil, errProtectionFailed(err.Error())
		}
		r.committed += needed
	}
	r.pos = newPos
	return r.mem[start:newPos : newPos], nil
}

// Pos returns the arena's current allocation offset.
func (a *Arena) Pos() int { return a.current.pos }

// Committed returns the number of bytes currently committed.
func (a *Arena) Committed() int { return a.current.committed }

// Reserved returns the size of the virtual reservation.
func (a *Arena) Reserved() int { return a.current.reserved }

// Rewind sets pos back to zero. In debug mode it also PAGE_NOACCESS-guards
// the now-dead range and swaps current/previous so the next frame's
// allocations live in a fresh virtual range, per spec.md §4.1 and the Open
// Question in §9: every rewind is treated as invalidating all prior
// pointers, never as a reusable second grace buffer.
func (a *Arena) Rewind() {
	if !a.debug {
		a.current.pos = 0
		return
	}
	dead := a.current
	dead.pos = 0
	if dead.committed > 0 {
		_ = protectNoAccess(dead.mem, dead.committed)
	}
	if a.previous.committed > 0 {
		_ = protectReadWrite(a.previous.mem, a.previous.committed)
	}
	a.current, a.previous = a.previous, dead
}

// Close decommits all owned ranges. The reservation itself is released by
// the platform on process exit; Close does not attempt to unmap.
func (a *Arena) Close() error {
	if err := decommitMemory(a.current.mem, a.current.committed); err != nil {
		return errProtectionFailed(err.Error())
	}
	if a.previous.committed > 0 {
		if err := decommitMemory(a.previous.mem, a.previous.committed); err != nil {
			return errProtectionFailed(err.Error())
		}
	}
	return nil
}
