package arena

import "unsafe"

// TypedArena enforces a single element type T over an underlying Arena and
// exposes push/pop/index, per spec.md §4.1.
type TypedArena[T any] struct {
	a     *Arena
	count int
}

// NewTyped wraps an existing Arena as a single-type typed arena.
func NewTyped[T any](a *Arena) *TypedArena[T] {
	return &TypedArena[T]{a: a}
}

func sizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func alignOf[T any]() int {
	var zero T
	return int(unsafe.Alignof(zero))
}

// Push allocates space for one T, zero-initializes it, copies v in, and
// returns a pointer into arena-owned memory.
func (t *TypedArena[T]) Push(v T) (*T, error) {
	raw, err := t.a.AllocRaw(sizeOf[T](), alignOf[T]())
	if err != nil {
		return nil, err
	}
	p := (*T)(unsafe.Pointer(&raw[0]))
	*p = v
	t.count++
	return p, nil
}

// Pop removes the most recently pushed element by rewinding the arena
// position by one element's size. It is only safe when Push was the last
// allocation made on the underlying arena.
func (t *TypedArena[T]) Pop() {
	if t.count == 0 {
		return
	}
	t.a.current.pos -= sizeOf[T]()
	t.count--
}

// At returns a pointer to the i'th pushed element.
func (t *TypedArena[T]) At(i int) *T {
	if i < 0 || i >= t.count {
		panic("arena: index out of range")
	}
	sz := sizeOf[T]()
	base := uintptr(unsafe.Pointer(&t.a.current.mem[0]))
	return (*T)(unsafe.Pointer(base + uintptr(i*sz)))
}

// Len reports how many elements have been pushed since the last rewind.
func (t *TypedArena[T]) Len() int { return t.count }

// PodArena additionally supports LastOrDefault, for plain-old-data element
// types that are safe to zero-initialize and copy.
type PodArena[T any] struct {
	TypedArena[T]
}

// NewPod wraps an existing Arena as a POD arena.
func NewPod[T any](a *Arena) *PodArena[T] {
	return &PodArena[T]{TypedArena: TypedArena[T]{a: a}}
}

// LastOrDefault returns the last pushed element, or the zero value of T if
// nothing has been pushed.
func (p *PodArena[T]) LastOrDefault() T {
	if p.count == 0 {
		var zero T
		return zero
	}
	return *p.At(p.count - 1)
}

// VecArena is a growable stack sharing the underlying arena; unlike
// TypedArena it keeps its own backing slice so it can grow by reallocating
// out of the arena (the arena itself never frees individual elements, but a
// VecArena may abandon an old backing allocation when it outgrows it).
type VecArena[T any] struct {
	a    *Arena
	data []T
}

// NewVec creates a growable stack of T backed by a.
func NewVec[T any](a *Arena) *VecArena[T] {
	return &VecArena[T]{a: a}
}

// Push appends v, growing the backing allocation out of the arena if
// necessary.
func (v *VecArena[T]) Push(item T) error {
	if len(v.data) == cap(v.data) {
		newCap := 8
		if cap(v.data) > 0 {
			newCap = cap(v.data) * 2
		}
		raw, err := v.a.AllocRaw(newCap*sizeOf[T](), alignOf[T]())
		if err != nil {
			return err
		}
		newData := unsafe.Slice((*T)(unsafe.Pointer(&raw[0])), newCap)
		copy(newData, v.data)
		v.data = newData[:len(v.data)]
	}
	v.data = append(v.data, item)
	return nil
}

// Slice returns the current contents.
func (v *VecArena[T]) Slice() []T { return v.data }

// Len reports the number of pushed elements.
func (v *VecArena[T]) Len() int { return len(v.data) }

// Reset clears the logical length without touching the arena position
// (the caller is expected to Rewind the whole Arena between frames).
func (v *VecArena[T]) Reset() { v.data = v.data[:0] }
