// Package alloc hands out fixed-size element storage from pooled slabs.
//
// Storage is addressed by Ptr handles instead of raw pointers: a handle is
// either a slot inside one of the allocator's slabs or an index into its
// table of bulk blocks. Use Slice or At to reach the elements behind a
// handle. Nothing in this package is safe for concurrent use.
package alloc

import "fmt"

type Ptr uint64

const Nil Ptr = 0

const (
	slotBits = 32
	slotMask = 1<<slotBits - 1
	bulkBit  = Ptr(1) << 63
)

func slabPtr(slab, slot int) Ptr {
	return Ptr(uint64(slab+1)<<slotBits | uint64(slot))
}

func bulkPtr(block int) Ptr {
	return bulkBit | Ptr(block+1)
}

func (p Ptr) IsNil() bool  { return p == Nil }
func (p Ptr) IsBulk() bool { return p&bulkBit != 0 }

func (p Ptr) slab() int  { return int(p>>slotBits) - 1 }
func (p Ptr) slot() int  { return int(p & slotMask) }
func (p Ptr) block() int { return int(p&^bulkBit) - 1 }

func (p Ptr) String() string {
	switch {
	case p.IsNil():
		return "nil"
	case p.IsBulk():
		return fmt.Sprintf("bulk:%d", p.block())
	default:
		return fmt.Sprintf("slab:%d/%d", p.slab(), p.slot())
	}
}

// Allocator is the capability set containers program against.
type Allocator[T any] interface {
	// Allocate reserves n contiguous elements. n == 0 yields Nil.
	Allocate(n int) (Ptr, error)
	// Deallocate returns storage obtained from Allocate with the same n.
	Deallocate(p Ptr, n int) error
	Slice(p Ptr, n int) []T
	At(p Ptr) *T
	Construct(dst *T, v T)
	Destroy(dst *T)
	Equal(other Allocator[T]) bool
	BlockSize() int
}

// Destroyer is implemented by element types that hold resources beyond
// their memory. Destroy is called before the element is zeroed.
type Destroyer interface {
	Destroy()
}

func construct[T any](dst *T, v T) {
	*dst = v
}

func destroy[T any](dst *T) {
	if d, ok := any(dst).(Destroyer); ok {
		d.Destroy()
	}
	var zero T
	*dst = zero
}
