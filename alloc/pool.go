package alloc

import (
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/funny-falcon/slabpool/bitmap"
)

// MaxSlabSize is the largest slab a Pool accepts; bigger sizes are clamped.
const MaxSlabSize = math.MaxInt32

const maxSlabs = 1<<31 - 2

// Pool serves single-element requests from slabs of slabSize elements,
// reusing released slots before touching fresh ones. Requests for more
// than one element go straight to the bulk provider.
//
// A Pool owns its slabs until FreeAll or Close. Handles stay valid across
// any number of other Allocate and Deallocate calls.
type Pool[T any] struct {
	slabSize int
	bulk     Bulk[T]
	opts     options
	log      logrus.FieldLogger

	slabs  [][]T
	cursor int
	free   []Ptr
	live   []uint32

	// slabs the provider refused to take back; FreeAll retries them
	unreleased [][]T

	blocks blocks[T]
}

var _ Allocator[int] = new(Pool[int])

// NewPool creates a pool with slabSize elements per slab. A nil bulk
// provider means Heap.
func NewPool[T any](slabSize int, bulk Bulk[T], opts ...Option) *Pool[T] {
	if slabSize < 1 {
		slabSize = 1
	}
	if slabSize > MaxSlabSize {
		slabSize = MaxSlabSize
	}
	if bulk == nil {
		bulk = Heap[T]{}
	}
	o := buildOptions(opts)
	return &Pool[T]{
		slabSize: slabSize,
		bulk:     bulk,
		opts:     o,
		log:      o.log,
	}
}

// Rebind creates an empty pool for another element type with the same slab
// size and logger. Nothing is shared with p.
func Rebind[U, T any](p *Pool[T], bulk Bulk[U]) *Pool[U] {
	return NewPool[U](p.slabSize, bulk, WithLogger(p.opts.log))
}

func (p *Pool[T]) BlockSize() int {
	return p.slabSize
}

// Equal reports whether other is the same pool. Distinct pools never share
// slabs or free slots, so storage must go back to the pool it came from.
func (p *Pool[T]) Equal(other Allocator[T]) bool {
	o, ok := other.(*Pool[T])
	return ok && o == p
}

func (p *Pool[T]) Allocate(n int) (Ptr, error) {
	switch {
	case n < 0:
		return Nil, ErrBadSize
	case n == 0:
		return Nil, nil
	case n == 1:
		return p.allocOne()
	}
	b, err := p.bulk.Alloc(n)
	if err != nil {
		return Nil, errors.Wrapf(err, "alloc: bulk of %d", n)
	}
	if len(b) != n {
		return Nil, errors.Wrapf(ErrOutOfMemory, "alloc: provider returned %d of %d", len(b), n)
	}
	return bulkPtr(p.blocks.put(b)), nil
}

func (p *Pool[T]) allocOne() (Ptr, error) {
	if l := len(p.free); l > 0 {
		ptr := p.free[l-1]
		p.free = p.free[:l-1]
		bitmap.Set(p.live, p.index(ptr))
		return ptr, nil
	}
	if len(p.slabs) == 0 || p.cursor >= p.slabSize {
		if err := p.expand(); err != nil {
			return Nil, err
		}
	}
	ptr := slabPtr(len(p.slabs)-1, p.cursor)
	p.cursor++
	bitmap.Set(p.live, p.index(ptr))
	return ptr, nil
}

func (p *Pool[T]) expand() error {
	if len(p.slabs) >= maxSlabs {
		return errors.Wrap(ErrOutOfMemory, "alloc: slab limit reached")
	}
	slab, err := p.bulk.Alloc(p.slabSize)
	if err != nil {
		return errors.Wrapf(err, "alloc: slab %d", len(p.slabs))
	}
	if len(slab) != p.slabSize {
		return errors.Wrapf(ErrOutOfMemory, "alloc: provider returned %d of %d", len(slab), p.slabSize)
	}
	p.slabs = append(p.slabs, slab)
	p.cursor = 0
	p.live = bitmap.Grow(p.live, len(p.slabs)*p.slabSize)
	p.log.WithFields(logrus.Fields{
		"slab":      len(p.slabs) - 1,
		"slab_size": p.slabSize,
	}).Debug("new slab")
	return nil
}

func (p *Pool[T]) index(ptr Ptr) int {
	return ptr.slab()*p.slabSize + ptr.slot()
}

// Deallocate returns storage to the pool. A single element goes to the free
// list; a bulk block goes back to the provider and must be released with
// the count it was allocated with.
func (p *Pool[T]) Deallocate(ptr Ptr, n int) error {
	if ptr.IsNil() {
		return nil
	}
	switch {
	case n == 1:
		if !p.owns(ptr) {
			return errors.Wrapf(ErrBadRef, "alloc: release %v", ptr)
		}
		if !bitmap.Unset(p.live, p.index(ptr)) {
			return errors.Wrapf(ErrDoubleFree, "alloc: release %v", ptr)
		}
		p.free = append(p.free, ptr)
		return nil
	case n > 1:
		if !ptr.IsBulk() {
			return errors.Wrapf(ErrBadRef, "alloc: release %v as %d elements", ptr, n)
		}
		return errors.Wrapf(p.blocks.release(ptr.block(), n, p.bulk.Free), "alloc: release %v", ptr)
	}
	return ErrBadSize
}

// owns reports whether ptr names a slot that was handed out at least once.
func (p *Pool[T]) owns(ptr Ptr) bool {
	if ptr.IsBulk() {
		return false
	}
	s, i := ptr.slab(), ptr.slot()
	if s < 0 || s >= len(p.slabs) || i >= p.slabSize {
		return false
	}
	return s < len(p.slabs)-1 || i < p.cursor
}

// Slice is the view of n elements behind ptr. A slab handle carries one
// element; a bulk handle carries the whole block. Handles that are not
// live in this pool panic with ErrBadRef.
func (p *Pool[T]) Slice(ptr Ptr, n int) []T {
	if ptr.IsNil() || n == 0 {
		return nil
	}
	if ptr.IsBulk() {
		b, ok := p.blocks.get(ptr.block())
		if !ok {
			panic(errors.Wrapf(ErrBadRef, "alloc: slice %v", ptr))
		}
		if n > len(b) {
			panic(errors.Wrapf(ErrSizeMismatch, "alloc: slice %v as %d", ptr, n))
		}
		return b[:n:n]
	}
	if !p.owns(ptr) || !bitmap.Has(p.live, p.index(ptr)) {
		panic(errors.Wrapf(ErrBadRef, "alloc: slice %v", ptr))
	}
	if n != 1 {
		panic(errors.Wrapf(ErrSizeMismatch, "alloc: slice %v as %d", ptr, n))
	}
	i := ptr.slot()
	return p.slabs[ptr.slab()][i : i+1 : i+1]
}

func (p *Pool[T]) At(ptr Ptr) *T {
	return &p.Slice(ptr, 1)[0]
}

func (p *Pool[T]) Construct(dst *T, v T) {
	construct(dst, v)
}

func (p *Pool[T]) Destroy(dst *T) {
	destroy(dst)
}

// FreeAll returns every slab to the provider and forgets all slots. Bulk
// blocks belong to their callers and are left alone. Slabs the provider
// fails to take back are kept aside and retried by the next call; once
// everything is returned, calling it again is a no-op.
func (p *Pool[T]) FreeAll() error {
	if n := bitmap.Count(p.live); n > 0 {
		p.log.WithFields(logrus.Fields{
			"slots": n,
			"live":  p.liveSlots(8),
		}).Warn("slots still in use")
	}
	if len(p.slabs) > 0 && p.blocks.len() > 0 {
		p.log.WithField("blocks", p.blocks.len()).Warn("bulk blocks outstanding")
	}

	pending := make([][]T, 0, len(p.unreleased)+len(p.slabs))
	pending = append(pending, p.unreleased...)
	pending = append(pending, p.slabs...)

	var result error
	var kept [][]T
	for i, slab := range pending {
		if err := p.bulk.Free(slab); err != nil {
			p.log.WithError(err).WithField("slab", i).Error("slab release failed")
			result = multierror.Append(result, errors.Wrapf(err, "alloc: slab %d", i))
			kept = append(kept, slab)
		}
	}
	p.unreleased = kept
	p.slabs = nil
	p.free = nil
	p.live = nil
	p.cursor = 0
	return result
}

// liveSlots names up to limit slots that are still handed out.
func (p *Pool[T]) liveSlots(limit int) []string {
	var out []string
	bitmap.Loop(p.live, func(id int) bool {
		out = append(out, slabPtr(id/p.slabSize, id%p.slabSize).String())
		return len(out) < limit
	})
	return out
}

func (p *Pool[T]) Close() error {
	return p.FreeAll()
}

type Stats struct {
	SlabSize int `json:"slab_size"`
	Slabs    int `json:"slabs"`
	Cursor   int `json:"cursor"`
	Free     int `json:"free"`
	InUse    int `json:"in_use"`
	Bulk     int `json:"bulk"`
	// Unreleased is the number of slabs a failed FreeAll still holds.
	Unreleased int `json:"unreleased"`
}

func (p *Pool[T]) Stats() Stats {
	return Stats{
		SlabSize: p.slabSize,
		Slabs:    len(p.slabs),
		Cursor:   p.cursor,
		Free:     len(p.free),
		InUse:    bitmap.Count(p.live),
		Bulk:     p.blocks.len(),

		Unreleased: len(p.unreleased),
	}
}
