package alloc

import "github.com/pkg/errors"

// Plain forwards every request to its bulk provider without pooling. It is
// what containers get when no allocator is configured.
type Plain[T any] struct {
	bulk   Bulk[T]
	blocks blocks[T]
}

var _ Allocator[int] = new(Plain[int])

func NewPlain[T any](bulk Bulk[T]) *Plain[T] {
	if bulk == nil {
		bulk = Heap[T]{}
	}
	return &Plain[T]{bulk: bulk}
}

func (a *Plain[T]) BlockSize() int {
	return 1
}

func (a *Plain[T]) Equal(other Allocator[T]) bool {
	o, ok := other.(*Plain[T])
	return ok && o == a
}

func (a *Plain[T]) Allocate(n int) (Ptr, error) {
	switch {
	case n < 0:
		return Nil, ErrBadSize
	case n == 0:
		return Nil, nil
	}
	b, err := a.bulk.Alloc(n)
	if err != nil {
		return Nil, errors.Wrapf(err, "alloc: plain %d", n)
	}
	if len(b) != n {
		return Nil, errors.Wrapf(ErrOutOfMemory, "alloc: provider returned %d of %d", len(b), n)
	}
	return bulkPtr(a.blocks.put(b)), nil
}

func (a *Plain[T]) Deallocate(ptr Ptr, n int) error {
	if ptr.IsNil() {
		return nil
	}
	if n < 1 {
		return ErrBadSize
	}
	if !ptr.IsBulk() {
		return errors.Wrapf(ErrBadRef, "alloc: release %v", ptr)
	}
	return errors.Wrapf(a.blocks.release(ptr.block(), n, a.bulk.Free), "alloc: release %v", ptr)
}

func (a *Plain[T]) Slice(ptr Ptr, n int) []T {
	if ptr.IsNil() || n == 0 {
		return nil
	}
	b, ok := a.blocks.get(ptr.block())
	if !ptr.IsBulk() || !ok {
		panic(errors.Wrapf(ErrBadRef, "alloc: slice %v", ptr))
	}
	if n > len(b) {
		panic(errors.Wrapf(ErrSizeMismatch, "alloc: slice %v as %d", ptr, n))
	}
	return b[:n:n]
}

func (a *Plain[T]) At(ptr Ptr) *T {
	return &a.Slice(ptr, 1)[0]
}

func (a *Plain[T]) Construct(dst *T, v T) {
	construct(dst, v)
}

func (a *Plain[T]) Destroy(dst *T) {
	destroy(dst)
}

// Outstanding is the number of blocks not yet released.
func (a *Plain[T]) Outstanding() int {
	return a.blocks.len()
}
