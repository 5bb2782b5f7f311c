package alloc

import (
	"unsafe"

	"github.com/pkg/errors"
)

// Bulk is the raw storage provider behind an allocator. Pool uses it for
// slabs and for multi-element requests; Plain uses it for everything.
type Bulk[T any] interface {
	Alloc(n int) ([]T, error)
	Free(b []T) error
}

// MaxBulkBytes caps a single Heap request.
const MaxBulkBytes = 1 << 40

func elemSize[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

func bytesOf[T any](n int) int64 {
	return int64(n) * int64(elemSize[T]())
}

// Heap takes storage from the Go heap.
type Heap[T any] struct{}

func (Heap[T]) Alloc(n int) ([]T, error) {
	if n < 0 {
		return nil, ErrBadSize
	}
	if sz := elemSize[T](); sz > 0 && uint64(n) > MaxBulkBytes/uint64(sz) {
		return nil, errors.Wrapf(ErrOutOfMemory, "heap: %d elements of %d bytes", n, sz)
	}
	return make([]T, n), nil
}

func (Heap[T]) Free([]T) error {
	return nil
}

// Counting tracks every request passing to the upstream provider.
type Counting[T any] struct {
	Upstream Bulk[T]

	Allocs     int
	Frees      int
	BytesAlloc int64
	BytesFree  int64
}

func NewCounting[T any](upstream Bulk[T]) *Counting[T] {
	if upstream == nil {
		upstream = Heap[T]{}
	}
	return &Counting[T]{Upstream: upstream}
}

func (c *Counting[T]) Alloc(n int) ([]T, error) {
	b, err := c.Upstream.Alloc(n)
	if err != nil {
		return nil, err
	}
	c.Allocs++
	c.BytesAlloc += bytesOf[T](len(b))
	return b, nil
}

func (c *Counting[T]) Free(b []T) error {
	if err := c.Upstream.Free(b); err != nil {
		return err
	}
	c.Frees++
	c.BytesFree += bytesOf[T](len(b))
	return nil
}

// Outstanding is the number of bytes handed out and not yet returned.
func (c *Counting[T]) Outstanding() int64 {
	return c.BytesAlloc - c.BytesFree
}
