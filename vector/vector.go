// Package vector is a growable array whose storage comes from an
// alloc.Allocator.
package vector

import (
	"iter"

	"github.com/pkg/errors"

	"github.com/funny-falcon/slabpool/alloc"
)

type Vector[T any] struct {
	alloc  alloc.Allocator[T]
	buf    alloc.Ptr
	data   []T
	length int
}

// New creates an empty vector. A nil allocator means alloc.Plain over the
// Go heap.
func New[T any](a alloc.Allocator[T]) *Vector[T] {
	if a == nil {
		a = alloc.NewPlain[T](nil)
	}
	return &Vector[T]{alloc: a}
}

func (v *Vector[T]) Allocator() alloc.Allocator[T] { return v.alloc }

func (v *Vector[T]) Len() int    { return v.length }
func (v *Vector[T]) Cap() int    { return len(v.data) }
func (v *Vector[T]) Empty() bool { return v.length == 0 }

func (v *Vector[T]) At(i int) T {
	return v.data[:v.length][i]
}

func (v *Vector[T]) PushBack(x T) error {
	if v.length == len(v.data) {
		if err := v.grow(); err != nil {
			return err
		}
	}
	v.alloc.Construct(&v.data[v.length], x)
	v.length++
	return nil
}

// grow doubles the capacity. Nothing changes until the new buffer exists.
// Elements move with their resources: the old slots are only zeroed, never
// destroyed.
func (v *Vector[T]) grow() error {
	oldCap := len(v.data)
	newCap := max(1, oldCap*2)
	buf, err := v.alloc.Allocate(newCap)
	if err != nil {
		return errors.Wrapf(err, "vector: grow to %d", newCap)
	}
	data := v.alloc.Slice(buf, newCap)
	copy(data, v.data[:v.length])
	clear(v.data[:v.length])
	old := v.buf
	v.buf, v.data = buf, data
	return errors.Wrap(v.alloc.Deallocate(old, oldCap), "vector: release old buffer")
}

// Clear destroys every element and keeps the capacity.
func (v *Vector[T]) Clear() {
	for i := 0; i < v.length; i++ {
		v.alloc.Destroy(&v.data[i])
	}
	v.length = 0
}

// Values is a view of the elements. It is invalidated by growth and Clear.
func (v *Vector[T]) Values() []T {
	return v.data[:v.length:v.length]
}

func (v *Vector[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, x := range v.data[:v.length] {
			if !yield(i, x) {
				return
			}
		}
	}
}

// Release destroys the elements and returns the buffer to the allocator.
// The vector is empty and usable afterwards.
func (v *Vector[T]) Release() error {
	v.Clear()
	if v.buf.IsNil() {
		return nil
	}
	buf, n := v.buf, len(v.data)
	v.buf, v.data = alloc.Nil, nil
	return errors.Wrap(v.alloc.Deallocate(buf, n), "vector: release")
}
