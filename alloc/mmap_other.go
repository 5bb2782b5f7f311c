//go:build !linux

package alloc

type Mmap[T any] struct{}

func NewMmap[T any]() (*Mmap[T], error) {
	return nil, ErrUnsupported
}

func (m *Mmap[T]) Alloc(n int) ([]T, error) { return nil, ErrUnsupported }
func (m *Mmap[T]) Free(b []T) error         { return ErrUnsupported }
func (m *Mmap[T]) Mapped() int              { return 0 }
