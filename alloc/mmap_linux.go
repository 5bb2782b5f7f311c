//go:build linux

package alloc

import (
	"math"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Mmap maps every request as its own anonymous private region. Mapped
// memory is invisible to the garbage collector, so element types must be
// free of pointers.
type Mmap[T any] struct {
	maps map[*T][]byte
}

func NewMmap[T any]() (*Mmap[T], error) {
	if !pointerFree[T]() {
		return nil, ErrPointers
	}
	return &Mmap[T]{maps: make(map[*T][]byte)}, nil
}

func (m *Mmap[T]) Alloc(n int) ([]T, error) {
	if n < 0 {
		return nil, ErrBadSize
	}
	sz := int(elemSize[T]())
	if n == 0 || sz == 0 {
		return make([]T, n), nil
	}
	if uint64(n) > MaxBulkBytes/uint64(sz) || uint64(n)*uint64(sz) > math.MaxInt {
		return nil, errors.Wrapf(ErrOutOfMemory, "mmap: %d elements of %d bytes", n, sz)
	}
	mem, err := unix.Mmap(-1, 0, n*sz, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err == unix.ENOMEM {
		return nil, errors.Wrapf(ErrOutOfMemory, "mmap: %d bytes", n*sz)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "mmap: %d bytes", n*sz)
	}
	first := (*T)(unsafe.Pointer(&mem[0]))
	m.maps[first] = mem
	return unsafe.Slice(first, n), nil
}

func (m *Mmap[T]) Free(b []T) error {
	if len(b) == 0 || elemSize[T]() == 0 {
		return nil
	}
	first := &b[0]
	mem, ok := m.maps[first]
	if !ok {
		return errors.Wrap(ErrBadRef, "munmap: region is not mapped")
	}
	delete(m.maps, first)
	return errors.Wrap(unix.Munmap(mem), "munmap")
}

// Mapped is the number of regions currently mapped.
func (m *Mmap[T]) Mapped() int {
	return len(m.maps)
}
