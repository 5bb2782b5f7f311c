package alloc

import "github.com/pkg/errors"

// blocks is the table of bulk allocations a handle can refer to. Indices
// of released blocks are recycled.
type blocks[T any] struct {
	list  [][]T
	holes []int
	n     int
}

func (b *blocks[T]) put(s []T) int {
	b.n++
	if l := len(b.holes); l > 0 {
		i := b.holes[l-1]
		b.holes = b.holes[:l-1]
		b.list[i] = s
		return i
	}
	b.list = append(b.list, s)
	return len(b.list) - 1
}

func (b *blocks[T]) get(i int) ([]T, bool) {
	if i < 0 || i >= len(b.list) || b.list[i] == nil {
		return nil, false
	}
	return b.list[i], true
}

// sized is get for a release of n elements. The entry stays in the table
// until drop.
func (b *blocks[T]) sized(i, n int) ([]T, error) {
	s, ok := b.get(i)
	if !ok {
		return nil, ErrBadRef
	}
	if len(s) != n {
		return nil, errors.Wrapf(ErrSizeMismatch, "block of %d released as %d", len(s), n)
	}
	return s, nil
}

// release hands block i of n elements to free and forgets it only if free
// succeeds, so a failed release can be retried with the same handle.
func (b *blocks[T]) release(i, n int, free func([]T) error) error {
	s, err := b.sized(i, n)
	if err != nil {
		return err
	}
	if err := free(s); err != nil {
		return err
	}
	b.list[i] = nil
	b.holes = append(b.holes, i)
	b.n--
	return nil
}

func (b *blocks[T]) len() int {
	return b.n
}
