package alloc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funny-falcon/slabpool/alloc"
)

func TestPlain(t *testing.T) {
	cnt := alloc.NewCounting[int](nil)
	a := alloc.NewPlain[int](cnt)
	assert.Equal(t, 1, a.BlockSize())
	assert.True(t, a.Equal(a))
	assert.False(t, a.Equal(alloc.NewPlain[int](nil)))

	p, err := a.Allocate(0)
	require.NoError(t, err)
	assert.True(t, p.IsNil())
	assert.Equal(t, 0, cnt.Allocs)

	one, err := a.Allocate(1)
	require.NoError(t, err)
	a.Construct(a.At(one), 5)
	assert.Equal(t, 5, *a.At(one))

	many, err := a.Allocate(3)
	require.NoError(t, err)
	copy(a.Slice(many, 3), []int{1, 2, 3})
	assert.Equal(t, []int{1, 2, 3}, a.Slice(many, 3))
	assert.Equal(t, 2, a.Outstanding())

	assert.ErrorIs(t, a.Deallocate(many, 2), alloc.ErrSizeMismatch)
	assert.ErrorIs(t, a.Deallocate(one, 0), alloc.ErrBadSize)
	require.NoError(t, a.Deallocate(many, 3))
	require.NoError(t, a.Deallocate(one, 1))
	assert.ErrorIs(t, a.Deallocate(one, 1), alloc.ErrBadRef)
	assert.NoError(t, a.Deallocate(alloc.Nil, 1))

	assert.Equal(t, 0, a.Outstanding())
	assert.Equal(t, 2, cnt.Frees)
	assert.Equal(t, int64(0), cnt.Outstanding())
}

func TestPlain_foreignHandle(t *testing.T) {
	pool := alloc.NewPool[int](2, nil)
	p, err := pool.Allocate(1)
	require.NoError(t, err)

	a := alloc.NewPlain[int](nil)
	assert.ErrorIs(t, a.Deallocate(p, 1), alloc.ErrBadRef)
	assert.Panics(t, func() { a.Slice(p, 1) })
}

func TestPlain_releaseFailure(t *testing.T) {
	fl := &flaky[int]{Bulk: alloc.Heap[int]{}, fails: 1}
	a := alloc.NewPlain[int](fl)
	p, err := a.Allocate(2)
	require.NoError(t, err)

	assert.ErrorIs(t, a.Deallocate(p, 2), errRefused)
	assert.Equal(t, 1, a.Outstanding())
	assert.Len(t, a.Slice(p, 2), 2)
	assert.ErrorIs(t, recovered(func() { a.Slice(p, 3) }), alloc.ErrSizeMismatch)

	require.NoError(t, a.Deallocate(p, 2))
	assert.Equal(t, 0, a.Outstanding())
}
