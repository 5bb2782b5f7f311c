package alloc

import "errors"

var (
	// ErrOutOfMemory is returned when a bulk provider cannot satisfy a request.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrBadSize indicates a negative element count or a count the handle cannot carry.
	ErrBadSize = errors.New("alloc: bad element count")

	// ErrBadRef indicates a handle that was not produced by this allocator.
	ErrBadRef = errors.New("alloc: bad handle")

	// ErrDoubleFree indicates a release of a slot that is not in use.
	ErrDoubleFree = errors.New("alloc: slot is not in use")

	// ErrSizeMismatch indicates a bulk release with a different count than the allocation.
	ErrSizeMismatch = errors.New("alloc: element count does not match allocation")

	ErrPointers    = errors.New("alloc: element type contains pointers")
	ErrUnsupported = errors.New("alloc: provider is not supported on this platform")
)
