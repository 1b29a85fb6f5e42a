package tcache

import "errors"

var (
	// ErrOutOfMemory is returned by Allocate when the page cache cannot
	// obtain any more memory from the host.
	ErrOutOfMemory = errors.New("tcache: out of memory")

	// ErrInvalidFree is returned by Deallocate for a host-delegated
	// (oversized) pointer the pool does not recognize. Per the pool's
	// error-handling design, invalid frees of pool-managed blocks are
	// silently ignored rather than reported, since a block's size class
	// cannot be independently verified from the pointer alone; this
	// error exists only for the host-delegation bookkeeping path, where
	// an unrecognized address is unambiguously a caller bug.
	ErrInvalidFree = errors.New("tcache: invalid free")
)
