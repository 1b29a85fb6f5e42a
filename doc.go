/*
Package tcache is a three-tier concurrent allocator for fixed-size blocks,
modeled on the classic thread-cache / central-cache / page-cache design:
a lock-free per-thread cache over a spinlock-sharded central cache over a
single-mutex page cache that owns the process's actual OS memory.

Basic use:

	ptr, err := tcache.Allocate(40)
	if err != nil {
		// out of memory
	}
	defer tcache.Deallocate(ptr, 40)

Programs that want an isolated pool instead of the process-wide default
construct one directly:

	pool := tcache.New()
	ptr, err := pool.Allocate(40)

Requests larger than sizeclass.MaxManaged bypass all three tiers and are
serviced directly from the Go heap; see Pool.Allocate.
*/
package tcache
