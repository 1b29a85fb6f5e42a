// Package threadcache implements the thread tier (L1): the only tier that
// touches no lock and no atomic read-modify-write on its fast path.
//
// A Cache is meant to be owned exclusively by one logical thread of
// execution at a time (see the tcache package for how thread affinity is
// resolved in Go, which has no native thread-local storage). Callers above
// this package are responsible for routing oversized requests to the host
// allocator before reaching here — a Cache only ever sees requests that
// fit a managed size class.
package threadcache

import (
	"unsafe"

	"github.com/joshuapare/tcache/internal/block"
	"github.com/joshuapare/tcache/internal/centralcache"
	"github.com/joshuapare/tcache/internal/sizeclass"
)

// Cache is a per-thread array of free lists, one per size class.
type Cache struct {
	cc *centralcache.CentralCache

	heads []unsafe.Pointer
	lens  []int
}

// New creates a thread cache that refills from and spills into cc.
func New(cc *centralcache.CentralCache) *Cache {
	return &Cache{
		cc:    cc,
		heads: make([]unsafe.Pointer, sizeclass.NumClasses),
		lens:  make([]int, sizeclass.NumClasses),
	}
}

// Allocate returns a block of the given size-class and reports whether one
// was available. The caller has already checked size <= sizeclass.MaxManaged.
func (c *Cache) Allocate(size int) (unsafe.Pointer, bool) {
	i := sizeclass.Index(size)

	if head := c.heads[i]; head != nil {
		c.heads[i] = block.Next(head)
		c.lens[i]--
		return head, true
	}

	batch := sizeclass.BatchCount(sizeclass.Size(i))
	chain, got := c.cc.FetchRange(i, batch)
	if got == 0 {
		return nil, false
	}

	rest := block.Next(chain)
	c.heads[i] = rest
	c.lens[i] = got - 1
	return chain, true
}

// Deallocate returns a block of the given size to the thread's free list,
// spilling half of it to the central cache once the list exceeds the
// high-water mark.
func (c *Cache) Deallocate(p unsafe.Pointer, size int) {
	i := sizeclass.Index(size)

	block.SetNext(p, c.heads[i])
	c.heads[i] = p
	c.lens[i]++

	if c.lens[i] > sizeclass.HighWater {
		c.returnExcess(i)
	}
}

// Len reports the current free-list length for class i. Diagnostics only.
func (c *Cache) Len(i int) int {
	return c.lens[i]
}

// returnExcess implements the return protocol: keep max(length/2, 1)
// blocks at the head, hand the rest to the central cache.
//
// The reference implementation this is modeled on contains an inversion
// here — it walks retain-1 steps from the head but then publishes the node
// *after* the split point as the retained head, which contradicts its own
// stated intent of keeping the front half at the thread and returning the
// back half. This implementation keeps the original head as the retained
// prefix and starts the returned chain at the node immediately following
// the split point, which is the reading consistent with the documented
// intent.
func (c *Cache) returnExcess(i int) {
	length := c.lens[i]
	if length <= 1 {
		return
	}

	retain := length / 2
	if retain < 1 {
		retain = 1
	}

	head := c.heads[i]
	node := head
	retained := 1
	for retained < retain {
		next := block.Next(node)
		if next == nil {
			break
		}
		node = next
		retained++
	}

	suffix := block.Next(node)
	if suffix == nil {
		return
	}
	block.SetNext(node, nil)

	c.heads[i] = head
	c.lens[i] = retained
	c.cc.ReturnRange(suffix, length-retained, i)
}
