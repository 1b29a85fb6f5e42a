// Package centralcache implements the central tier (L2): one free list per
// size class, shared by every thread cache in the process and protected by
// a per-class spinlock so that distinct size classes never contend with
// each other.
package centralcache

import (
	"unsafe"

	"github.com/joshuapare/tcache/internal/block"
	"github.com/joshuapare/tcache/internal/pagecache"
	"github.com/joshuapare/tcache/internal/sizeclass"
	"github.com/joshuapare/tcache/internal/spinlock"
)

// CentralCache is the process-wide L2 singleton.
type CentralCache struct {
	pc *pagecache.PageCache

	locks []spinlock.Spinlock
	heads []unsafe.Pointer
}

// New creates a CentralCache backed by pc.
func New(pc *pagecache.PageCache) *CentralCache {
	return &CentralCache{
		pc:    pc,
		locks: make([]spinlock.Spinlock, sizeclass.NumClasses),
		heads: make([]unsafe.Pointer, sizeclass.NumClasses),
	}
}

// FetchRange removes up to n blocks of class i from the central free list
// and returns them as a singly-linked chain, along with how many blocks it
// actually handed back. A return of (nil, 0) means the page cache could not
// supply a fresh span either — the pool is out of memory for this class.
func (cc *CentralCache) FetchRange(i, n int) (unsafe.Pointer, int) {
	cc.locks[i].Lock()
	defer cc.locks[i].Unlock()

	if cc.heads[i] != nil {
		return cc.splitExisting(i, n)
	}
	return cc.refillFromPageCache(i, n)
}

// splitExisting walks at most n nodes from the current head, severs the
// list there, and returns the taken chain while leaving the remainder as
// the new head. Must be called with locks[i] held.
func (cc *CentralCache) splitExisting(i, n int) (unsafe.Pointer, int) {
	head := cc.heads[i]
	if n <= 0 {
		return nil, 0
	}

	taken := 1
	tail := head
	for taken < n {
		next := block.Next(tail)
		if next == nil {
			break
		}
		tail = next
		taken++
	}

	cc.heads[i] = block.Next(tail)
	block.SetNext(tail, nil)
	return head, taken
}

// refillFromPageCache carves a fresh SpanPages-page span into blocks of
// class i, hands back up to n of them, and installs the rest as the new
// central free list for the class. Must be called with locks[i] held.
//
// The carve loop wires every block's next-pointer from block 0 through the
// last block, terminating with nil — the spec's reference implementation
// is noted to start this loop one block too late, silently leaving one
// block's next-pointer unset; this implementation covers the full range.
func (cc *CentralCache) refillFromPageCache(i, n int) (unsafe.Pointer, int) {
	span, err := cc.pc.AllocateSpan(sizeclass.SpanPages)
	if err != nil {
		return nil, 0
	}

	mem := span.Mem()
	s := sizeclass.Size(i)
	total := len(mem) / s
	if total < 1 {
		return nil, 0
	}

	for idx := 0; idx < total; idx++ {
		p := block.At(mem, idx*s)
		var next unsafe.Pointer
		if idx+1 < total {
			next = block.At(mem, (idx+1)*s)
		}
		block.SetNext(p, next)
	}

	alloc := n
	if alloc > total {
		alloc = total
	}

	head := block.At(mem, 0)
	var remainder unsafe.Pointer
	if alloc < total {
		cut := block.At(mem, (alloc-1)*s)
		remainder = block.Next(cut)
		block.SetNext(cut, nil)
	}
	cc.heads[i] = remainder
	return head, alloc
}

// ReturnRange splices a chain of count blocks of class i, starting at
// head, back onto the front of the central free list for that class.
func (cc *CentralCache) ReturnRange(head unsafe.Pointer, count, i int) {
	if head == nil || count <= 0 {
		return
	}

	cc.locks[i].Lock()
	defer cc.locks[i].Unlock()

	tail := head
	for k := 0; k < count-1; k++ {
		next := block.Next(tail)
		if next == nil {
			break
		}
		tail = next
	}
	block.SetNext(tail, cc.heads[i])
	cc.heads[i] = head
}

// Len reports the current central free-list length for class i by
// walking the list under its spinlock. Diagnostics only — never called
// from the allocate/deallocate hot path.
func (cc *CentralCache) Len(i int) int {
	cc.locks[i].Lock()
	defer cc.locks[i].Unlock()

	n := 0
	for p := cc.heads[i]; p != nil; p = block.Next(p) {
		n++
	}
	return n
}
