// Package pagecache implements the page tier (L3): the single source of
// truth for every span of memory the pool holds, guarded by one mutex.
//
// It satisfies span requests by best-fit search over free spans, splitting
// from the low end when a free span is larger than needed, and coalescing
// adjacent free spans on release.
package pagecache

import (
	"fmt"
	"sort"
	"sync"
	"unsafe"

	"github.com/joshuapare/tcache/internal/sizeclass"
	"github.com/joshuapare/tcache/pagesrc"
)

// Span is a contiguous run of Pages pages. mem is the backing storage for
// the span's address range; holding onto it here is what keeps the memory
// reachable from the Go garbage collector's point of view, since Addr is
// just a uintptr once computed.
type Span struct {
	Addr  uintptr
	Pages int

	mem  []byte
	next *Span
}

// Mem returns the span's backing storage. Callers above the page tier use
// this to carve blocks out of a freshly allocated span.
func (s *Span) Mem() []byte { return s.mem }

// PageCache is the process-wide L3 singleton.
type PageCache struct {
	mu sync.Mutex

	sys pagesrc.SystemPages

	// freeSpans maps pages -> head of a singly-linked list of free spans
	// of exactly that page count. order holds the same keys sorted
	// ascending, standing in for the spec's ordered map (Go has no
	// built-in one) so best-fit lookup stays a binary search.
	freeSpans map[int]*Span
	order     []int

	// spanMap covers every live span, free or carved, keyed by base
	// address.
	spanMap map[uintptr]*Span

	// endIdx maps a span's end address to the span itself, used only to
	// find a free span immediately preceding another for the additive
	// backward-coalescing enhancement (see DESIGN.md).
	endIdx map[uintptr]*Span

	// OnSpanAcquired and OnSpanCoalesced are optional diagnostic hooks,
	// nil by default. They fire while the lock is held, so implementations
	// must not call back into the PageCache.
	OnSpanAcquired  func(pages int)
	OnSpanCoalesced func(pages int)
}

// New creates a PageCache backed by sys.
func New(sys pagesrc.SystemPages) *PageCache {
	return &PageCache{
		sys:       sys,
		freeSpans: make(map[int]*Span),
		spanMap:   make(map[uintptr]*Span),
		endIdx:    make(map[uintptr]*Span),
	}
}

// AllocateSpan returns a span of at least pages pages, splitting a larger
// free span or acquiring fresh OS pages as needed.
func (pc *PageCache) AllocateSpan(pages int) (*Span, error) {
	if pages < 1 {
		return nil, fmt.Errorf("pagecache: invalid page count %d", pages)
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	if k, ok := pc.lowerBound(pages); ok {
		s := pc.popFreeHead(k)
		if s.Pages > pages {
			rem := &Span{
				Addr:  s.Addr + uintptr(pages*sizeclass.PageSize),
				Pages: s.Pages - pages,
				mem:   s.mem[pages*sizeclass.PageSize:],
			}
			s.mem = s.mem[:pages*sizeclass.PageSize]
			s.Pages = pages
			pc.pushFreeHead(rem)
			pc.spanMap[rem.Addr] = rem
			pc.endIdx[rem.Addr+uintptr(rem.Pages*sizeclass.PageSize)] = rem
		}
		pc.spanMap[s.Addr] = s
		delete(pc.endIdx, s.Addr+uintptr(s.Pages*sizeclass.PageSize))
		return s, nil
	}

	mem, err := pc.sys.AllocatePages(pages * sizeclass.PageSize)
	if err != nil {
		return nil, err
	}
	s := &Span{
		Addr:  uintptr(unsafeAddrOf(mem)),
		Pages: pages,
		mem:   mem,
	}
	pc.spanMap[s.Addr] = s
	if pc.OnSpanAcquired != nil {
		pc.OnSpanAcquired(pages)
	}
	return s, nil
}

// DeallocateSpan returns the span at addr (which must have exactly pages
// pages) to the free pool, coalescing with its neighbors where possible.
// An unknown addr is ignored per the pool's invalid-free policy.
func (pc *PageCache) DeallocateSpan(addr uintptr, pages int) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	s, ok := pc.spanMap[addr]
	if !ok || s.Pages != pages {
		return
	}

	coalesced := false

	// Coalesce with the immediately following span, if it exists, is
	// currently free, and actually shares backing storage with s (the only
	// case in which extending s's slice in place is memory-safe: it
	// undoes an earlier split rather than splicing together two
	// independently-sourced regions that merely ended up adjacent). The
	// span must be unlinked from its free list before we touch it, and put
	// back unmodified if the safety check fails.
	nextAddr := addr + uintptr(pages*sizeclass.PageSize)
	if next, ok := pc.spanMap[nextAddr]; ok && pc.unlinkIfFree(next) {
		nextPages := next.Pages
		if extendRight(s, next) {
			delete(pc.spanMap, nextAddr)
			delete(pc.endIdx, nextAddr+uintptr(nextPages*sizeclass.PageSize))
			coalesced = true
		} else {
			pc.pushFreeHead(next)
		}
	}

	// Additive enhancement over the reference design (see DESIGN.md):
	// also coalesce with the immediately preceding span, if it is free
	// and shares backing storage, subject to the same safety check.
	if prev, ok := pc.endIdx[s.Addr]; ok && pc.unlinkIfFree(prev) {
		if extendRight(prev, s) {
			delete(pc.spanMap, s.Addr)
			delete(pc.endIdx, s.Addr)
			s = prev
			coalesced = true
		} else {
			pc.pushFreeHead(prev)
		}
	}

	delete(pc.endIdx, s.Addr+uintptr(s.Pages*sizeclass.PageSize))
	pc.endIdx[s.Addr+uintptr(s.Pages*sizeclass.PageSize)] = s
	pc.pushFreeHead(s)

	if coalesced && pc.OnSpanCoalesced != nil {
		pc.OnSpanCoalesced(s.Pages)
	}
}

// lowerBound finds the smallest key k >= pages with a non-empty free list,
// via binary search over the sorted key slice.
func (pc *PageCache) lowerBound(pages int) (int, bool) {
	i := sort.SearchInts(pc.order, pages)
	if i == len(pc.order) {
		return 0, false
	}
	return pc.order[i], true
}

// popFreeHead unlinks and returns the head span of FreeSpans[k].
func (pc *PageCache) popFreeHead(k int) *Span {
	s := pc.freeSpans[k]
	if s.next == nil {
		delete(pc.freeSpans, k)
		pc.removeOrderKey(k)
	} else {
		pc.freeSpans[k] = s.next
	}
	s.next = nil
	return s
}

// pushFreeHead pushes s onto FreeSpans[s.Pages].
func (pc *PageCache) pushFreeHead(s *Span) {
	k := s.Pages
	if _, exists := pc.freeSpans[k]; !exists {
		pc.insertOrderKey(k)
	}
	s.next = pc.freeSpans[k]
	pc.freeSpans[k] = s
}

// unlinkIfFree removes s from its free list if it is currently free,
// reporting whether it did so.
func (pc *PageCache) unlinkIfFree(s *Span) bool {
	k := s.Pages
	head, ok := pc.freeSpans[k]
	if !ok {
		return false
	}
	if head == s {
		pc.popFreeHead(k)
		return true
	}
	prev := head
	for cur := head.next; cur != nil; prev, cur = cur, cur.next {
		if cur == s {
			prev.next = cur.next
			cur.next = nil
			return true
		}
	}
	return false
}

func (pc *PageCache) insertOrderKey(k int) {
	i := sort.SearchInts(pc.order, k)
	pc.order = append(pc.order, 0)
	copy(pc.order[i+1:], pc.order[i:])
	pc.order[i] = k
}

func (pc *PageCache) removeOrderKey(k int) {
	i := sort.SearchInts(pc.order, k)
	if i < len(pc.order) && pc.order[i] == k {
		pc.order = append(pc.order[:i], pc.order[i+1:]...)
	}
}

// extendRight attempts to grow left in place to also cover right, which is
// assumed to immediately follow it in address space. It only succeeds if
// left's backing array already has enough capacity past its current
// length to reach right's end — which is true precisely when left and
// right both descend from the same original split, and false whenever
// they merely ended up at adjacent addresses by coincidence (in which
// case splicing them would silently read or write the wrong memory).
func extendRight(left, right *Span) bool {
	needLen := (left.Pages + right.Pages) * sizeclass.PageSize
	if cap(left.mem) < needLen {
		return false
	}
	left.mem = left.mem[:needLen]
	left.Pages += right.Pages
	return true
}

// unsafeAddrOf returns the address of a slice's first byte as a uintptr.
// The slice must be non-empty.
func unsafeAddrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

// FreeSpanCount returns the number of distinct free spans currently held,
// for diagnostics only.
func (pc *PageCache) FreeSpanCount() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	n := 0
	for _, k := range pc.order {
		for s := pc.freeSpans[k]; s != nil; s = s.next {
			n++
		}
	}
	return n
}
