// Package tcache implements a three-tier concurrent allocator for
// fixed-size blocks, fronting a per-OS-thread thread cache over a
// sharded central cache over a single-mutex page cache.
//
// The public surface is deliberately small: Allocate and Deallocate, plus
// a Pool type for callers who want an isolated instance instead of the
// process-wide default. Allocate returns an unsafe.Pointer rather than a
// typed value because the pool hands out raw, uninitialized memory the way
// its reference design does — callers that want a byte-addressable view
// can wrap the result with unsafe.Slice themselves, or call AllocateBytes.
package tcache

import (
	"sync"
	"unsafe"

	"github.com/joshuapare/tcache/internal/centralcache"
	"github.com/joshuapare/tcache/internal/pagecache"
	"github.com/joshuapare/tcache/internal/sizeclass"
	"github.com/joshuapare/tcache/internal/threadcache"
	"github.com/joshuapare/tcache/internal/tid"
)

// Pool bundles one page cache, one central cache, and the registry of
// thread caches fed by them.
//
// Open Question (resolved): the reference design assumes native
// OS-thread-local storage — one ThreadCache per OS thread, created on
// first use, destroyed at thread exit. Go exposes no such affinity for
// goroutines by default. Pool resolves this by keying thread-cache lookup
// on an OS-thread identifier (internal/tid, backed by gettid(2) on Linux)
// rather than on the goroutine itself, so that the fast path is actually
// shared the way the spec intends rather than re-created on every call.
// Because an un-pinned goroutine can still migrate between OS threads
// between calls, each slot carries a thin mutex as a safety net that every
// Allocate and Deallocate takes; callers that call runtime.LockOSThread()
// before their first allocation still take it, but it never contends with
// anything else, since no other goroutine runs on their OS thread.
type Pool struct {
	pc *pagecache.PageCache
	cc *centralcache.CentralCache

	slots sync.Map // int64 -> *slot

	hostMu sync.Mutex
	host   map[uintptr][]byte
}

type slot struct {
	mu sync.Mutex
	tc *threadcache.Cache
}

// New creates an independent Pool. Most programs should use the
// package-level Allocate/Deallocate, which share one process-wide Pool;
// New exists for tests and for callers who want isolation (e.g. to inject
// a fake SystemPages).
func New(opts ...Option) *Pool {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	pc := pagecache.New(cfg.sysPages)
	cc := centralcache.New(pc)
	return &Pool{
		pc:   pc,
		cc:   cc,
		host: make(map[uintptr][]byte),
	}
}

// Allocate returns a pointer to a block of at least size bytes, or
// ErrOutOfMemory if none could be obtained.
func (p *Pool) Allocate(size int) (unsafe.Pointer, error) {
	if size <= 0 {
		size = sizeclass.Alignment
	}
	if sizeclass.Oversized(size) {
		return p.allocateHost(size)
	}

	s := p.slotFor(tid.Current())
	s.mu.Lock()
	defer s.mu.Unlock()

	ptr, ok := s.tc.Allocate(size)
	if !ok {
		return nil, ErrOutOfMemory
	}
	return ptr, nil
}

// Deallocate returns a block previously obtained from Allocate. size must
// equal the size originally requested — the pool re-derives the size class
// from it rather than storing per-block metadata. An unrecognized pointer
// is ignored for pool-managed sizes (per the pool's invalid-free policy)
// and reported for host-delegated sizes, where the address space is
// small enough that misuse is unambiguous.
func (p *Pool) Deallocate(ptr unsafe.Pointer, size int) error {
	if ptr == nil {
		return nil
	}
	if size <= 0 {
		size = sizeclass.Alignment
	}
	if sizeclass.Oversized(size) {
		return p.deallocateHost(ptr)
	}

	s := p.slotFor(tid.Current())
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tc.Deallocate(ptr, size)
	return nil
}

func (p *Pool) slotFor(id int64) *slot {
	if v, ok := p.slots.Load(id); ok {
		return v.(*slot)
	}
	s := &slot{tc: threadcache.New(p.cc)}
	v, _ := p.slots.LoadOrStore(id, s)
	return v.(*slot)
}

// allocateHost services an oversized request from the host allocator
// (Go's own heap), keeping the backing slice alive in a side table since
// nothing else in the program holds a typed reference to it once the
// caller only has the unsafe.Pointer.
func (p *Pool) allocateHost(size int) (unsafe.Pointer, error) {
	buf := make([]byte, size)
	addr := uintptr(unsafe.Pointer(&buf[0]))

	p.hostMu.Lock()
	p.host[addr] = buf
	p.hostMu.Unlock()

	return unsafe.Pointer(&buf[0]), nil
}

func (p *Pool) deallocateHost(ptr unsafe.Pointer) error {
	addr := uintptr(ptr)

	p.hostMu.Lock()
	defer p.hostMu.Unlock()

	if _, ok := p.host[addr]; !ok {
		return ErrInvalidFree
	}
	delete(p.host, addr)
	return nil
}

// SetSpanHooks wires the page cache's diagnostic callbacks, invoked on
// every span acquired from the host and every successful coalesce. It
// exists for tcdebug; tcache itself never calls it.
func (p *Pool) SetSpanHooks(onAcquired, onCoalesced func(pages int)) {
	p.pc.OnSpanAcquired = onAcquired
	p.pc.OnSpanCoalesced = onCoalesced
}

// FreeSpanCount reports how many distinct free spans the page cache
// currently holds. Diagnostics only.
func (p *Pool) FreeSpanCount() int {
	return p.pc.FreeSpanCount()
}

// CentralLen reports the central cache's free-list length for size class
// i. Diagnostics only.
func (p *Pool) CentralLen(i int) int {
	return p.cc.Len(i)
}

// ThreadLen reports the calling OS thread's thread-cache free-list length
// for size class i, or 0 if that thread has never allocated. Diagnostics
// only — it reflects only the caller's own slot, consistent with the
// thread cache being a per-thread structure with no global view.
func (p *Pool) ThreadLen(i int) int {
	v, ok := p.slots.Load(tid.Current())
	if !ok {
		return 0
	}
	s := v.(*slot)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tc.Len(i)
}

// NumClasses reports the number of size classes the pool manages, for
// callers that want to range over ThreadLen/CentralLen.
func (p *Pool) NumClasses() int {
	return sizeclass.NumClasses
}

// AllocateBytes is a convenience wrapper over Allocate that returns the
// block as a byte slice of exactly size bytes, for callers that would
// rather not juggle unsafe.Pointer directly.
func (p *Pool) AllocateBytes(size int) ([]byte, error) {
	ptr, err := p.Allocate(size)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

var defaultPool = New()

// Allocate services size from the process-wide default Pool.
func Allocate(size int) (unsafe.Pointer, error) { return defaultPool.Allocate(size) }

// Deallocate returns ptr (of the given size) to the process-wide default Pool.
func Deallocate(ptr unsafe.Pointer, size int) error { return defaultPool.Deallocate(ptr, size) }

// AllocateBytes services size from the process-wide default Pool and
// returns the block as a byte slice.
func AllocateBytes(size int) ([]byte, error) { return defaultPool.AllocateBytes(size) }
