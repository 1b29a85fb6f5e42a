package tcache

import (
	"sync"
	"unsafe"

	"testing"

	"github.com/stretchr/testify/require"
)

// TestAllocateDeallocateRoundTrip is the single-thread, single-class
// round trip: a fresh pool can write through the returned pointer and
// read the bytes back before freeing it.
func TestAllocateDeallocateRoundTrip(t *testing.T) {
	p := New()

	buf, err := p.AllocateBytes(24)
	require.NoError(t, err)
	require.Len(t, buf, 24)

	for i := range buf {
		buf[i] = byte(i)
	}
	for i := range buf {
		require.Equal(t, byte(i), buf[i])
	}

	require.NoError(t, p.Deallocate(unsafe.Pointer(&buf[0]), 24))
}

// TestAllocateNeverHandsOutOverlappingBlocks allocates a batch of
// same-class blocks without freeing any of them and checks that writing a
// unique byte pattern into each one never bleeds into another — i.e. no
// two live allocations ever alias.
func TestAllocateNeverHandsOutOverlappingBlocks(t *testing.T) {
	p := New()

	const n = 200
	bufs := make([][]byte, n)
	for i := range bufs {
		b, err := p.AllocateBytes(32)
		require.NoError(t, err)
		for j := range b {
			b[j] = byte(i)
		}
		bufs[i] = b
	}

	for i, b := range bufs {
		for _, got := range b {
			require.Equal(t, byte(i), got, "block %d corrupted, aliasing with another live block", i)
		}
	}
}

// TestAllocateOversizedDelegatesToHost exercises the branch that bypasses
// all three tiers for a request larger than sizeclass.MaxManaged.
func TestAllocateOversizedDelegatesToHost(t *testing.T) {
	p := New()

	buf, err := p.AllocateBytes(1 << 20)
	require.NoError(t, err)
	require.Len(t, buf, 1<<20)

	buf[0] = 0xAB
	buf[len(buf)-1] = 0xCD
	require.Equal(t, byte(0xAB), buf[0])
	require.Equal(t, byte(0xCD), buf[len(buf)-1])

	require.NoError(t, p.Deallocate(unsafe.Pointer(&buf[0]), 1<<20))
}

// TestDeallocateHostRejectsUnknownPointer checks the one case where an
// invalid free is actually reported: a host-delegated address the pool
// never handed out.
func TestDeallocateHostRejectsUnknownPointer(t *testing.T) {
	p := New()

	stray := make([]byte, 1<<20)
	err := p.Deallocate(unsafe.Pointer(&stray[0]), 1<<20)
	require.ErrorIs(t, err, ErrInvalidFree)
}

// TestDeallocateUnknownManagedPointerIsIgnored matches the pool's
// documented policy for pool-managed sizes: there is no per-block
// metadata to validate against, so a bogus free is silently ignored
// rather than reported.
func TestDeallocateUnknownManagedPointerIsIgnored(t *testing.T) {
	p := New()

	stray := make([]byte, 24)
	err := p.Deallocate(unsafe.Pointer(&stray[0]), 24)
	require.NoError(t, err)
}

// TestConcurrentAllocateDeallocateIsRaceFree drives many goroutines
// through mixed allocate/free traffic at once. Each goroutine keeps its
// own live set and frees whatever it still holds at the end; the test
// checks only that no Allocate or Deallocate call returns an error, and
// data races surface when it is run under the race detector.
func TestConcurrentAllocateDeallocateIsRaceFree(t *testing.T) {
	p := New()

	const goroutines = 8
	const ops = 2000

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func(seed int) {
			defer wg.Done()

			var live [][]byte
			rng := uint32(seed*7919 + 104729)
			nextRand := func() uint32 {
				rng ^= rng << 13
				rng ^= rng >> 17
				rng ^= rng << 5
				return rng
			}

			for i := 0; i < ops; i++ {
				if len(live) == 0 || nextRand()%10 < 7 {
					size := 8 + int(nextRand()%256)
					b, err := p.AllocateBytes(size)
					require.NoError(t, err)
					b[0] = byte(seed)
					live = append(live, b)
				} else {
					idx := int(nextRand()) % len(live)
					b := live[idx]
					require.NoError(t, p.Deallocate(unsafe.Pointer(&b[0]), len(b)))
					live[idx] = live[len(live)-1]
					live = live[:len(live)-1]
				}
			}

			for _, b := range live {
				require.NoError(t, p.Deallocate(unsafe.Pointer(&b[0]), len(b)))
			}
		}(g)
	}

	wg.Wait()
}

// TestAllocateZeroSizeReturnsSmallestClass exercises the floor applied to
// non-positive sizes rather than routing them through sizeclass.Index
// directly, which is only defined for b >= 1 in the way the pool calls it.
func TestAllocateZeroSizeReturnsSmallestClass(t *testing.T) {
	p := New()

	ptr, err := p.Allocate(0)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	require.NoError(t, p.Deallocate(ptr, 0))
}
