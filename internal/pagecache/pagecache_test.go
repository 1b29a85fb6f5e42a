package pagecache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/tcache/internal/sizeclass"
	"github.com/joshuapare/tcache/pagesrc"
)

func TestAllocateSpanSplitsRemainderIntoFreeList(t *testing.T) {
	pc := New(pagesrc.Default())

	big, err := pc.AllocateSpan(8)
	require.NoError(t, err)
	pc.DeallocateSpan(big.Addr, 8)

	small, err := pc.AllocateSpan(3)
	require.NoError(t, err)
	require.Equal(t, big.Addr, small.Addr, "split should carve from the low end of the freed span")
	require.Equal(t, 3, small.Pages)

	// A 5-page remainder must now be registered as a free span.
	require.Equal(t, 1, pc.FreeSpanCount())
	k, ok := pc.lowerBound(5)
	require.True(t, ok)
	require.Equal(t, 5, k)
}

func TestDeallocateSpanCoalescesSplitSiblings(t *testing.T) {
	pc := New(pagesrc.Default())

	whole, err := pc.AllocateSpan(8)
	require.NoError(t, err)
	pc.DeallocateSpan(whole.Addr, 8)

	a, err := pc.AllocateSpan(4)
	require.NoError(t, err)
	require.Equal(t, whole.Addr, a.Addr)

	b, err := pc.AllocateSpan(4)
	require.NoError(t, err)
	require.Equal(t, whole.Addr+uintptr(4*sizeclass.PageSize), b.Addr)

	pc.DeallocateSpan(a.Addr, 4)
	pc.DeallocateSpan(b.Addr, 4)

	require.Equal(t, 1, pc.FreeSpanCount())
	k, ok := pc.lowerBound(8)
	require.True(t, ok)
	require.Equal(t, 8, k)
	_, has4 := pc.freeSpans[4]
	require.False(t, has4)
}

func TestDeallocateSpanUnknownAddrIsIgnored(t *testing.T) {
	pc := New(pagesrc.Default())
	require.NotPanics(t, func() {
		pc.DeallocateSpan(0xdeadbeef, 1)
	})
	require.Equal(t, 0, pc.FreeSpanCount())
}

func TestAllocateSpanNoFreeFallsBackToSystemPages(t *testing.T) {
	pc := New(pagesrc.Default())
	s, err := pc.AllocateSpan(2)
	require.NoError(t, err)
	require.Equal(t, 2, s.Pages)
	require.Len(t, s.Mem(), 2*sizeclass.PageSize)
}

func TestAllocateSpanCoalesceIdempotence(t *testing.T) {
	pc := New(pagesrc.Default())

	first, err := pc.AllocateSpan(4)
	require.NoError(t, err)
	pc.DeallocateSpan(first.Addr, 4)

	second, err := pc.AllocateSpan(4)
	require.NoError(t, err)
	require.Equal(t, first.Addr, second.Addr)
}

func TestAllocateSpanRejectsNonPositivePages(t *testing.T) {
	pc := New(pagesrc.Default())
	_, err := pc.AllocateSpan(0)
	require.Error(t, err)
}

func TestSpansNeverOverlap(t *testing.T) {
	pc := New(pagesrc.Default())

	var spans []*Span
	for i := 0; i < 20; i++ {
		s, err := pc.AllocateSpan(1)
		require.NoError(t, err)
		spans = append(spans, s)
	}

	for i := range spans {
		for j := range spans {
			if i == j {
				continue
			}
			aStart, aEnd := spans[i].Addr, spans[i].Addr+uintptr(spans[i].Pages*sizeclass.PageSize)
			bStart, bEnd := spans[j].Addr, spans[j].Addr+uintptr(spans[j].Pages*sizeclass.PageSize)
			overlap := aStart < bEnd && bStart < aEnd
			require.False(t, overlap, "spans %d and %d overlap", i, j)
		}
	}
}
