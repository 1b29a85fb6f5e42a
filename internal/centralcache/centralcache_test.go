package centralcache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/tcache/internal/block"
	"github.com/joshuapare/tcache/internal/pagecache"
	"github.com/joshuapare/tcache/internal/sizeclass"
	"github.com/joshuapare/tcache/pagesrc"
)

func TestFetchRangeRefillsFromPageCacheOnFirstUse(t *testing.T) {
	pc := pagecache.New(pagesrc.Default())
	cc := New(pc)

	i := sizeclass.Index(24)
	s := sizeclass.Size(i)
	total := (sizeclass.SpanPages * sizeclass.PageSize) / s

	head, got := cc.FetchRange(i, 8)
	require.NotNil(t, head)
	require.Equal(t, 8, got)
	require.Equal(t, total-8, cc.Len(i))
}

func TestFetchRangeSplitsExistingListBeforeRefilling(t *testing.T) {
	pc := pagecache.New(pagesrc.Default())
	cc := New(pc)
	i := sizeclass.Index(24)

	// Prime the central list via a first fetch, then return it all so the
	// list is populated and no further page-cache traffic is needed.
	head, got := cc.FetchRange(i, 64)
	cc.ReturnRange(head, got, i)

	before := cc.Len(i)
	require.Greater(t, before, 10)

	head2, got2 := cc.FetchRange(i, 10)
	require.NotNil(t, head2)
	require.Equal(t, 10, got2)
	require.Equal(t, before-10, cc.Len(i))
}

func TestReturnRangeSplicesOntoFront(t *testing.T) {
	pc := pagecache.New(pagesrc.Default())
	cc := New(pc)
	i := sizeclass.Index(24)
	s := sizeclass.Size(i)
	total := (sizeclass.SpanPages * sizeclass.PageSize) / s

	head, got := cc.FetchRange(i, 5)
	require.Equal(t, 5, got)
	require.Equal(t, total-5, cc.Len(i))

	cc.ReturnRange(head, got, i)
	require.Equal(t, total, cc.Len(i))

	// The returned chain now sits in front of the rest of the list: walking
	// from its head must reach every carved block and terminate (no cycle).
	n := 0
	for p := head; p != nil; p = block.Next(p) {
		n++
		require.LessOrEqual(t, n, total, "unexpected cycle in returned free list")
	}
	require.Equal(t, total, n)
}

func TestFetchRangeCarvesFullSpanWithoutGaps(t *testing.T) {
	pc := pagecache.New(pagesrc.Default())
	cc := New(pc)
	i := sizeclass.Index(64)
	s := sizeclass.Size(i)
	total := (sizeclass.SpanPages * sizeclass.PageSize) / s

	head, got := cc.FetchRange(i, total)
	require.Equal(t, total, got)

	n := 0
	for p := head; p != nil; p = block.Next(p) {
		n++
	}
	require.Equal(t, total, n, "every carved block must be reachable from the returned chain")
}

func TestLenIsZeroBeforeAnyUse(t *testing.T) {
	pc := pagecache.New(pagesrc.Default())
	cc := New(pc)
	require.Equal(t, 0, cc.Len(sizeclass.Index(24)))
}
