// Package sizeclass computes the static size-class mapping shared by every
// tier of the pool.
//
// Size classes are multiples of Alignment from Alignment up to MaxManaged,
// one class per multiple, so there is no internal fragmentation beyond
// Alignment-1 bytes per allocation.
package sizeclass

const (
	// Alignment is the allocation floor; every class size is a multiple of it.
	Alignment = 8

	// MaxManaged is the largest request the pool will service itself.
	// Requests above this are delegated to the host allocator.
	MaxManaged = 262144

	// NumClasses is the number of distinct size classes in [Alignment, MaxManaged].
	NumClasses = MaxManaged / Alignment

	// PageSize is the unit of OS-facing allocation used by the page tier.
	PageSize = 4096

	// SpanPages is the number of pages carved into a span when the central
	// cache refills from the page cache.
	SpanPages = 8

	// HighWater is the thread-cache free-list length above which the
	// return-to-central protocol fires.
	HighWater = 64
)

// Index returns the size-class index for a request of b bytes.
//
// b must satisfy 1 <= b <= MaxManaged; callers above MaxManaged must route
// to the host allocator instead of calling Index.
func Index(b int) int {
	if b < 1 {
		b = 1
	}
	return (b+Alignment-1)/Alignment - 1
}

// Size returns the block size in bytes for class i.
func Size(i int) int {
	return (i + 1) * Alignment
}

// Oversized reports whether b exceeds the pool's managed ceiling and must
// be delegated to the host allocator.
func Oversized(b int) bool {
	return b > MaxManaged
}

// BatchCount returns the number of blocks a thread cache should request
// from the central cache in one refill, for a class whose block size is s.
//
// The schedule favors small blocks (more blocks per batch, since each is
// cheap) while capping the total bytes moved per refill at one page.
func BatchCount(s int) int {
	var base int
	switch {
	case s <= 32:
		base = 64
	case s <= 64:
		base = 32
	case s <= 128:
		base = 16
	case s <= 256:
		base = 8
	case s <= 512:
		base = 4
	case s <= 1024:
		base = 2
	default:
		base = 1
	}

	cap := PageSize / s
	if cap < 1 {
		cap = 1
	}

	batch := base
	if cap < batch {
		batch = cap
	}
	if batch < 1 {
		batch = 1
	}
	return batch
}
