// Package tcdebug provides read-only diagnostics over a tcache.Pool: point-
// in-time snapshots of free-list lengths and span activity, rendered as
// slog records. It is imported only by cmd/tcachectl — never by tcache
// itself — so that polling for diagnostics never touches the allocator's
// hot path.
package tcdebug

import (
	"log/slog"
	"sync/atomic"

	"github.com/joshuapare/tcache/internal/sizeclass"

	"github.com/joshuapare/tcache"
)

// Snapshot is a point-in-time read of a Pool's internal state.
type Snapshot struct {
	FreeSpans     int
	CentralLens   []int // indexed by size class
	ThreadLens    []int // indexed by size class, caller's own thread only
	SpansAcquired int64
	SpansMerged   int64
}

// Monitor attaches span-activity counters to a Pool and produces snapshots
// on demand. Call Attach once per Pool before taking snapshots that need
// the acquired/merged counters populated.
type Monitor struct {
	pool *tcache.Pool

	acquired atomic.Int64
	merged   atomic.Int64
}

// NewMonitor creates a Monitor for pool. It does not attach itself; call
// Attach to wire the page cache's hooks.
func NewMonitor(pool *tcache.Pool) *Monitor {
	return &Monitor{pool: pool}
}

// Attach wires the pool's span hooks into the monitor's counters. It
// replaces any hooks the pool already had.
func (m *Monitor) Attach() {
	m.pool.SetSpanHooks(
		func(pages int) { m.acquired.Add(1) },
		func(pages int) { m.merged.Add(1) },
	)
}

// Snapshot reads the pool's current state. CentralLens and ThreadLens are
// allocated fresh each call; callers polling at high frequency should
// reuse the returned slices rather than call Snapshot in a tight loop.
func (m *Monitor) Snapshot() Snapshot {
	n := m.pool.NumClasses()
	s := Snapshot{
		FreeSpans:     m.pool.FreeSpanCount(),
		CentralLens:   make([]int, n),
		ThreadLens:    make([]int, n),
		SpansAcquired: m.acquired.Load(),
		SpansMerged:   m.merged.Load(),
	}
	for i := 0; i < n; i++ {
		s.CentralLens[i] = m.pool.CentralLen(i)
		s.ThreadLens[i] = m.pool.ThreadLen(i)
	}
	return s
}

// Log emits the snapshot as a single structured slog record at info
// level, summarizing rather than dumping all sizeclass.NumClasses entries
// — only classes with nonzero activity are attached as a group.
func Log(logger *slog.Logger, s Snapshot) {
	active := make([]any, 0, 8)
	for i := 0; i < len(s.CentralLens); i++ {
		if s.CentralLens[i] == 0 && s.ThreadLens[i] == 0 {
			continue
		}
		active = append(active, slog.Group(
			"class",
			slog.Int("index", i),
			slog.Int("size", sizeclass.Size(i)),
			slog.Int("central_len", s.CentralLens[i]),
			slog.Int("thread_len", s.ThreadLens[i]),
		))
	}

	logger.Info("tcache snapshot",
		slog.Int("free_spans", s.FreeSpans),
		slog.Int64("spans_acquired", s.SpansAcquired),
		slog.Int64("spans_merged", s.SpansMerged),
		slog.Any("active_classes", active),
	)
}
