//go:build !linux

package tid

// current falls back to a single process-wide slot on platforms where
// golang.org/x/sys/unix has no Gettid. Every goroutine then shares one
// thread cache, serialized by the pool's per-slot mutex, which is correct
// but forgoes per-thread batching.
func current() int64 {
	return 0
}
