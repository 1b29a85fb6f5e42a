// Package tid resolves an identifier for the calling OS thread, used by
// the pool to give each OS thread its own thread cache.
//
// Go has no native concept of thread-local storage for goroutines — the
// runtime is free to migrate a goroutine between OS threads at any
// scheduling point unless the goroutine has called runtime.LockOSThread.
// On Linux, Current returns the id of whichever OS thread the caller is on
// at that moment, which stays the same across calls only for a goroutine
// that has made that call. On other platforms every caller, locked or not,
// gets the single fallback identifier, which is still correct (just less
// optimally batched — see the tcache package's Open Question note).
package tid

// Current returns an identifier for the OS thread the calling goroutine is
// currently running on.
func Current() int64 {
	return current()
}
