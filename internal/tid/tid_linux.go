//go:build linux

package tid

import "golang.org/x/sys/unix"

func current() int64 {
	return int64(unix.Gettid())
}
