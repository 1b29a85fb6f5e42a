//go:build unix

package pagesrc

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// mmapPages acquires pages via an anonymous mmap, the same primitive the
// teacher's internal/mmfile package uses to map hive files read-only.
type mmapPages struct{}

func defaultImpl() SystemPages { return mmapPages{} }

// AllocatePages maps n bytes of anonymous, zero-filled memory.
func (mmapPages) AllocatePages(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("pagesrc: invalid page request %d", n)
	}
	data, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("pagesrc: mmap %d bytes: %w", n, err)
	}
	return data, nil
}
