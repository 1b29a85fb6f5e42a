// Package block implements the intrusive free-list primitive shared by the
// thread cache and the central cache: while a block is free, its first
// machine word holds the address of the next free block (or nil).
//
// A free block is not a Go value of any declared type — it is an
// uninitialized region of memory on loan from a span. Reading or writing
// its next-pointer therefore has to go through an unsafe overlay rather
// than a typed field access; this package is the only place in the module
// that does so, so the rest of the tiers can stay ordinary Go.
package block

import "unsafe"

// Next reads the next-pointer stored in the first word of the block at p.
//
// The caller must know that p currently designates a free block; reading
// the next-pointer of a block the caller has handed to a user is undefined
// by contract (the allocator never does this).
func Next(p unsafe.Pointer) unsafe.Pointer {
	return *(*unsafe.Pointer)(p)
}

// SetNext writes next into the first word of the block at p.
func SetNext(p unsafe.Pointer, next unsafe.Pointer) {
	*(*unsafe.Pointer)(p) = next
}

// At returns a pointer to the byte at offset off within mem, suitable for
// carving a block out of a span's backing storage.
func At(mem []byte, off int) unsafe.Pointer {
	return unsafe.Pointer(&mem[off])
}
