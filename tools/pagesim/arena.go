//go:build linux && amd64

package main

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/sun-lingyu/MIT6.S081/kernel"
	"github.com/sun-lingyu/MIT6.S081/kernel/mm"
)

// kernelImageByte fills the pages that stand in for the kernel image.
const kernelImageByte = byte(0x4b)

// arena is an anonymous memory mapping that plays the role of physical
// memory. Its first kernelPages pages stand in for the kernel image and the
// remaining pages are managed by the pool.
type arena struct {
	mem []byte

	base, kernelEnd, physTop uintptr
}

func newArena(kernelPages, pages int) (*arena, error) {
	size := (kernelPages + pages) * int(mm.PageSize)
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap %d bytes", size)
	}

	base := uintptr(unsafe.Pointer(&mem[0]))
	a := &arena{
		mem:       mem,
		base:      base,
		kernelEnd: base + uintptr(kernelPages)*mm.PageSize,
		physTop:   base + uintptr(size),
	}

	if kernelPages > 0 {
		kernel.Memset(a.base, kernelImageByte, a.kernelEnd-a.base)
	}
	return a, nil
}

// managed returns true if addr is a page-aligned address inside the range
// handed to the pool.
func (a *arena) managed(addr uintptr) bool {
	return mm.PageAligned(addr) && addr >= a.kernelEnd && addr < a.physTop
}

// page returns the contents of the page at addr.
func (a *arena) page(addr uintptr) []byte {
	offset := addr - a.base
	return a.mem[offset : offset+mm.PageSize]
}

// kernelIntact returns false if any byte of the kernel image region was
// modified.
func (a *arena) kernelIntact() bool {
	return firstMismatch(a.mem[:a.kernelEnd-a.base], kernelImageByte) < 0
}

func (a *arena) Close() error {
	return errors.Wrap(unix.Munmap(a.mem), "munmap arena")
}

// firstMismatch returns the index of the first byte in b that differs from
// value or -1 if there is none.
func firstMismatch(b []byte, value byte) int {
	for index, v := range b {
		if v != value {
			return index
		}
	}
	return -1
}
