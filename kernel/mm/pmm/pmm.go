// Package pmm implements the kernel physical page allocator.
package pmm

import (
	"github.com/sun-lingyu/MIT6.S081/kernel"
	"github.com/sun-lingyu/MIT6.S081/kernel/cpu"
	"github.com/sun-lingyu/MIT6.S081/kernel/kfmt"
	"github.com/sun-lingyu/MIT6.S081/kernel/mm"
)

var (
	// pagePool is the allocator used by the kernel for all physical page
	// allocations. It is initialized exactly once by Init.
	pagePool Pool

	errOutOfMemory = &kernel.Error{Module: "pmm", Message: "out of memory"}
)

// Init sets up the kernel physical memory allocation sub-system. All memory
// between kernelEnd and physTop is released into the page pool and the pool
// is registered as the frame allocator used by the rest of the kernel.
//
// Init must be called by the boot core before any other core is started.
func Init(kernelEnd, physTop uintptr) *kernel.Error {
	if err := pagePool.Init(cpu.MaxCPUs, kernelEnd, physTop); err != nil {
		return err
	}

	firstPage, _ := pagePool.Range()
	kfmt.Printf("[pmm] %d pages free in [0x%x - 0x%x)\n", pagePool.TotalPages(), firstPage, physTop)

	mm.SetFrameAllocator(allocFrame)
	mm.SetFrameReleaser(freeFrame)
	return nil
}

// Alloc reserves a physical page and returns its address. It returns false if
// the system is out of memory.
func Alloc() (uintptr, bool) {
	return pagePool.Alloc()
}

// Free returns a page obtained by Alloc to the pool.
func Free(addr uintptr) {
	pagePool.Free(addr)
}

// Snapshot returns the current statistics of the kernel page pool.
func Snapshot() Stats {
	return pagePool.Stats()
}

// allocFrame adapts the page pool to the mm.FrameAllocatorFn signature.
func allocFrame() (mm.Frame, *kernel.Error) {
	addr, ok := pagePool.Alloc()
	if !ok {
		return mm.InvalidFrame, errOutOfMemory
	}

	return mm.FrameFromAddress(addr), nil
}

func freeFrame(frame mm.Frame) {
	pagePool.Free(frame.Address())
}
