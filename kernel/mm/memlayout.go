package mm

const (
	// KernBase is the physical address where the boot loader places the
	// kernel image.
	KernBase = uintptr(0x80000000)

	// PhysTop is the upper bound (exclusive) of the physical memory that
	// the kernel manages. Everything between the end of the kernel image
	// and PhysTop is handed to the physical page allocator.
	PhysTop = KernBase + 128*1024*1024
)

// PageRoundUp rounds addr up to the nearest page boundary.
func PageRoundUp(addr uintptr) uintptr {
	return (addr + PageSize - 1) &^ (PageSize - 1)
}

// PageRoundDown rounds addr down to the page that contains it.
func PageRoundDown(addr uintptr) uintptr {
	return addr &^ (PageSize - 1)
}

// PageAligned returns true if addr is a multiple of PageSize.
func PageAligned(addr uintptr) bool {
	return addr&(PageSize-1) == 0
}
