package kmain

import (
	"github.com/sun-lingyu/MIT6.S081/kernel"
	"github.com/sun-lingyu/MIT6.S081/kernel/kfmt"
	"github.com/sun-lingyu/MIT6.S081/kernel/mm"
	"github.com/sun-lingyu/MIT6.S081/kernel/mm/pmm"
)

var (
	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	pmmInitFn = pmm.Init
	panicFn   = kfmt.Panic

	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}
)

// Kmain is the only Go symbol that is visible (exported) from the rt0 initialization
// code. This function is invoked by the rt0 assembly code on the boot core after
// setting up the GDT and a minimal g0 struct that allows Go code to use the 4K
// stack allocated by the assembly code.
//
// The rt0 code passes the physical addresses for the kernel start/end. All
// memory from the end of the kernel image up to mm.PhysTop is handed to the
// physical page allocator before any other core is started.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(kernelStart, kernelEnd uintptr) {
	kfmt.Printf("[kmain] kernel image at [0x%x - 0x%x)\n", kernelStart, kernelEnd)

	if err := pmmInitFn(kernelEnd, mm.PhysTop); err != nil {
		panicFn(err)
		return
	}

	// Use panicFn instead of panic to prevent the compiler from
	// treating kfmt.Panic as dead-code and eliminating it.
	panicFn(errKmainReturned)
}
