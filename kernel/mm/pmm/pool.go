package pmm

import (
	"sync/atomic"

	"github.com/sun-lingyu/MIT6.S081/kernel"
	"github.com/sun-lingyu/MIT6.S081/kernel/cpu"
	"github.com/sun-lingyu/MIT6.S081/kernel/kfmt"
	"github.com/sun-lingyu/MIT6.S081/kernel/mm"
	"github.com/sun-lingyu/MIT6.S081/kernel/sync"
)

const (
	// FreePoison is written over every byte of a page when it is released
	// so that accesses through dangling references are easy to spot.
	FreePoison = byte(0x01)

	// AllocPoison is written over every byte of a page before it is handed
	// out. It erases the free list linkage and exposes reads of memory
	// that the caller never initialized.
	AllocPoison = byte(0x05)

	cacheLineSize = 64
)

var (
	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	panicFn   = kfmt.Panic
	memsetFn  = kernel.Memset
	acquireFn = (*sync.Spinlock).Acquire

	errInvalidFree      = &kernel.Error{Module: "pmm", Message: "free: invalid page address"}
	errInvalidCore      = &kernel.Error{Module: "pmm", Message: "core id outside of the pool"}
	errCorruptFreeList  = &kernel.Error{Module: "pmm", Message: "free list corrupted"}
	errInvalidCoreCount = &kernel.Error{Module: "pmm", Message: "invalid core count"}
	errEmptyRange       = &kernel.Error{Module: "pmm", Message: "physical range contains no pages"}
)

// perCore is the free list owned by a single core. Entries are padded to a
// cache line so that cores working on their own lists do not contend.
type perCore struct {
	lock sync.Spinlock

	// head is the address of the first free page or 0 if the list is
	// empty.
	head uintptr

	_ [cacheLineSize - 16]byte
}

// Stats is a snapshot of the pool state. Free counts are obtained by walking
// each list; the remaining counters are informational and are never used to
// make allocation decisions.
type Stats struct {
	// Free holds the length of each per-core list.
	Free [cpu.MaxCPUs]int

	// TotalFree is the sum of all Free entries.
	TotalFree int

	Allocs    uint64
	Frees     uint64
	Steals    uint64
	Exhausted uint64
}

// Pool hands out fixed-size physical pages from a set of per-core free
// lists. Each list is protected by its own spinlock and is only ever grown
// by its own core; a core whose list runs dry takes a page from the first
// other core that has one.
//
// No code path in Pool holds more than one list lock at a time. This is what
// keeps the pool free of deadlocks without a global lock order; any change
// that needs two of these locks at once must revisit it.
type Pool struct {
	// PinFn pins the calling task to its current core for the duration of
	// a list operation. It defaults to cpu.Pin when the pool is
	// initialized.
	PinFn func() cpu.Pinned

	cores [cpu.MaxCPUs]perCore
	ncpu  int

	kernelEnd, physTop uintptr
	firstPage          uintptr
	totalPages         int

	allocs    atomic.Uint64
	frees     atomic.Uint64
	steals    atomic.Uint64
	exhausted atomic.Uint64
}

// Init resets the pool to manage ncpu per-core lists and releases every
// page-aligned page in [kernelEnd, physTop) into the list of the calling
// core. It must be called once, by a single core, before any other core
// uses the pool.
func (p *Pool) Init(ncpu int, kernelEnd, physTop uintptr) *kernel.Error {
	if ncpu < 1 || ncpu > cpu.MaxCPUs {
		return errInvalidCoreCount
	}

	firstPage := mm.PageRoundUp(kernelEnd)
	if firstPage < kernelEnd || physTop < mm.PageSize || firstPage > physTop-mm.PageSize {
		return errEmptyRange
	}

	for index := range p.cores {
		p.cores[index].lock.Reset()
		p.cores[index].head = 0
	}

	if p.PinFn == nil {
		p.PinFn = cpu.Pin
	}

	p.ncpu = ncpu
	p.kernelEnd, p.physTop = kernelEnd, physTop
	p.firstPage = firstPage
	p.totalPages = 0

	for addr, lastPage := firstPage, physTop-mm.PageSize; addr <= lastPage; addr += mm.PageSize {
		p.Free(addr)
		p.totalPages++
	}

	// Only count traffic that happens after the initial sweep.
	p.allocs.Store(0)
	p.frees.Store(0)
	p.steals.Store(0)
	p.exhausted.Store(0)

	return nil
}

// NumCores returns the number of per-core lists managed by the pool.
func (p *Pool) NumCores() int {
	return p.ncpu
}

// TotalPages returns the number of pages that the pool was initialized with.
// Free and allocated pages always add up to this value.
func (p *Pool) TotalPages() int {
	return p.totalPages
}

// Range returns the address of the first managed page and the physical top
// bound.
func (p *Pool) Range() (uintptr, uintptr) {
	return p.firstPage, p.physTop
}

// Free releases the page at addr to the free list of the calling core. The
// address must be page-aligned and lie within [kernelEnd, physTop); any other
// value indicates memory corruption and causes a kernel panic.
func (p *Pool) Free(addr uintptr) {
	if !mm.PageAligned(addr) || addr < p.kernelEnd || addr >= p.physTop {
		panicFn(errInvalidFree)
		return
	}

	memsetFn(addr, FreePoison, mm.PageSize)

	pin := p.PinFn()
	list := p.local(pin)
	if list == nil {
		pin.Unpin()
		return
	}

	acquireFn(&list.lock)
	markFree(addr, list.head)
	list.head = addr
	list.lock.Release()

	pin.Unpin()
	p.frees.Add(1)
}

// Alloc reserves a page and returns its address. If the calling core's list
// is empty, Alloc makes a single pass over the other cores in ascending order
// and takes a page from the first one that has any. It returns false if no
// free page exists.
func (p *Pool) Alloc() (uintptr, bool) {
	var addr uintptr

	pin := p.PinFn()
	if list := p.local(pin); list != nil {
		if addr = p.pop(list); addr == 0 {
			addr = p.steal(pin.ID())
		}
	}
	pin.Unpin()

	if addr == 0 {
		p.exhausted.Add(1)
		return 0, false
	}

	memsetFn(addr, AllocPoison, mm.PageSize)
	p.allocs.Add(1)
	return addr, true
}

// local returns the list owned by the core that pin refers to.
func (p *Pool) local(pin cpu.Pinned) *perCore {
	if id := pin.ID(); id >= 0 && id < p.ncpu {
		return &p.cores[id]
	}

	panicFn(errInvalidCore)
	return nil
}

// pop unlinks and returns the head of list or 0 if the list is empty. The
// list lock is held only for the duration of the unlink.
func (p *Pool) pop(list *perCore) uintptr {
	acquireFn(&list.lock)
	addr := list.head
	if addr != 0 {
		next, ok := takeFree(addr)
		if !ok {
			list.lock.Release()
			panicFn(errCorruptFreeList)
			return 0
		}
		list.head = next
	}
	list.lock.Release()

	return addr
}

// steal takes a page from the first non-empty list of a core other than
// self. The caller must not hold any list lock.
func (p *Pool) steal(self int) uintptr {
	for core := 0; core < p.ncpu; core++ {
		if core == self {
			continue
		}

		if addr := p.pop(&p.cores[core]); addr != 0 {
			p.steals.Add(1)
			return addr
		}
	}

	return 0
}

// FreeCount returns the number of pages in the free list of core.
func (p *Pool) FreeCount(core int) int {
	count := 0
	p.walk(core, func(uintptr) bool {
		count++
		return true
	})
	return count
}

// VisitFree invokes fn for every free page, one core list at a time, until fn
// returns false. The list lock of the visited core is held while fn runs so
// fn must not call back into the pool.
func (p *Pool) VisitFree(fn func(core int, addr uintptr) bool) {
	for core := 0; core < p.ncpu; core++ {
		keepGoing := true
		p.walk(core, func(addr uintptr) bool {
			keepGoing = fn(core, addr)
			return keepGoing
		})

		if !keepGoing {
			return
		}
	}
}

// Stats returns a snapshot of the pool. The per-core counts are read one list
// at a time so the snapshot is only exact while the pool is quiescent.
func (p *Pool) Stats() Stats {
	var stats Stats
	for core := 0; core < p.ncpu; core++ {
		stats.Free[core] = p.FreeCount(core)
		stats.TotalFree += stats.Free[core]
	}

	stats.Allocs = p.allocs.Load()
	stats.Frees = p.frees.Load()
	stats.Steals = p.steals.Load()
	stats.Exhausted = p.exhausted.Load()
	return stats
}

// walk invokes fn for each page in the list of core while holding its lock.
// The list is named explicitly so the caller does not need to run on any
// particular core. Walks must not be started from interrupt handlers.
func (p *Pool) walk(core int, fn func(addr uintptr) bool) {
	if core < 0 || core >= p.ncpu {
		return
	}

	list := &p.cores[core]

	acquireFn(&list.lock)
	for addr := list.head; addr != 0 && fn(addr); {
		next, ok := peekFree(addr)
		if !ok {
			list.lock.Release()
			panicFn(errCorruptFreeList)
			return
		}
		addr = next
	}
	list.lock.Release()
}
