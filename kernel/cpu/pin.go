package cpu

// MaxCPUs defines the maximum number of cores that the kernel can manage.
const MaxCPUs = 8

var (
	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	disableInterruptsFn = DisableInterrupts
	enableInterruptsFn  = EnableInterrupts
	interruptsEnabledFn = InterruptsEnabled
	coreIDFn            = CoreID

	// pinState is only ever accessed by its own core with interrupts
	// disabled so it requires no locking.
	pinState [MaxCPUs]pinDepth
)

// pinDepth tracks nested Pin calls on a single core.
type pinDepth struct {
	depth int

	// intena records whether interrupts were enabled before the
	// outermost Pin call.
	intena bool
}

// Pinned is returned by Pin. While a Pinned value is held, the task that
// obtained it keeps running on core ID(); the core id and anything guarded by
// it (e.g. a per-core lock) cannot be separated by a migration.
//
// Every Pinned value must be released exactly once via Unpin.
type Pinned struct {
	id      int
	release func(id int)
}

// Pin suspends preemption on the current core and returns a guard that
// identifies it. Calls to Pin nest; interrupts are re-enabled only when the
// outermost guard is released and only if they were enabled before it was
// obtained.
//
// A core id outside [0, MaxCPUs) is not tracked: Pin restores the interrupt
// flag and returns a guard with no release function, leaving it to the
// caller to reject the id.
func Pin() Pinned {
	wasEnabled := interruptsEnabledFn()
	disableInterruptsFn()

	id := coreIDFn()
	if id < 0 || id >= MaxCPUs {
		if wasEnabled {
			enableInterruptsFn()
		}
		return Pinned{id: id}
	}

	state := &pinState[id]
	if state.depth == 0 {
		state.intena = wasEnabled
	}
	state.depth++

	return Pinned{id: id, release: unpin}
}

// PinnedTo returns a guard for core id whose Unpin invokes release (which may
// be nil). Hosted environments that emulate cores, for instance by locking
// OS threads, use it to supply their own pinning discipline.
func PinnedTo(id int, release func(id int)) Pinned {
	return Pinned{id: id, release: release}
}

// ID returns the index of the core that the guard is pinned to.
func (p Pinned) ID() int {
	return p.id
}

// Unpin releases the guard.
func (p Pinned) Unpin() {
	if p.release != nil {
		p.release(p.id)
	}
}

func unpin(id int) {
	state := &pinState[id]
	if state.depth == 0 {
		return
	}

	state.depth--
	if state.depth == 0 && state.intena {
		enableInterruptsFn()
	}
}
