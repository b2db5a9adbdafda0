package cpu

var (
	cpuidFn = ID
)

// EnableInterrupts enables interrupt handling.
func EnableInterrupts()

// DisableInterrupts disables interrupt handling.
func DisableInterrupts()

// InterruptsEnabled returns true if the IF flag of the current core is set.
func InterruptsEnabled() bool

// Halt stops instruction execution.
func Halt()

// ID returns information about the CPU and its features. It
// is implemented as a CPUID instruction with EAX=leaf and
// returns the values in EAX, EBX, ECX and EDX.
func ID(leaf uint32) (uint32, uint32, uint32, uint32)

// CoreID returns the index of the core executing the caller. The index is the
// initial local APIC id reported by CPUID leaf 1; the boot code only brings up
// cores whose APIC id is below MaxCPUs.
//
// The returned value is only meaningful while the caller cannot migrate to
// another core. Use Pin to obtain an id that stays valid.
func CoreID() int {
	_, ebx, _, _ := cpuidFn(1)
	return int(ebx >> 24)
}
