// Package sync provides synchronization primitive implementations for spinlocks.
package sync

import "sync/atomic"

const (
	// spinAttemptsBeforeYield is the number of failed acquisition attempts
	// after which the waiting task invokes yieldFn.
	spinAttemptsBeforeYield = 64
)

var (
	// yieldFn is invoked by tasks that fail to acquire a lock after
	// spinAttemptsBeforeYield attempts. The kernel has no scheduler to
	// yield to so it is nil by default and waiters keep spinning.
	yieldFn func()
)

// Spinlock implements a lock where each task trying to acquire it busy-waits
// till the lock becomes available. The zero value is an unlocked Spinlock.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the currently active task.
// Any attempt to re-acquire a lock already held by the current task will cause
// a deadlock.
func (l *Spinlock) Acquire() {
	acquireSpinlock(&l.state, spinAttemptsBeforeYield)
}

// TryToAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock allowing other tasks to acquire it. Calling
// Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

// Held returns true if the lock is currently held by some task.
func (l *Spinlock) Held() bool {
	return atomic.LoadUint32(&l.state) != 0
}

// Reset forcefully returns the lock to the unlocked state. It must only be
// used while initializing the structure that embeds the lock.
func (l *Spinlock) Reset() {
	atomic.StoreUint32(&l.state, 0)
}

func acquireSpinlock(state *uint32, attemptsBeforeYielding uint32) {
	for {
		for attempt := uint32(0); attempt < attemptsBeforeYielding; attempt++ {
			// Test before test-and-set so that waiters spin on a
			// shared cache line instead of bouncing it around.
			if atomic.LoadUint32(state) == 0 && atomic.CompareAndSwapUint32(state, 0, 1) {
				return
			}
		}

		if yieldFn != nil {
			yieldFn()
		}
	}
}
