//go:build linux && amd64

package main

import (
	"fmt"
	"runtime"

	lock "github.com/viney-shih/go-lock"
	"golang.org/x/sys/unix"

	"github.com/sun-lingyu/MIT6.S081/kernel/cpu"
)

// coreTable emulates cores with OS threads. A goroutine that is bound to a
// core stays locked to its thread, so the thread id identifies the core for
// as long as the binding lasts and a pinned guard can never migrate.
type coreTable struct {
	mu    lock.RWMutex
	cores map[int]int
}

func newCoreTable() *coreTable {
	return &coreTable{
		mu:    lock.NewCASMutex(),
		cores: make(map[int]int),
	}
}

// bind locks the calling goroutine to its OS thread and maps the thread to
// core. The returned function undoes the binding and must be called from the
// same goroutine.
func (t *coreTable) bind(core int) func() {
	runtime.LockOSThread()
	tid := unix.Gettid()

	t.mu.Lock()
	t.cores[tid] = core
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.cores, tid)
		t.mu.Unlock()

		runtime.UnlockOSThread()
	}
}

// pin returns a guard for the core that the calling thread is bound to. It
// is installed as the pool's PinFn.
func (t *coreTable) pin() cpu.Pinned {
	tid := unix.Gettid()

	t.mu.RLock()
	core, ok := t.cores[tid]
	t.mu.RUnlock()

	if !ok {
		panic(fmt.Sprintf("pagesim: thread %d is not bound to a core", tid))
	}
	return cpu.PinnedTo(core, nil)
}
