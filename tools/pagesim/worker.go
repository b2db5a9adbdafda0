//go:build linux && amd64

package main

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/sun-lingyu/MIT6.S081/kernel"
	"github.com/sun-lingyu/MIT6.S081/kernel/mm"
	"github.com/sun-lingyu/MIT6.S081/kernel/mm/pmm"
)

// ctxCheckInterval is the number of operations between checks for
// cancellation.
const ctxCheckInterval = 256

// worker allocates and releases pages on a single emulated core and checks
// every page it touches.
type worker struct {
	id, core int
	stamp    byte
	ops      int
	maxHeld  int

	pool    *pmm.Pool
	arena   *arena
	ledger  *ledger
	metrics *metrics
	rng     *rand.Rand

	held []uintptr
}

func (w *worker) run(ctx context.Context, cores *coreTable) error {
	unbind := cores.bind(w.core)
	defer unbind()

	for op := 0; op < w.ops; op++ {
		if op%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		var err error
		if len(w.held) == 0 || (len(w.held) < w.maxHeld && w.rng.Intn(2) == 0) {
			err = w.alloc()
		} else {
			err = w.free(w.rng.Intn(len(w.held)))
		}

		if err != nil {
			return errors.Wrapf(err, "worker %d (core %d)", w.id, w.core)
		}
	}

	for len(w.held) > 0 {
		if err := w.free(len(w.held) - 1); err != nil {
			return errors.Wrapf(err, "worker %d (core %d)", w.id, w.core)
		}
	}
	return nil
}

func (w *worker) alloc() error {
	addr, ok := w.pool.Alloc()
	if !ok {
		w.metrics.exhausted.Inc()
		return nil
	}

	if !w.arena.managed(addr) {
		return errors.Errorf("allocated page 0x%x is not a managed page address", addr)
	}

	if index := firstMismatch(w.arena.page(addr), pmm.AllocPoison); index >= 0 {
		return errors.Errorf("allocated page 0x%x: byte %d is 0x%x; expected 0x%x", addr, index, w.arena.page(addr)[index], pmm.AllocPoison)
	}

	if err := w.ledger.acquire(addr); err != nil {
		return err
	}

	kernel.Memset(addr, w.stamp, mm.PageSize)
	w.held = append(w.held, addr)
	w.metrics.allocs.Inc()
	return nil
}

func (w *worker) free(index int) error {
	addr := w.held[index]
	last := len(w.held) - 1
	w.held[index] = w.held[last]
	w.held = w.held[:last]

	if mismatch := firstMismatch(w.arena.page(addr), w.stamp); mismatch >= 0 {
		return errors.Errorf("page 0x%x was modified while held: byte %d is 0x%x", addr, mismatch, w.arena.page(addr)[mismatch])
	}

	if err := w.ledger.release(addr); err != nil {
		return err
	}

	w.pool.Free(addr)
	w.metrics.frees.Inc()
	return nil
}
