//go:build linux && amd64

package main

import (
	"context"
	"math/rand"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sun-lingyu/MIT6.S081/kernel/mm/pmm"
)

// Report summarizes a completed simulation.
type Report struct {
	TotalPages int
	FreeByCore []int
	Allocs     uint64
	Frees      uint64
	Steals     uint64
	Exhausted  uint64
	Elapsed    time.Duration
}

// Run initializes a page pool over a fresh arena on core 0, lets the
// configured workers hammer it and then checks the pool invariants at
// quiescence.
func Run(ctx context.Context, cfg Config, log *zap.Logger, m *metrics) (Report, error) {
	if err := cfg.validate(); err != nil {
		return Report{}, err
	}

	a, err := newArena(cfg.KernelPages, cfg.Pages)
	if err != nil {
		return Report{}, err
	}
	defer a.Close()

	var (
		cores = newCoreTable()
		pool  = &pmm.Pool{PinFn: cores.pin}
		led   = newLedger()
	)

	unbind := cores.bind(0)
	initErr := pool.Init(cfg.Cores, a.kernelEnd, a.physTop)
	unbind()
	if initErr != nil {
		return Report{}, errors.Wrap(initErr, "init page pool")
	}

	firstPage, physTop := pool.Range()
	log.Info("page pool initialized",
		zap.Int("cores", cfg.Cores),
		zap.Int("pages", pool.TotalPages()),
		zap.Uintptr("first_page", firstPage),
		zap.Uintptr("phys_top", physTop),
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for id := 0; id < cfg.Workers; id++ {
		w := &worker{
			id:      id,
			core:    id % cfg.Cores,
			stamp:   byte(0x80 | id&0x7f),
			ops:     cfg.Ops,
			maxHeld: cfg.MaxHeld,
			pool:    pool,
			arena:   a,
			ledger:  led,
			metrics: m,
			rng:     rand.New(rand.NewSource(cfg.Seed + int64(id))),
		}

		g.Go(func() error {
			return w.run(gctx, cores)
		})
	}

	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	elapsed := time.Since(start)

	stats := pool.Stats()
	m.observe(stats, cfg.Cores)

	if err := checkQuiescent(pool, a, led); err != nil {
		return Report{}, err
	}

	report := Report{
		TotalPages: pool.TotalPages(),
		FreeByCore: append([]int(nil), stats.Free[:cfg.Cores]...),
		Allocs:     stats.Allocs,
		Frees:      stats.Frees,
		Steals:     stats.Steals,
		Exhausted:  stats.Exhausted,
		Elapsed:    elapsed,
	}

	log.Info("simulation finished",
		zap.Int("workers", cfg.Workers),
		zap.Uint64("allocs", report.Allocs),
		zap.Uint64("frees", report.Frees),
		zap.Uint64("steals", report.Steals),
		zap.Uint64("exhausted", report.Exhausted),
		zap.Ints("free_by_core", report.FreeByCore),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// checkQuiescent verifies the pool invariants while no worker is running:
// every free page is a managed page that sits on exactly one list, free and
// held pages add up to the pool size, and the kernel image is untouched.
func checkQuiescent(pool *pmm.Pool, a *arena, led *ledger) error {
	var (
		free      = mapset.NewSet()
		violation error
	)

	pool.VisitFree(func(core int, addr uintptr) bool {
		switch {
		case !a.managed(addr):
			violation = errors.Errorf("core %d: free page 0x%x is outside the managed range", core, addr)
		case !free.Add(addr):
			violation = errors.Errorf("core %d: page 0x%x is on more than one free list", core, addr)
		}
		return violation == nil
	})

	if violation != nil {
		return violation
	}

	if got, exp := free.Cardinality()+led.count(), pool.TotalPages(); got != exp {
		return errors.Errorf("page conservation violated: %d free + %d held != %d pages", free.Cardinality(), led.count(), exp)
	}

	if !a.kernelIntact() {
		return errors.New("kernel image region was modified")
	}
	return nil
}
