//go:build linux && amd64

package main

import (
	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
)

// ledger tracks the pages currently handed out by the pool. A page that is
// added twice has been allocated twice.
type ledger struct {
	held mapset.Set
}

func newLedger() *ledger {
	return &ledger{held: mapset.NewSet()}
}

func (l *ledger) acquire(addr uintptr) error {
	if !l.held.Add(addr) {
		return errors.Errorf("page 0x%x handed out while already allocated", addr)
	}
	return nil
}

func (l *ledger) release(addr uintptr) error {
	if !l.held.Contains(addr) {
		return errors.Errorf("page 0x%x released without being allocated", addr)
	}
	l.held.Remove(addr)
	return nil
}

func (l *ledger) count() int {
	return l.held.Cardinality()
}
