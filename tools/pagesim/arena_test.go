//go:build linux && amd64

package main

import (
	"testing"

	"github.com/magiconair/properties/assert"

	"github.com/sun-lingyu/MIT6.S081/kernel"
	"github.com/sun-lingyu/MIT6.S081/kernel/mm"
)

func TestArena(t *testing.T) {
	a, err := newArena(2, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	assert.Equal(t, a.kernelEnd-a.base, 2*mm.PageSize)
	assert.Equal(t, a.physTop-a.base, 6*mm.PageSize)
	assert.Equal(t, a.kernelIntact(), true)

	specs := []struct {
		addr   uintptr
		expect bool
	}{
		{a.base, false},
		{a.kernelEnd - mm.PageSize, false},
		{a.kernelEnd, true},
		{a.kernelEnd + 1, false},
		{a.physTop - mm.PageSize, true},
		{a.physTop, false},
	}

	for specIndex, spec := range specs {
		if got := a.managed(spec.addr); got != spec.expect {
			t.Errorf("[spec %d] expected managed(0x%x) to return %t; got %t", specIndex, spec.addr, spec.expect, got)
		}
	}

	kernel.Memset(a.kernelEnd, 0xaa, mm.PageSize)
	assert.Equal(t, firstMismatch(a.page(a.kernelEnd), 0xaa), -1)
	assert.Equal(t, a.kernelIntact(), true)

	a.mem[mm.PageSize+7] = 0
	assert.Equal(t, a.kernelIntact(), false)
}

func TestFirstMismatch(t *testing.T) {
	specs := []struct {
		input  []byte
		value  byte
		expect int
	}{
		{nil, 1, -1},
		{[]byte{1, 1, 1}, 1, -1},
		{[]byte{1, 1, 2}, 1, 2},
		{[]byte{0, 1, 1}, 1, 0},
	}

	for specIndex, spec := range specs {
		if got := firstMismatch(spec.input, spec.value); got != spec.expect {
			t.Errorf("[spec %d] expected firstMismatch to return %d; got %d", specIndex, spec.expect, got)
		}
	}
}
