//go:build linux && amd64

package main

import (
	"testing"

	"github.com/magiconair/properties/assert"
)

func TestLedger(t *testing.T) {
	led := newLedger()

	assert.Equal(t, led.acquire(0x1000), nil)
	assert.Equal(t, led.acquire(0x2000), nil)
	assert.Equal(t, led.count(), 2)

	if err := led.acquire(0x1000); err == nil {
		t.Fatal("expected acquiring an allocated page to fail")
	}

	assert.Equal(t, led.release(0x1000), nil)
	assert.Equal(t, led.count(), 1)

	if err := led.release(0x1000); err == nil {
		t.Fatal("expected releasing a page that is not held to fail")
	}
}
