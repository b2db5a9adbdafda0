package cpu

import "testing"

func TestCoreID(t *testing.T) {
	defer func() {
		cpuidFn = ID
	}()

	specs := []struct {
		ebx uint32
		exp int
	}{
		{0x00000800, 0},
		{0x01000800, 1},
		{0x07010800, 7},
	}

	for specIndex, spec := range specs {
		cpuidFn = func(leaf uint32) (uint32, uint32, uint32, uint32) {
			if leaf != 1 {
				t.Errorf("[spec %d] expected CPUID leaf 1; got %d", specIndex, leaf)
			}
			return 0, spec.ebx, 0, 0
		}

		if got := CoreID(); got != spec.exp {
			t.Errorf("[spec %d] expected CoreID to return %d; got %d", specIndex, spec.exp, got)
		}
	}
}
