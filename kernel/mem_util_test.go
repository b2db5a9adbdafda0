package kernel

import (
	"testing"
	"unsafe"
)

func TestMemset(t *testing.T) {
	// memset with a 0 size should be a no-op
	Memset(uintptr(0), 0x00, 0)

	for _, size := range []int{1, 3, 4096, 4096 * 3, 4096<<4 + 17} {
		buf := make([]byte, size+2)
		for i := 0; i < len(buf); i++ {
			buf[i] = 0xFE
		}

		addr := uintptr(unsafe.Pointer(&buf[1]))
		Memset(addr, 0x05, uintptr(size))

		if buf[0] != 0xFE || buf[len(buf)-1] != 0xFE {
			t.Errorf("[size %d] expected Memset not to touch bytes outside the target region", size)
		}

		for i := 1; i <= size; i++ {
			if got := buf[i]; got != 0x05 {
				t.Errorf("[size %d] expected byte %d to be 0x05; got 0x%x", size, i-1, got)
				break
			}
		}
	}
}
