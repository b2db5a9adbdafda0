package pmm

import (
	"runtime"
	"testing"
)

func TestFreeNodeTransitions(t *testing.T) {
	mem := newPhysMem(2)
	defer runtime.KeepAlive(mem)

	first, second := mem.start, mem.end-4096

	if _, ok := peekFree(first); ok {
		t.Fatal("expected a zeroed page not to be recognized as a free node")
	}

	markFree(second, 0)
	markFree(first, second)

	if next, ok := peekFree(first); !ok || next != second {
		t.Fatalf("expected peekFree to return (0x%x, true); got (0x%x, %t)", second, next, ok)
	}

	if next, ok := takeFree(first); !ok || next != second {
		t.Fatalf("expected takeFree to return (0x%x, true); got (0x%x, %t)", second, next, ok)
	}

	// A page can only be unlinked once.
	if _, ok := takeFree(first); ok {
		t.Fatal("expected a second takeFree on the same page to fail")
	}

	if next, ok := takeFree(second); !ok || next != 0 {
		t.Fatalf("expected the tail node to terminate the list; got (0x%x, %t)", next, ok)
	}
}
