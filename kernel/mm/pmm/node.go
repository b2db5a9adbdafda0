package pmm

import "unsafe"

// freeNodeTag marks the header of a page that is currently linked into a
// free list. Read as little-endian bytes it spells "freepage".
const freeNodeTag = uint64(0x6567617065657266)

// freeNode overlays the leading bytes of a free page. It only exists while
// the page is free; once the page is allocated its contents belong to the
// caller and the header is overwritten.
type freeNode struct {
	tag  uint64
	next uintptr
}

// freeNodeSize is the number of leading bytes of a free page occupied by its
// freeNode header.
const freeNodeSize = unsafe.Sizeof(freeNode{})

func nodeAt(addr uintptr) *freeNode {
	return (*freeNode)(unsafe.Pointer(addr))
}

// markFree turns the page at addr into a free node whose successor is next.
// A next value of 0 terminates the list.
func markFree(addr, next uintptr) {
	node := nodeAt(addr)
	node.tag = freeNodeTag
	node.next = next
}

// peekFree returns the successor of the free node at addr. It returns false
// if addr does not hold a free node.
func peekFree(addr uintptr) (uintptr, bool) {
	node := nodeAt(addr)
	if node.tag != freeNodeTag {
		return 0, false
	}
	return node.next, true
}

// takeFree unlinks the free node at addr and returns its successor. The tag
// is cleared so that a stale reference to the page is detected if it is ever
// unlinked again. It returns false if addr does not hold a free node.
func takeFree(addr uintptr) (uintptr, bool) {
	node := nodeAt(addr)
	if node.tag != freeNodeTag {
		return 0, false
	}

	node.tag = 0
	return node.next, true
}
