package kernel

// Error describes a kernel error. Kernel errors are declared as package-level
// pointers to Error values; code running before or inside the page allocator
// cannot rely on errors.New as it allocates from the Go heap.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
