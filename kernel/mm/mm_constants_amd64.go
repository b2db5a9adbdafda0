package mm

const (
	// PageShift is log2(PageSize). Shifting an address right by PageShift
	// yields its page number.
	PageShift = uintptr(12)

	// PageSize defines the system's page size in bytes.
	PageSize = uintptr(1 << PageShift)
)
