// Package kfmt implements formatted output and the kernel panic handler for
// code that runs before, or underneath, the Go runtime allocator.
package kfmt

import (
	"io"
	"unsafe"
)

// maxBufSize defines the buffer size for formatting numbers. It fits a
// 64-bit value in base 8 plus a sign.
const maxBufSize = 32

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")
	percent         = []byte("%")
	padSpace        = []byte(" ")
	padZero         = []byte("0")

	// numFmtBuf is shared scratch space for rendering numbers. A local
	// array would escape to the heap once sliced into an io.Writer call.
	numFmtBuf [maxBufSize]byte

	// earlyPrintBuffer captures Printf output until an output sink is
	// attached.
	earlyPrintBuffer ringBuffer

	// outputSink is where Printf sends its output. While nil, output is
	// kept in earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the target for calls to Printf to w and flushes any
// output accumulated in the early print buffer into it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyPrintBuffer)
	}
}

// Printf formats according to a format specifier and writes to the active
// output sink. It never allocates memory.
//
// Supported verbs:
//
//	%s  string or []byte
//	%d  integer, base 10
//	%o  integer, base 8
//	%x  integer, base 16 with lower-case letters
//	%t  bool
//	%%  a literal percent sign
//
// An optional decimal width may precede the verb. Strings and base-10
// integers are left-padded with spaces; base-8 and base-16 integers are
// left-padded with zeroes.
func Printf(format string, args ...interface{}) {
	var w io.Writer = &earlyPrintBuffer
	if outputSink != nil {
		w = outputSink
	}

	Fprintf(w, format, args...)
}

// Fprintf behaves like Printf but writes to w.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex   int
		blockStart int
	)

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}

		writeString(w, format[blockStart:i])

		width := 0
		for i++; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}

		if i == len(format) {
			w.Write(errNoVerb)
			blockStart = i
			break
		}

		verb := format[i]
		blockStart = i + 1

		if verb == '%' {
			w.Write(percent)
			continue
		}

		if argIndex >= len(args) {
			w.Write(errMissingArg)
			continue
		}

		arg := args[argIndex]
		argIndex++

		switch verb {
		case 's':
			fmtString(w, arg, width)
		case 'd':
			fmtInt(w, arg, 10, width)
		case 'o':
			fmtInt(w, arg, 8, width)
		case 'x':
			fmtInt(w, arg, 16, width)
		case 't':
			fmtBool(w, arg)
		default:
			w.Write(errWrongArgType)
		}
	}

	if blockStart < len(format) {
		writeString(w, format[blockStart:])
	}

	if argIndex < len(args) {
		w.Write(errExtraArg)
	}
}

func fmtBool(w io.Writer, arg interface{}) {
	v, ok := arg.(bool)
	switch {
	case !ok:
		w.Write(errWrongArgType)
	case v:
		w.Write(trueValue)
	default:
		w.Write(falseValue)
	}
}

func fmtString(w io.Writer, arg interface{}, width int) {
	switch v := arg.(type) {
	case string:
		pad(w, padSpace, width-len(v))
		writeString(w, v)
	case []byte:
		pad(w, padSpace, width-len(v))
		w.Write(v)
	default:
		w.Write(errWrongArgType)
	}
}

func fmtInt(w io.Writer, arg interface{}, base uint64, width int) {
	var (
		mag uint64
		neg bool
	)

	switch v := arg.(type) {
	case uint8:
		mag = uint64(v)
	case uint16:
		mag = uint64(v)
	case uint32:
		mag = uint64(v)
	case uint64:
		mag = v
	case uint:
		mag = uint64(v)
	case uintptr:
		mag = uint64(v)
	case int8:
		mag, neg = abs(int64(v))
	case int16:
		mag, neg = abs(int64(v))
	case int32:
		mag, neg = abs(int64(v))
	case int64:
		mag, neg = abs(v)
	case int:
		mag, neg = abs(int64(v))
	default:
		w.Write(errWrongArgType)
		return
	}

	pos := maxBufSize
	for {
		pos--
		numFmtBuf[pos] = "0123456789abcdef"[mag%base]
		mag /= base
		if mag == 0 {
			break
		}
	}

	if neg {
		pos--
		numFmtBuf[pos] = '-'
	}

	padding := padZero
	if base == 10 {
		padding = padSpace
	}

	pad(w, padding, width-(maxBufSize-pos))
	w.Write(numFmtBuf[pos:])
}

func abs(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}

func pad(w io.Writer, padding []byte, count int) {
	for ; count > 0; count-- {
		w.Write(padding)
	}
}

// writeString writes s to w without converting it to a heap-allocated
// byte slice.
func writeString(w io.Writer, s string) {
	if len(s) == 0 {
		return
	}
	w.Write(unsafe.Slice(unsafe.StringData(s), len(s)))
}
