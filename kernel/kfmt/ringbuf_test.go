package kfmt

import (
	"bytes"
	"io"
	"testing"
)

func TestRingBuffer(t *testing.T) {
	var (
		rb  ringBuffer
		buf bytes.Buffer
	)

	if n, err := rb.Read(make([]byte, 4)); n != 0 || err != io.EOF {
		t.Fatalf("expected empty buffer read to return (0, io.EOF); got (%d, %v)", n, err)
	}

	rb.Write([]byte("hello"))
	if _, err := io.Copy(&buf, &rb); err != nil {
		t.Fatal(err)
	}

	if exp, got := "hello", buf.String(); got != exp {
		t.Fatalf("expected to read %q; got %q", exp, got)
	}
}

func TestRingBufferOverwrite(t *testing.T) {
	var (
		rb  ringBuffer
		buf bytes.Buffer
	)

	// Fill the buffer with 'a' and then overflow it with 'b' bytes.
	rb.Write(bytes.Repeat([]byte{'a'}, ringBufferSize))
	rb.Write([]byte("bbbb"))

	if _, err := io.Copy(&buf, &rb); err != nil {
		t.Fatal(err)
	}

	got := buf.Bytes()
	if exp := ringBufferSize - 1; len(got) != exp {
		t.Fatalf("expected to read %d bytes; got %d", exp, len(got))
	}

	if !bytes.HasSuffix(got, []byte("abbbb")) {
		t.Fatalf("expected the most recent bytes to be retained; got suffix %q", got[len(got)-8:])
	}
}

func TestRingBufferPartialRead(t *testing.T) {
	var rb ringBuffer
	rb.Write([]byte("0123456789"))

	p := make([]byte, 4)
	for _, exp := range []string{"0123", "4567", "89"} {
		n, err := rb.Read(p)
		if err != nil {
			t.Fatal(err)
		}

		if got := string(p[:n]); got != exp {
			t.Fatalf("expected to read %q; got %q", exp, got)
		}
	}
}
