package sink

import (
	"bytes"
	"testing"

	"github.com/kassoulet/bz2zstd/internal/teststream"
)

func TestRawPassesBytesThrough(t *testing.T) {
	buf := teststream.NewBuffer()
	s := NewRaw(buf)

	n, err := s.Write([]byte("hello"))

	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if n != 5 {
		t.Fatalf("Write() n = %d, want 5", n)
	}

	if !bytes.Equal(buf.Bytes(), []byte("hello")) {
		t.Fatalf("buffer contents = %q, want %q", buf.Bytes(), "hello")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestZstdRoundTripsThroughClose(t *testing.T) {
	var out bytes.Buffer

	s, err := NewZstd(&out, 3)

	if err != nil {
		t.Fatalf("NewZstd() error = %v", err)
	}

	payload := bytes.Repeat([]byte("the quick brown fox "), 200)

	if _, err := s.Write(payload); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if out.Len() == 0 {
		t.Fatalf("zstd output is empty after Close()")
	}

	// A valid zstd frame starts with the magic number 0x28 0xB5 0x2F 0xFD.
	want := []byte{0x28, 0xB5, 0x2F, 0xFD}

	if !bytes.Equal(out.Bytes()[:4], want) {
		t.Fatalf("zstd frame magic = %x, want %x", out.Bytes()[:4], want)
	}
}
