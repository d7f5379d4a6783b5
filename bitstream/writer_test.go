package bitstream

import (
	"bytes"
	"testing"
)

func TestWriterWriteBitsByteAligned(t *testing.T) {
	w := NewWriter()
	w.WriteBits(0xAB, 8)
	w.WriteBits(0xCD, 8)

	want := []byte{0xAB, 0xCD}

	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("Bytes() = %x, want %x", w.Bytes(), want)
	}

	if w.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", w.Len())
	}
}

func TestWriterWriteBitsUnalignedShiftMerge(t *testing.T) {
	w := NewWriter()
	w.WriteBits(0x5, 3) // top 3 bits of the first byte: 101
	w.WriteBits(0xB, 4) // continues mid-byte: 1011

	// 3+4 = 7 bits written: 101 1011, left-justified with one trailing zero.
	want := []byte{0b10110110}

	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("Bytes() = %08b, want %08b", w.Bytes(), want)
	}

	if w.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", w.Len())
	}
}

func TestWriterWriteBitsSpanningMultipleBytes(t *testing.T) {
	w := NewWriter()
	w.WriteBits(0x1, 1)     // 1 bit: 1
	w.WriteBits(0xDEAD, 16) // 16 more bits, crossing a byte boundary

	// bit layout: 1 1101 1110 1010 1101 0 -> pad to 3 bytes
	got := w.Bytes()

	if len(got) != 3 {
		t.Fatalf("len(Bytes()) = %d, want 3", len(got))
	}

	// Reassemble via a Cursor and check the 17 written bits round-trip.
	c := NewCursor(got)

	if v := c.PeekAt(0, 1); v != 0x1 {
		t.Fatalf("first bit = %x, want 1", v)
	}

	if v := c.PeekAt(1, 16); v != 0xDEAD {
		t.Fatalf("next 16 bits = %x, want DEAD", v)
	}

	if v := c.PeekAt(17, 7); v != 0 {
		t.Fatalf("trailing pad bits = %x, want 0", v)
	}
}

func TestWriterWriteBytesByteAligned(t *testing.T) {
	w := NewWriter()
	w.WriteBits(0xFF, 8)
	w.WriteBytes([]byte{0x01, 0x02, 0x03})

	want := []byte{0xFF, 0x01, 0x02, 0x03}

	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("Bytes() = %x, want %x", w.Bytes(), want)
	}
}

func TestWriterWriteBytesUnaligned(t *testing.T) {
	w := NewWriter()
	w.WriteBits(0x1, 4)
	w.WriteBytes([]byte{0xAB})

	// 0001 1010 1011 -> two bytes: 0001 1010, 1011 0000
	want := []byte{0x1A, 0xB0}

	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("Bytes() = %08b, want %08b", w.Bytes(), want)
	}
}

func TestWriterCopyBitsByteAlignedFastPath(t *testing.T) {
	data := []byte{0x11, 0x22, 0x33, 0x44}

	w := NewWriter()
	w.CopyBits(data, 8, 32)

	want := []byte{0x22, 0x33, 0x44}

	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("Bytes() = %x, want %x", w.Bytes(), want)
	}
}

func TestWriterCopyBitsUnalignedThenMoreBits(t *testing.T) {
	// Mirrors assembleSyntheticStream's shape: a byte-aligned header,
	// a payload slice taken from an unaligned source offset, then more
	// bits appended afterward, continuing from the writer's position.
	// Here the 16-bit copy ends on a byte boundary, so the appended bits
	// open a new byte.
	data := []byte{0xFF, 0xFF, 0x00} // bits [4, 20) = 0xFFF0 left-justified... see below

	w := NewWriter()
	w.WriteBytes([]byte{0xAA}) // aligned header byte
	w.CopyBits(data, 4, 20)    // 16 unaligned bits: 0xFFF, 0
	w.WriteBits(0x3, 4)        // 4 more bits, at the writer's current bit position

	// data bits [4,20): nibble 2 of byte0 (1111), all of byte1 (11111111),
	// nibble 1 of byte2 (0000) -> 1111 1111 1111 0000.
	// Full stream: AA | 1111111111110000 | 0011
	// = 1010_1010 1111_1111 1111_0000 0011_0000 (padded)
	want := []byte{0xAA, 0xFF, 0xF0, 0x30}

	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("Bytes() = %08b, want %08b", w.Bytes(), want)
	}

	if w.Len() != 8+16+4 {
		t.Fatalf("Len() = %d, want %d", w.Len(), 8+16+4)
	}
}

func TestWriterEmpty(t *testing.T) {
	w := NewWriter()

	if w.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", w.Len())
	}

	if len(w.Bytes()) != 0 {
		t.Fatalf("Bytes() = %x, want empty", w.Bytes())
	}
}
