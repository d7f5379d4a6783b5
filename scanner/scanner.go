/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package scanner locates bzip2 stream headers and block/EOS magic numbers
// inside a byte range, producing the ordered BlockDescriptor sequence the
// parallel pipeline dispatches to workers.
package scanner

import (
	"github.com/kassoulet/bz2zstd/bitstream"
	"github.com/kassoulet/bz2zstd/bzerr"
)

const (
	// BlockMagic is the 48-bit constant (digits of pi) marking the start of a bzip2 block.
	BlockMagic = uint64(0x314159265359)
	// EOSMagic is the 48-bit constant (digits of sqrt(pi)) marking the end of a bzip2 stream.
	EOSMagic = uint64(0x177245385090)

	magicBits     = 48
	crcBits       = 32
	headerBits    = 32
	streamMinByte = 0x42 // 'B'
)

// TooManyBlocksLimit is the implementation-defined safety cap referenced by
// spec.md 4.3: a single input producing more blocks than this is rejected
// rather than allowed to exhaust memory on a corrupt or adversarial input.
const TooManyBlocksLimit = 1_000_000

// StreamHeader is the 4-byte ASCII header "BZh" + one digit '1'..'9'
// identifying the block-size multiplier of the stream it prefixes.
type StreamHeader [4]byte

// Digit returns the block-size multiplier encoded by the header's fourth byte.
func (h StreamHeader) Digit() byte {
	return h[3] - '0'
}

// BlockDescriptor locates one decodable work unit inside the input.
type BlockDescriptor struct {
	Header   StreamHeader
	StartBit uint64
	EndBit   uint64
	Index    int
}

// IsValidStreamHeader reports whether b is a well-formed "BZh[1-9]" header.
func IsValidStreamHeader(b []byte) bool {
	return len(b) >= 4 &&
		b[0] == 'B' && b[1] == 'Z' && b[2] == 'h' &&
		b[3] >= '1' && b[3] <= '9'
}

// MatchesBlockMagic reports whether the 48 bits at bitPos equal the block magic.
func MatchesBlockMagic(c *bitstream.Cursor, bitPos uint64) bool {
	return c.PeekAt(bitPos, magicBits) == BlockMagic
}

// MatchesEOSMagic reports whether the 48 bits at bitPos equal the EOS magic.
func MatchesEOSMagic(c *bitstream.Cursor, bitPos uint64) bool {
	return c.PeekAt(bitPos, magicBits) == EOSMagic
}

// Scan walks the entire input once and returns the ordered descriptor
// sequence, following spec.md 4.3: verify the leading stream header, then
// repeatedly test the 48 bits at the cursor against the block and EOS
// magics, opening and closing descriptors as they are found, and crossing
// into the next concatenated stream's header after each EOS.
func Scan(data []byte) ([]BlockDescriptor, error) {
	if len(data) < 4 || !IsValidStreamHeader(data) {
		return nil, bzerr.ErrBadMagic
	}

	c := bitstream.NewCursor(data)
	var descriptors []BlockDescriptor

	header := StreamHeader{data[0], data[1], data[2], data[3]}
	c.Seek(headerBits)

	var openStart uint64
	open := false
	streamBody := uint64(headerBits) // first bit after the current stream's header

	for {
		if c.Remaining() < magicBits {
			if open {
				return nil, bzerr.ErrTruncated
			}

			if c.Remaining() == 0 {
				return descriptors, nil
			}

			// Trailing pad bits shorter than a magic: treat as clean EOF
			// only if they are all zero (byte-alignment padding).
			if c.Peek(uint(c.Remaining())) != 0 {
				return nil, bzerr.ErrTruncated
			}

			return descriptors, nil
		}

		pos := c.Position()

		if MatchesBlockMagic(c, pos) {
			if open {
				descriptors = append(descriptors, BlockDescriptor{
					Header:   header,
					StartBit: openStart,
					EndBit:   pos,
					Index:    len(descriptors),
				})
			}

			openStart = pos
			open = true
			c.Advance(magicBits)

			if len(descriptors) >= TooManyBlocksLimit {
				return nil, bzerr.ErrTooManyBlocks
			}

			continue
		}

		if MatchesEOSMagic(c, pos) {
			if !open && pos != streamBody {
				// An EOS magic with nothing open, anywhere but right after
				// the stream header, is ambiguous per spec.md 4.3's
				// tie-break: treat the match as coincidental and keep
				// scanning one bit at a time.
				c.Advance(1)
				continue
			}

			// An EOS magic right after the header is an empty stream: it
			// closes the stream without producing a descriptor.
			if open {
				descriptors = append(descriptors, BlockDescriptor{
					Header:   header,
					StartBit: openStart,
					EndBit:   pos,
					Index:    len(descriptors),
				})
				open = false
			}

			c.Advance(magicBits + crcBits)
			c.Seek(alignUp(c.Position()))

			if c.Remaining() == 0 {
				return descriptors, nil
			}

			next, err := peekStreamHeader(data, c.Position())

			if err != nil {
				return nil, err
			}

			header = next
			c.Advance(headerBits)
			streamBody = c.Position()
			continue
		}

		c.Advance(1)
	}
}

func peekStreamHeader(data []byte, bitPos uint64) (StreamHeader, error) {
	if bitPos&7 != 0 {
		return StreamHeader{}, bzerr.ErrBadMagic
	}

	bytePos := bitPos >> 3

	if bytePos+4 > uint64(len(data)) || !IsValidStreamHeader(data[bytePos:]) {
		return StreamHeader{}, bzerr.ErrBadMagic
	}

	return StreamHeader{data[bytePos], data[bytePos+1], data[bytePos+2], data[bytePos+3]}, nil
}

func alignUp(bitPos uint64) uint64 {
	if bitPos&7 == 0 {
		return bitPos
	}

	return (bitPos &^ 7) + 8
}
