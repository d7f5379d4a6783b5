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

package bitstream

import "encoding/binary"

// ExtractBits copies the bits [startBit, endBit) out of data into a freshly
// allocated, byte-aligned buffer. The extracted bits are left-justified: the
// first bit of the range becomes the most significant bit of the first
// output byte, and any leftover bits in the final output byte are zero
// padded on the right. This is the bit-aligned-to-byte-aligned shift-copy
// spec.md 4.4 and 9 describe, ported from the u64-at-a-time plus byte
// remainder approach of extract_bits in the original Rust scanner.
func ExtractBits(data []byte, startBit, endBit uint64) []byte {
	if endBit <= startBit {
		return nil
	}

	c := NewCursor(data)
	nbits := endBit - startBit
	out := make([]byte, (nbits+7)/8)

	pos := startBit
	i := 0

	for endBit-pos >= 64 {
		binary.BigEndian.PutUint64(out[i:i+8], c.PeekAt(pos, 64))
		pos += 64
		i += 8
	}

	for pos < endBit {
		n := endBit - pos

		if n > 8 {
			n = 8
		}

		v := c.PeekAt(pos, uint(n))
		out[i] = byte(v << (8 - n))
		pos += n
		i++
	}

	return out
}
