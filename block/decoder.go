// Package block turns one scanner.BlockDescriptor into the plaintext bytes
// of that single bzip2 block, by reconstituting a minimal, well-formed
// single-block bzip2 stream and handing it to the external codec.
package block

import (
	"bytes"
	"fmt"
	"io"

	dsbzip2 "github.com/dsnet/compress/bzip2"

	"github.com/kassoulet/bz2zstd/bitstream"
	"github.com/kassoulet/bz2zstd/bzerr"
	"github.com/kassoulet/bz2zstd/hash"
	"github.com/kassoulet/bz2zstd/scanner"
)

// MaxBlockOutput is the per-block output cap: bzip2 blocks cannot exceed
// 900 KB of uncompressed payload by format, plus 10% headroom against
// off-by-one accounting in third-party codecs.
const MaxBlockOutput = 900_000 * 11 / 10

const readChunk = 64 * 1024

// Decoded is the plaintext of one block plus its ordinal and, when
// fingerprinting is enabled, an XXHash64 of its content.
type Decoded struct {
	Index       int
	Data        []byte
	Fingerprint uint64
	HasFP       bool
}

// Decoder reconstitutes and decodes individual blocks out of a shared,
// immutable CompressedInput.
type Decoder struct {
	input       []byte
	fingerprint bool
}

// NewDecoder creates a Decoder over input. When fingerprint is true, every
// decoded block's plaintext is hashed with XXHash64 for diagnostics.
func NewDecoder(input []byte, fingerprint bool) *Decoder {
	return &Decoder{input: input, fingerprint: fingerprint}
}

// Decode produces the plaintext of the block described by desc.
func (d *Decoder) Decode(desc scanner.BlockDescriptor) (Decoded, error) {
	stream := d.assembleSyntheticStream(desc)

	data, err := decodeStream(stream)

	if err != nil {
		return Decoded{}, err
	}

	out := Decoded{Index: desc.Index, Data: data}

	if d.fingerprint {
		out.Fingerprint = hash.Fingerprint(data)
		out.HasFP = true
	}

	return out, nil
}

// assembleSyntheticStream implements spec.md 4.4: a fresh "BZh<n>" header,
// the bits [start_bit, end_bit) (which already begin with the block's own
// 48-bit magic), the EOS magic, and a placeholder stream CRC -- all as a
// single continuous bit-packed stream, zero-padded to a byte boundary only
// once, at the very end.
//
// end_bit is almost never byte-aligned: block boundaries fall at arbitrary
// Huffman-coded bit positions, so the EOS magic and CRC are written by
// continuing the bit cursor from end_bit (shift-merged into the payload's
// last partial byte), not appended as fresh bytes after padding -- doing
// the latter would insert up to 7 spurious bits before the EOS magic and
// corrupt the reconstructed stream for any block that doesn't happen to
// end on a byte boundary.
//
// Because github.com/dsnet/compress/bzip2 validates the stream-level CRC
// strictly rather than offering a lenient mode (unlike the Rust bzip2 crate
// the original implementation relies on), the placeholder CRC cannot be
// zero: it must equal the block's own CRC, found 48 bits after start_bit,
// so that the single-block rolling XOR trivially matches.
func (d *Decoder) assembleSyntheticStream(desc scanner.BlockDescriptor) []byte {
	c := bitstream.NewCursor(d.input)
	blockCRC := uint32(c.PeekAt(desc.StartBit+48, 32))

	w := bitstream.NewWriter()
	w.WriteBytes(desc.Header[:])
	w.CopyBits(d.input, desc.StartBit, desc.EndBit)
	w.WriteBits(scanner.EOSMagic, 48)
	w.WriteBits(uint64(blockCRC), 32)

	return w.Bytes()
}

// decodeStream hands a fully-formed single-block bzip2 stream to the
// external codec and drains it into a bounded buffer.
func decodeStream(stream []byte) ([]byte, error) {
	r, err := dsbzip2.NewReader(bytes.NewReader(stream), nil)

	if err != nil {
		return nil, &bzerr.CodecError{Kind: "open", Err: err}
	}

	out := make([]byte, 0, readChunk)
	buf := make([]byte, readChunk)

	for {
		n, err := r.Read(buf)

		if n > 0 {
			if len(out)+n > MaxBlockOutput {
				return nil, fmt.Errorf("%w: block output exceeds %d bytes", bzerr.ErrInternal, MaxBlockOutput)
			}

			out = append(out, buf[:n]...)
		}

		if err == io.EOF {
			return out, nil
		}

		if err != nil {
			return nil, &bzerr.CodecError{Kind: "decompress", Err: err}
		}
	}
}
