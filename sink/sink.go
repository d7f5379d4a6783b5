// Package sink wraps a raw writer or a streaming zstd encoder behind one
// uniform write/flush/close contract, grounded on the Compressor interface
// shape of firefly-oss-flymq's internal/performance/compression.go and
// implemented on klauspost/compress/zstd.
package sink

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// Sink is a stateful byte consumer with a flush-on-close contract.
type Sink interface {
	Write(p []byte) (int, error)
	Flush() error
	Close() error
}

// MaxZstdConcurrency caps the zstd encoder's own internal worker count,
// independent of the decode pipeline's worker count, per spec.md 4.6.
const MaxZstdConcurrency = 4

// Raw passes bytes straight through to an underlying writer. Flush calls
// the writer's Sync method when it has one (an fsync for an *os.File) and
// is a no-op otherwise; Close delegates to the writer if it is an
// io.Closer and does not sync.
type Raw struct {
	w io.Writer
}

// NewRaw wraps w as a Sink that performs no transformation.
func NewRaw(w io.Writer) *Raw {
	return &Raw{w: w}
}

func (r *Raw) Write(p []byte) (int, error) {
	return r.w.Write(p)
}

func (r *Raw) Flush() error {
	if f, ok := r.w.(interface{ Sync() error }); ok {
		return f.Sync()
	}

	return nil
}

func (r *Raw) Close() error {
	if c, ok := r.w.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

// Zstd streams writes through a zstd encoder configured with a compression
// level and an internal thread count, emitting the final frame on Close.
type Zstd struct {
	w   io.Writer
	enc *zstd.Encoder
}

// NewZstd wraps w with a streaming zstd encoder at the given level (1-22)
// using up to MaxZstdConcurrency internal threads.
func NewZstd(w io.Writer, level int) (*Zstd, error) {
	enc, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(MaxZstdConcurrency),
	)

	if err != nil {
		return nil, err
	}

	return &Zstd{w: w, enc: enc}, nil
}

func (z *Zstd) Write(p []byte) (int, error) {
	return z.enc.Write(p)
}

func (z *Zstd) Flush() error {
	return z.enc.Flush()
}

// Close finalizes the zstd frame and, if the underlying writer is also an
// io.Closer, closes it too.
func (z *Zstd) Close() error {
	if err := z.enc.Close(); err != nil {
		return err
	}

	if c, ok := z.w.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
