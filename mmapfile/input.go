// Package mmapfile acquires the whole input file as a single immutable,
// shareable byte range, per spec.md 3 and 9's CompressedInput model.
package mmapfile

import (
	"os"
	"sync/atomic"

	"github.com/tysonmote/gommap"

	"github.com/kassoulet/bz2zstd/bzerr"
)

// Input is a memory-mapped, reference-counted view of one file's contents.
// Open hands the caller one reference and Acquire adds more; the mapping is
// torn down only once the last owner calls Release.
type Input struct {
	file *os.File
	mm   gommap.MMap
	refs atomic.Int32
}

// Open memory-maps path read-only and returns an Input with one reference
// held by the caller. Call Release when done with it.
func Open(path string) (*Input, error) {
	f, err := os.Open(path)

	if err != nil {
		return nil, &bzerr.IOError{Err: err}
	}

	mm, err := gommap.Map(f.Fd(), gommap.PROT_READ, gommap.MAP_PRIVATE)

	if err != nil {
		f.Close()
		return nil, &bzerr.IOError{Err: err}
	}

	in := &Input{file: f, mm: mm}
	in.refs.Store(1)
	return in, nil
}

// Bytes returns the immutable backing slice. Callers must not mutate it and
// must not retain it past a call to Release that drops the refcount to zero.
func (in *Input) Bytes() []byte {
	return in.mm
}

// Acquire increments the reference count and returns in, for a worker that
// is about to start using the slice concurrently with others.
func (in *Input) Acquire() *Input {
	in.refs.Add(1)
	return in
}

// Release decrements the reference count, unmapping and closing the
// underlying file once the last reference is released.
func (in *Input) Release() error {
	if in.refs.Add(-1) > 0 {
		return nil
	}

	if err := in.mm.UnsafeUnmap(); err != nil {
		in.file.Close()
		return &bzerr.IOError{Err: err}
	}

	return in.file.Close()
}
