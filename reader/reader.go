// Package reader exposes the decode pipeline as a pull-based io.Reader, for
// consumers that want a standard read interface rather than a sink, per
// spec.md 4.7. Grounded on other_examples/cosnicolaou-pbzip2/reader.go's
// goroutine+channel+Cancel/Finish shape, adapted from a single-threaded
// Decompressor to this package's multi-worker pipeline.
package reader

import (
	"bytes"
	"io"
	"sync"

	"github.com/kassoulet/bz2zstd/event"
	"github.com/kassoulet/bz2zstd/pipeline"
	"github.com/kassoulet/bz2zstd/scanner"
)

// fifoSink is a sink.Sink that appends every write to an internal FIFO of
// decoded chunks instead of an io.Writer, so Reader can service Read calls
// from whatever chunk is currently at the head.
type fifoSink struct {
	mu     sync.Mutex
	cond   *sync.Cond
	chunks [][]byte
	closed bool
	err    error
}

func newFifoSink() *fifoSink {
	s := &fifoSink{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *fifoSink) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	cp := make([]byte, len(p))
	copy(cp, p)

	s.mu.Lock()
	s.chunks = append(s.chunks, cp)
	s.cond.Signal()
	s.mu.Unlock()
	return len(p), nil
}

func (s *fifoSink) Flush() error { return nil }

func (s *fifoSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
	return nil
}

func (s *fifoSink) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
}

// next blocks until a chunk is available, the stream is closed, or an error
// has been recorded.
func (s *fifoSink) next() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.chunks) == 0 && !s.closed {
		s.cond.Wait()
	}

	if len(s.chunks) > 0 {
		c := s.chunks[0]
		s.chunks = s.chunks[1:]
		return c, nil
	}

	return nil, s.err
}

// Reader is a pull-based io.Reader over an ordered parallel decode.
type Reader struct {
	fifo    *fifoSink
	current bytes.Reader
	done    chan struct{}
	stats   pipeline.Stats
	err     error
}

// New starts decoding descs with dec across workers workers and returns a
// Reader that yields the concatenated plaintext in block order.
func New(descs []scanner.BlockDescriptor, dec pipeline.Decoder, workers int, bus *event.Bus) *Reader {
	r := &Reader{fifo: newFifoSink(), done: make(chan struct{})}

	go func() {
		defer close(r.done)
		defer r.fifo.Close()

		stats, err := pipeline.Run(descs, dec, r.fifo, workers, bus)
		r.stats = stats

		if err != nil {
			r.fifo.fail(err)
		}
	}()

	return r
}

// Read implements io.Reader, draining the current head chunk and pulling the
// next one from the pipeline once it is exhausted.
func (r *Reader) Read(p []byte) (int, error) {
	for r.current.Len() == 0 {
		if r.err != nil {
			return 0, r.err
		}

		chunk, err := r.fifo.next()

		if chunk == nil {
			if err != nil {
				r.err = err
				return 0, err
			}

			return 0, io.EOF
		}

		r.current.Reset(chunk)
	}

	return r.current.Read(p)
}

// Stats returns the pipeline's aggregate counters. Only meaningful once
// Read has returned io.EOF or an error.
func (r *Reader) Stats() pipeline.Stats {
	return r.stats
}
