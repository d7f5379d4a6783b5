// Package pipeline dispatches block descriptors to a worker pool, reorders
// their outputs back into original order and feeds them to a sink, per
// spec.md 4.5. Unlike io/CompressedStream.go's Reader.processBlock, which
// synchronizes a fixed batch of goroutines behind a sync.WaitGroup barrier,
// this pipeline streams a descriptor sequence of unknown total length
// continuously, with bounded (not batch-synchronized) backpressure -- closer
// in shape to original_source/parallel_bzip2/src/lib.rs's scan_blocks
// reorder thread, translated from a HashMap behind one consumer goroutine
// into Go channels plus a mutex-guarded reorder map.
package pipeline

import (
	"sync"

	"github.com/kassoulet/bz2zstd/block"
	"github.com/kassoulet/bz2zstd/event"
	"github.com/kassoulet/bz2zstd/scanner"
	"github.com/kassoulet/bz2zstd/sink"
)

// Stats aggregates the run-level counters SPEC_FULL.md 3 calls for.
type Stats struct {
	BlocksDecoded int
	BytesOut      int64
	Workers       int
}

// Decoder turns one descriptor into its plaintext. block.Decoder satisfies
// this; tests substitute a fake to exercise reordering without the external
// codec.
type Decoder interface {
	Decode(desc scanner.BlockDescriptor) (block.Decoded, error)
}

// Run dispatches descs to workers decoders (with the worker count
// auto-tuned down to len(descs) when there are fewer blocks than requested
// workers), writes decoded blocks to out in original order, and returns once
// every block has been written or a fatal error occurs.
//
// bus, if non-nil, receives EVT_BLOCK_DECODED notifications as blocks are
// decoded (not as they are flushed in order, since fingerprinting is a
// per-block diagnostic independent of reordering).
func Run(descs []scanner.BlockDescriptor, dec Decoder, out sink.Sink, workers int, bus *event.Bus) (Stats, error) {
	stats := Stats{}

	if len(descs) == 0 {
		return stats, nil
	}

	if workers < 1 {
		workers = 1
	}

	if workers > len(descs) {
		workers = len(descs)
	}

	stats.Workers = workers

	// Backpressure capacity of 2*W pending blocks, per spec.md 4.5: the
	// dispatcher takes a slot before handing out each descriptor and the
	// reorder stage frees it once that block is written, so at most
	// capacity blocks are decoded or in flight but not yet written.
	capacity := 2 * workers
	slots := make(chan struct{}, capacity)

	work := make(chan scanner.BlockDescriptor, workers)
	results := make(chan block.Decoded, capacity)
	errs := make(chan error, workers)

	var shutdown sync.Once
	done := make(chan struct{})
	closeDone := func() { shutdown.Do(func() { close(done) }) }

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for {
				select {
				case <-done:
					return
				case desc, ok := <-work:
					if !ok {
						return
					}

					decoded, err := dec.Decode(desc)

					if err != nil {
						select {
						case errs <- err:
						default:
						}

						closeDone()
						return
					}

					if bus != nil {
						hashType := event.EVT_HASH_NONE

						if decoded.HasFP {
							hashType = event.EVT_HASH_64BITS
						}

						bus.Emit(event.NewBlockEvent(decoded.Index, int64(len(decoded.Data)), decoded.Fingerprint, hashType))
					}

					select {
					case results <- decoded:
					case <-done:
						return
					}
				}
			}
		}()
	}

	go func() {
		defer close(work)

		for _, d := range descs {
			select {
			case slots <- struct{}{}:
			case <-done:
				return
			}

			select {
			case work <- d:
			case <-done:
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	reorderErr := reorder(results, out, len(descs), &stats, closeDone, done, slots)

	select {
	case err := <-errs:
		return stats, err
	default:
	}

	if reorderErr != nil {
		return stats, reorderErr
	}

	return stats, nil
}

// reorder holds completed blocks in a map keyed by index until the
// next-expected index becomes available, then flushes contiguous blocks to
// out in order, freeing one backpressure slot per block written. It owns out
// exclusively, per spec.md 5.
func reorder(results <-chan block.Decoded, out sink.Sink, total int, stats *Stats, cancel func(), done <-chan struct{}, slots <-chan struct{}) error {
	pending := make(map[int]block.Decoded)
	next := 0

	flush := func(d block.Decoded) error {
		if _, err := out.Write(d.Data); err != nil {
			return &writeError{err}
		}

		stats.BlocksDecoded++
		stats.BytesOut += int64(len(d.Data))
		<-slots
		return nil
	}

	for next < total {
		select {
		case <-done:
			return nil
		case d, ok := <-results:
			if !ok {
				return nil
			}

			if d.Index == next {
				if err := flush(d); err != nil {
					cancel()
					return err
				}

				next++

				for {
					buffered, ok := pending[next]

					if !ok {
						break
					}

					delete(pending, next)

					if err := flush(buffered); err != nil {
						cancel()
						return err
					}

					next++
				}
			} else {
				pending[d.Index] = d
			}
		}
	}

	return nil
}

type writeError struct {
	err error
}

func (e *writeError) Error() string { return "pipeline: sink write failed: " + e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }
