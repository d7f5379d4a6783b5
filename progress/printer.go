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

// Package progress prints human-readable per-block and summary progress
// lines, adapted from app/InfoPrinter.go's verbosity-gated event printer,
// collapsed from kanzi's compression/decompression/header-info branches
// down to this domain's single decompression event set.
package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/kassoulet/bz2zstd/event"
)

// Printer implements event.Listener, printing a line per block at verbosity
// 4 and above, and silently counting at lower levels.
type Printer struct {
	w      io.Writer
	level  uint
	start  time.Time
	blocks int
	bytes  int64
}

// NewPrinter creates a Printer writing to w at the given verbosity level.
func NewPrinter(w io.Writer, level uint) *Printer {
	return &Printer{w: w, level: level, start: time.Now()}
}

// ProcessEvent implements event.Listener.
func (p *Printer) ProcessEvent(evt *event.Event) {
	switch evt.Type() {
	case event.EVT_BLOCK_DECODED:
		p.blocks++
		p.bytes += evt.Size()

		if p.level >= 4 {
			msg := fmt.Sprintf("block %d: %d bytes", evt.ID(), evt.Size())

			if evt.HashType() != event.EVT_HASH_NONE {
				msg += fmt.Sprintf("  [%016x]", evt.Hash())
			}

			fmt.Fprintln(p.w, msg)
		}
	case event.EVT_DECOMPRESSION_END:
		if p.level >= 1 {
			elapsed := time.Since(p.start)
			fmt.Fprintf(p.w, "decoded %d blocks, %d bytes, in %s\n", p.blocks, p.bytes, elapsed.Round(time.Millisecond))
		}
	}
}

// Blocks returns the number of EVT_BLOCK_DECODED events seen so far.
func (p *Printer) Blocks() int {
	return p.blocks
}

// Bytes returns the total decoded byte count seen so far.
func (p *Printer) Bytes() int64 {
	return p.bytes
}
