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

// Package event carries progress notifications out of the pipeline, in the
// same Event/Listener shape the teacher uses for its own compression
// lifecycle, retargeted at this domain's phases.
package event

import (
	"fmt"
	"time"
)

const (
	// EVT_SCAN_START fires once before the scanner begins walking the input.
	EVT_SCAN_START = 0
	// EVT_SCAN_END fires once after the scanner produces its final descriptor.
	EVT_SCAN_END = 1
	// EVT_BLOCK_DECODED fires once per block, after decoding and before reordering.
	EVT_BLOCK_DECODED = 2
	// EVT_DECOMPRESSION_END fires once after the sink has been closed.
	EVT_DECOMPRESSION_END = 3

	EVT_HASH_NONE   = 0
	EVT_HASH_64BITS = 64
)

// Event is a single notification about pipeline progress.
type Event struct {
	eventType int
	id        int
	size      int64
	hash      uint64
	hashType  int
	eventTime time.Time
	msg       string
}

// NewEventFromString creates an Event that simply wraps a message.
func NewEventFromString(evtType, id int, msg string) *Event {
	return &Event{eventType: evtType, id: id, msg: msg, eventTime: time.Now()}
}

// NewBlockEvent creates an EVT_BLOCK_DECODED event for block id, with an
// optional content hash (hashType EVT_HASH_NONE when fingerprinting is off).
func NewBlockEvent(id int, size int64, hash uint64, hashType int) *Event {
	return &Event{
		eventType: EVT_BLOCK_DECODED,
		id:        id,
		size:      size,
		hash:      hash,
		hashType:  hashType,
		eventTime: time.Now(),
	}
}

func (e *Event) Type() int        { return e.eventType }
func (e *Event) ID() int          { return e.id }
func (e *Event) Time() time.Time  { return e.eventTime }
func (e *Event) Size() int64      { return e.size }
func (e *Event) Hash() uint64     { return e.hash }
func (e *Event) HashType() int    { return e.hashType }

func (e *Event) String() string {
	if len(e.msg) > 0 {
		return e.msg
	}

	hash := ""

	if e.hashType != EVT_HASH_NONE {
		hash = fmt.Sprintf(", \"hash\": %x", e.hash)
	}

	var t string

	switch e.eventType {
	case EVT_SCAN_START:
		t = "SCAN_START"
	case EVT_SCAN_END:
		t = "SCAN_END"
	case EVT_BLOCK_DECODED:
		t = "BLOCK_DECODED"
	case EVT_DECOMPRESSION_END:
		t = "DECOMPRESSION_END"
	}

	return fmt.Sprintf("{ \"type\":\"%s\", \"id\": %d, \"size\":%d, \"time\":%d%s }",
		t, e.id, e.size, e.eventTime.UnixNano()/1000000, hash)
}

// Listener is implemented by anything that wants to observe pipeline progress.
type Listener interface {
	ProcessEvent(evt *Event)
}

// Bus fans a single event out to every registered Listener. Registration is
// not safe for concurrent use; register every listener before starting the
// pipeline.
type Bus struct {
	listeners []Listener
}

// Register adds l to the set of listeners notified by Emit.
func (b *Bus) Register(l Listener) {
	b.listeners = append(b.listeners, l)
}

// Emit delivers evt to every registered listener, in registration order.
func (b *Bus) Emit(evt *Event) {
	for _, l := range b.listeners {
		l.ProcessEvent(evt)
	}
}
