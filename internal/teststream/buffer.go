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

// Package teststream provides an in-memory io.ReadWriteCloser fixture for
// sink tests, adapted from the teacher's BufferStream.
package teststream

import (
	"bytes"
	"errors"
)

// Buffer is a closable read/write stream of bytes backed by a bytes.Buffer.
type Buffer struct {
	buf    *bytes.Buffer
	closed bool
}

// NewBuffer creates a new Buffer, optionally pre-seeded with initial data.
func NewBuffer(initial ...[]byte) *Buffer {
	b := &Buffer{}

	if len(initial) == 1 {
		b.buf = bytes.NewBuffer(initial[0])
	} else {
		b.buf = bytes.NewBuffer(nil)
	}

	return b
}

// Write appends to the buffer. Returns an error once Close has been called.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.closed {
		return 0, errors.New("teststream: stream closed")
	}

	return b.buf.Write(p)
}

// Read drains the buffer. Returns an error once Close has been called.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.closed {
		return 0, errors.New("teststream: stream closed")
	}

	return b.buf.Read(p)
}

// Close makes the stream unavailable for future reads or writes.
func (b *Buffer) Close() error {
	b.closed = true
	return nil
}

// Bytes returns the buffer's unread contents.
func (b *Buffer) Bytes() []byte {
	return b.buf.Bytes()
}

// Len returns the number of unread bytes in the buffer.
func (b *Buffer) Len() int {
	return b.buf.Len()
}
