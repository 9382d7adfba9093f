// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package netio provides the bounded-stream and stream-cipher adapters
// that every byte of the Minecraft wire protocol passes through (spec
// components B and C).
package netio

import "io"

// BoundedReader wraps a reader with a remaining-byte budget (spec §4.3).
// Once the budget is exhausted, further reads report io.EOF — "EOF from
// the limit" rather than from the underlying stream.
type BoundedReader struct {
	r         io.Reader
	remaining int
}

// NewBoundedReader creates a BoundedReader with the given byte budget.
func NewBoundedReader(r io.Reader, limit int) *BoundedReader {
	return &BoundedReader{r: r, remaining: limit}
}

func (b *BoundedReader) Read(p []byte) (int, error) {
	if b.remaining <= 0 {
		return 0, io.EOF
	}
	if len(p) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.r.Read(p)
	b.remaining -= n
	return n, err
}

// Remaining reports how many bytes may still be read before the budget is
// exhausted — framing code uses this to detect under-read (spec invariant:
// a frame left with unread bytes is a protocol violation unless discarded).
func (b *BoundedReader) Remaining() int { return b.remaining }

// Discard drains whatever remains of the budget to the bit bucket. Used by
// the "drain and discard" close path of a packet handle.
func (b *BoundedReader) Discard() error {
	if b.remaining <= 0 {
		return nil
	}
	_, err := io.Copy(io.Discard, b)
	return err
}

// BoundedWriter clips writes to a remaining-byte budget, reporting how many
// bytes were accepted (spec §4.3).
type BoundedWriter struct {
	w         io.Writer
	remaining int
}

func NewBoundedWriter(w io.Writer, limit int) *BoundedWriter {
	return &BoundedWriter{w: w, remaining: limit}
}

func (b *BoundedWriter) Write(p []byte) (int, error) {
	if b.remaining <= 0 {
		return 0, io.ErrShortWrite
	}
	if len(p) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.w.Write(p)
	b.remaining -= n
	return n, err
}

func (b *BoundedWriter) Remaining() int { return b.remaining }
