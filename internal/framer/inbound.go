// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package framer

import (
	"compress/zlib"
	"io"

	"github.com/gomcproxy/gomcproxy/internal/netio"
	"github.com/gomcproxy/gomcproxy/internal/protocol"
)

// Inbound is the inbound framer (spec §4.5). It reads frames off r —
// normally a *netio.CipherReader, already transparent before keying — and
// yields one Packet handle at a time.
type Inbound struct {
	r         io.Reader
	threshold int // < 0 means compression disabled
	open      bool
}

// NewInbound wraps r. Compression starts disabled.
func NewInbound(r io.Reader) *Inbound {
	return &Inbound{r: r, threshold: -1}
}

// SetCompression enables compression at the given threshold (spec §4.7 id 3
// Set Compression). Threshold may be 0 — every frame still carries the
// uncompressed_size field.
func (in *Inbound) SetCompression(threshold int) { in.threshold = threshold }

// CompressionEnabled reports whether Set Compression has been applied.
func (in *Inbound) CompressionEnabled() bool { return in.threshold >= 0 }

// Packet is the handle produced by NextPacket (spec §4.5). Content must be
// read to exactly its declared length and then finalized with Finished or
// Close; a second NextPacket call before that happens is a programmer
// error, reported as ErrPacketNotFinalized.
type Packet struct {
	ID      int32
	Len     int
	Content io.Reader

	owner      *Inbound
	done       bool
	remaining  func() int
	finishOuter func() error
}

// NextPacket reads the next frame's header and exposes its body as a
// bounded content reader (spec §4.5 algorithm).
func (in *Inbound) NextPacket() (*Packet, error) {
	if in.open {
		return nil, ErrPacketNotFinalized
	}
	totalLen, err := protocol.ReadVarInt(in.r)
	if err != nil {
		return nil, err
	}
	if totalLen < 0 || int(totalLen) > MaxTotalLen {
		return nil, ErrInvalidPacketSize
	}

	outer := netio.NewBoundedReader(in.r, int(totalLen))

	if !in.CompressionEnabled() {
		id, err := protocol.ReadVarInt(outer)
		if err != nil {
			return nil, err
		}
		in.open = true
		return &Packet{
			ID: id, Len: outer.Remaining(), Content: outer, owner: in,
			remaining:   outer.Remaining,
			finishOuter: func() error { return outer.Discard() },
		}, nil
	}

	uncompressedSize, err := protocol.ReadVarInt(outer)
	if err != nil {
		return nil, err
	}
	if uncompressedSize == 0 {
		id, err := protocol.ReadVarInt(outer)
		if err != nil {
			return nil, err
		}
		in.open = true
		return &Packet{
			ID: id, Len: outer.Remaining(), Content: outer, owner: in,
			remaining:   outer.Remaining,
			finishOuter: func() error { return outer.Discard() },
		}, nil
	}
	if uncompressedSize < 0 {
		return nil, ErrInvalidPacketSize
	}

	zr, err := zlib.NewReader(outer)
	if err != nil {
		return nil, protocol.Malformed("invalid zlib stream: %v", err)
	}
	inner := netio.NewBoundedReader(zr, int(uncompressedSize))
	id, err := protocol.ReadVarInt(inner)
	if err != nil {
		return nil, err
	}
	in.open = true
	return &Packet{
		ID: id, Len: inner.Remaining(), Content: inner, owner: in,
		remaining: inner.Remaining,
		finishOuter: func() error {
			if err := inner.Discard(); err != nil {
				return err
			}
			// Any residue in the compressed stream after the decoder
			// reports EOF is Malformed (spec §4.5).
			var probe [1]byte
			if n, err := zr.Read(probe[:]); n > 0 || (err != nil && err != io.EOF) {
				return protocol.Malformed("residue after decompressed packet body")
			}
			return outer.Discard()
		},
	}, nil
}

// Finished asserts the content reader was consumed to exactly its declared
// length (spec §4.5); any slack is ErrIncompletePacket.
func (p *Packet) Finished() error {
	if p.done {
		return ErrAlreadyFinalized
	}
	p.done = true
	p.owner.open = false
	if p.remaining() != 0 {
		return ErrIncompletePacket
	}
	return p.finishOuter()
}

// Close drains whatever remains of the content to the bit bucket before
// finalizing — the "drain and discard" path (spec invariant).
func (p *Packet) Close() error {
	if p.done {
		return ErrAlreadyFinalized
	}
	p.done = true
	p.owner.open = false
	if discarder, ok := p.Content.(interface{ Discard() error }); ok {
		if err := discarder.Discard(); err != nil {
			return err
		}
	} else if _, err := io.Copy(io.Discard, p.Content); err != nil {
		return err
	}
	return p.finishOuter()
}
