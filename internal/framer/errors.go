// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package framer implements the framed, optionally-compressed packet
// codec (spec component D): the inbound reader that yields bounded
// per-packet handles, and the outbound writer variants that cover
// (known vs. unknown length) x (compression on/off) x (above/below
// threshold).
package framer

import "errors"

// MaxTotalLen is the design-level maximum total_len a receiver accepts
// before closing the connection (spec §3, §6): 2097151 = 2^21-1, the
// largest value a 3-byte VarInt can hold.
const MaxTotalLen = 2097151

var (
	// ErrPacketTooBig means total_len would exceed MaxTotalLen.
	ErrPacketTooBig = errors.New("framer: packet too big")
	// ErrInvalidPacketSize means a decoded total_len or uncompressed_size
	// field was negative or otherwise out of range.
	ErrInvalidPacketSize = errors.New("framer: invalid packet size")
	// ErrIncompletePacket means a frame's producer or consumer did not
	// honor the declared length — always a bug or a hostile peer.
	ErrIncompletePacket = errors.New("framer: incomplete packet")
	// ErrPacketNotFinalized is returned by NextPacket when the previous
	// packet handle was never finalized (spec: packet lifetimes are
	// exclusive).
	ErrPacketNotFinalized = errors.New("framer: previous packet handle not finalized")
	// ErrAlreadyFinalized guards double Finished()/Close() calls.
	ErrAlreadyFinalized = errors.New("framer: packet handle already finalized")
)
