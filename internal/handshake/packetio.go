// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package handshake drives the Handshake, Status and Login phases (spec
// component F) for both connection roles: the client-facing side talking
// to the upstream server, and the server-facing side accepting a player.
package handshake

import (
	"io"

	"github.com/gomcproxy/gomcproxy/internal/framer"
)

// writePacket buffers fn's output and frames it under id. The handshake,
// status and login phases trade a handful of small packets each, so the
// unknown-length outbound variant (buffer then write header) is the right
// default; only the Play relay cares about zero-copy streaming.
func writePacket(out *framer.Outbound, id int32, fn func(io.Writer) error) error {
	w, err := out.CreatePacket(id, nil)
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		return err
	}
	return w.Close()
}

// writeKnownPacket is writePacket's known-length sibling, for the rare
// case where the body size is fixed ahead of time (e.g. the Status echo).
func writeKnownPacket(out *framer.Outbound, id int32, length int, fn func(io.Writer) error) error {
	w, err := out.CreatePacket(id, &length)
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		return err
	}
	return w.Close()
}
