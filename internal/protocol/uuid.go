// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package protocol

import (
	"io"
	"strings"

	"github.com/google/uuid"
)

// UUID is a thin alias over google/uuid's UUID. The pack (gate, la2go) uses
// this library wherever it needs a UUID type; this proxy does the same
// rather than hand-rolling a 16-byte array with custom parsing.
type UUID = uuid.UUID

// ReadUUIDRaw reads the 16-byte wire form used unconditionally in Play
// packets (e.g. Player Info, spec §4.8), independent of protocol version.
func ReadUUIDRaw(r io.Reader) (UUID, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return UUID{}, wrapIOErr(err)
	}
	return UUID(buf), nil
}

func WriteUUIDRaw(w io.Writer, u UUID) error {
	_, err := w.Write(u[:])
	return wrapIOErr(err)
}

// ReadUUID decodes the version-dependent UUID wire form used by Login
// Success (spec §3): 16 raw bytes on v>=1.16, a hyphenated length-capped-36
// ASCII string on older versions.
func ReadUUID(r io.Reader, v Version) (UUID, error) {
	if v.AtLeast(V1_16) {
		return ReadUUIDRaw(r)
	}
	s, err := ReadString(r, CapUUIDHyphens)
	if err != nil {
		return UUID{}, err
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, Malformed("invalid hyphenated uuid %q: %v", s, err)
	}
	return u, nil
}

func WriteUUID(w io.Writer, u UUID, v Version) error {
	if v.AtLeast(V1_16) {
		return WriteUUIDRaw(w, u)
	}
	return WriteString(w, u.String(), CapUUIDHyphens)
}

// HexNoHyphens returns the 32-lowercase-hex-character form used in
// session-join JSON payloads (spec §3, §4.7).
func HexNoHyphens(u UUID) string {
	return strings.ReplaceAll(u.String(), "-", "")
}

// ParseHexNoHyphens parses either the 32-char hex form or a hyphenated UUID;
// google/uuid's Parse already accepts both, kept as a named entry point so
// call sites document which wire form they expect.
func ParseHexNoHyphens(s string) (UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, Malformed("invalid uuid %q: %v", s, err)
	}
	return u, nil
}
