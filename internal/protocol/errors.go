// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package protocol implements the byte-level primitives of the Minecraft
// Java Edition wire protocol: variable-width integers, length-capped
// strings, UUIDs, positions and chat, plus the protocol version table.
package protocol

import (
	"errors"
	"fmt"
	"io"
)

// Sentinel errors for the codec layer (spec §4.1). Decode/encode paths
// return one of these (or a wrapped form of one of these) instead of
// panicking, regardless of how hostile the input is.
var (
	ErrUnexpectedEOF = errors.New("protocol: unexpected end of stream")
	ErrNeedMore      = errors.New("protocol: writer cannot accept more bytes")
	ErrMalformed     = errors.New("protocol: malformed value")
)

// MalformedError wraps ErrMalformed with a reason, so callers can log a
// useful message while still matching on errors.Is(err, ErrMalformed).
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string { return "protocol: malformed: " + e.Reason }
func (e *MalformedError) Unwrap() error { return ErrMalformed }

// Malformed builds a MalformedError, formatting like fmt.Errorf.
func Malformed(format string, args ...any) error {
	return &MalformedError{Reason: fmt.Sprintf(format, args...)}
}

// wrapIOErr maps the I/O error taxonomy from spec §4.1: EOF -> UnexpectedEOF,
// write-zero -> NeedMore, anything else passes through unchanged.
func wrapIOErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrUnexpectedEOF
	}
	if errors.Is(err, io.ErrShortWrite) {
		return ErrNeedMore
	}
	return err
}
