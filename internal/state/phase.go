// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package state holds the per-connection data model (spec component E):
// phase, role, protocol version, compression threshold, cipher state and
// framers, plus the two constructors (dial / accept) that bring a
// connection into existence.
package state

import "errors"

// Phase is the connection's position in the Handshaking -> Status | Login
// -> Play state machine (spec §3). Transitions are one-way.
type Phase int

const (
	Handshaking Phase = iota
	Status
	Login
	Play
)

func (p Phase) String() string {
	switch p {
	case Handshaking:
		return "handshaking"
	case Status:
		return "status"
	case Login:
		return "login"
	case Play:
		return "play"
	default:
		return "unknown"
	}
}

// Role distinguishes the two ends a Connection can play (spec §3).
type Role int

const (
	// RoleClientFacing owns the TCP connection accepted from the player.
	RoleClientFacing Role = iota
	// RoleServerFacing owns the TCP connection opened to the upstream server.
	RoleServerFacing
)

func (r Role) String() string {
	if r == RoleServerFacing {
		return "server-facing"
	}
	return "client-facing"
}

// ErrInvalidState is returned by phase-gated operations invoked outside
// their phase (spec §7: state errors are returned to the caller, the
// connection remains valid for in-phase operations).
var ErrInvalidState = errors.New("state: operation invalid in current phase")

// Advance moves the connection to next, rejecting any attempt to move
// backward, stay put, or skip in a way the phase machine doesn't allow:
// the only accepted transitions are Handshaking -> Status|Login and
// Login -> Play.
func (p *Phase) Advance(next Phase) error {
	allowed := (*p == Handshaking && (next == Status || next == Login)) ||
		(*p == Login && next == Play)
	if !allowed {
		return ErrInvalidState
	}
	*p = next
	return nil
}
