// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package handshake

import (
	"io"

	"github.com/gomcproxy/gomcproxy/internal/protocol"
	"github.com/gomcproxy/gomcproxy/internal/state"
)

// NextState selects the phase a Handshake packet requests.
type NextState int32

const (
	NextStateStatus NextState = 1
	NextStateLogin  NextState = 2
)

// Handshake is the single packet id 0x00 that begins every connection
// (spec §3, §4.7).
type Handshake struct {
	ProtocolVersion int32
	ServerHost      string
	ServerPort      uint16
	NextState       NextState
}

// SendHandshake emits the handshake packet on conn (the client side of
// §4.7: "Client emits"), advancing the connection's phase from
// Handshaking on success.
func SendHandshake(conn *state.Connection, hs Handshake) error {
	if hs.NextState != NextStateStatus && hs.NextState != NextStateLogin {
		return protocol.Malformed("handshake next-state %d is neither 1 (status) nor 2 (login)", hs.NextState)
	}
	err := writePacket(conn.Outbound, 0x00, func(w io.Writer) error {
		if err := protocol.WriteVarInt(w, hs.ProtocolVersion); err != nil {
			return err
		}
		if err := protocol.WriteString(w, hs.ServerHost, protocol.CapServerAddress); err != nil {
			return err
		}
		if err := protocol.WriteUint16(w, hs.ServerPort); err != nil {
			return err
		}
		return protocol.WriteVarInt(w, int32(hs.NextState))
	})
	if err != nil {
		return err
	}
	if hs.NextState == NextStateStatus {
		return conn.Advance(state.Status)
	}
	return conn.Advance(state.Login)
}

// AcceptHandshake reads the handshake packet on conn (the server side of
// §4.7: "Server accepts"), resolves and installs the protocol version,
// and advances the phase to Status or Login.
func AcceptHandshake(conn *state.Connection) (Handshake, error) {
	pkt, err := conn.Inbound.NextPacket()
	if err != nil {
		return Handshake{}, err
	}
	if pkt.ID != 0x00 {
		pkt.Close()
		return Handshake{}, protocol.Malformed("expected handshake packet id 0x00, got %#x", pkt.ID)
	}
	var hs Handshake
	wireVersion, err := protocol.ReadVarInt(pkt.Content)
	if err != nil {
		pkt.Close()
		return Handshake{}, err
	}
	hs.ProtocolVersion = wireVersion
	hs.ServerHost, err = protocol.ReadString(pkt.Content, protocol.CapServerAddress)
	if err != nil {
		pkt.Close()
		return Handshake{}, err
	}
	hs.ServerPort, err = protocol.ReadUint16(pkt.Content)
	if err != nil {
		pkt.Close()
		return Handshake{}, err
	}
	next, err := protocol.ReadVarInt(pkt.Content)
	if err != nil {
		pkt.Close()
		return Handshake{}, err
	}
	hs.NextState = NextState(next)
	if hs.NextState != NextStateStatus && hs.NextState != NextStateLogin {
		pkt.Close()
		return Handshake{}, protocol.Malformed("handshake next-state %d is neither 1 (status) nor 2 (login)", next)
	}
	if err := pkt.Finished(); err != nil {
		return Handshake{}, err
	}

	resolved, err := protocol.ResolveVersion(wireVersion)
	if err != nil {
		return Handshake{}, err
	}
	conn.SetVersion(resolved)
	if hs.NextState == NextStateStatus {
		return hs, conn.Advance(state.Status)
	}
	return hs, conn.Advance(state.Login)
}
