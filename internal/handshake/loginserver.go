// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package handshake

import (
	"io"

	"github.com/gomcproxy/gomcproxy/internal/protocol"
	"github.com/gomcproxy/gomcproxy/internal/state"
)

// LoginDecision is what the login-handler collaborator returns for an
// inbound player (spec §4.7 "Login (Server-facing)"). Online-mode
// verification is out of this spec's core; OfflineMode is the only
// decision implemented.
type LoginDecision struct {
	UUID     protocol.UUID
	Username string
}

// LoginHandler resolves an inbound username into the identity presented
// back to the player (spec §4.9 external collaborator).
type LoginHandler func(username string) (LoginDecision, error)

// AcceptLogin drives the server-facing Login phase (spec §4.7): read the
// username, consult handler, and reply with a Login Success carrying the
// decided identity.
func AcceptLogin(conn *state.Connection, handler LoginHandler) (LoginDecision, error) {
	pkt, err := conn.Inbound.NextPacket()
	if err != nil {
		return LoginDecision{}, err
	}
	if pkt.ID != 0x00 {
		pkt.Close()
		return LoginDecision{}, protocol.Malformed("expected login start packet id 0x00, got %#x", pkt.ID)
	}
	username, err := protocol.ReadString(pkt.Content, protocol.CapUsername)
	if err != nil {
		pkt.Close()
		return LoginDecision{}, err
	}
	if err := pkt.Finished(); err != nil {
		return LoginDecision{}, err
	}

	decision, err := handler(username)
	if err != nil {
		return LoginDecision{}, err
	}

	v := conn.Version()
	bodyLen := uuidEncodedLen(decision.UUID, v) + protocol.StringEncodedLen(decision.Username)
	err = writeKnownPacket(conn.Outbound, 0x02, bodyLen, func(w io.Writer) error {
		if err := protocol.WriteUUID(w, decision.UUID, v); err != nil {
			return err
		}
		return protocol.WriteString(w, decision.Username, protocol.CapUsername)
	})
	if err != nil {
		return LoginDecision{}, err
	}
	if err := conn.Advance(state.Play); err != nil {
		return LoginDecision{}, err
	}
	return decision, nil
}

func uuidEncodedLen(u protocol.UUID, v protocol.Version) int {
	if v.AtLeast(protocol.V1_16) {
		return 16
	}
	return protocol.StringEncodedLen(u.String())
}
