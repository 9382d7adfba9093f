// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package relay

import (
	"bytes"

	"github.com/gomcproxy/gomcproxy/internal/protocol"
)

const (
	playerInfoAdd           = 0
	playerInfoUpdateLatency = 2
	playerInfoRemove        = 4
)

// applyPlayerInfo parses a Player Info packet body (v1.8.9 numbering,
// spec §4.8) and folds Add/Update-latency/Remove actions into roster.
// Actions 1 (update gamemode) and 3 (update display name) carry no
// roster-relevant fields and are left unparsed, matching spec's "skip;
// roster/latency are unchanged" — the raw body is forwarded regardless
// of whether this function understands it.
func applyPlayerInfo(body []byte, version protocol.Version, roster *Roster) error {
	r := bytes.NewReader(body)
	action, err := protocol.ReadVarInt(r)
	if err != nil {
		return err
	}
	n, err := protocol.ReadVarInt(r)
	if err != nil {
		return err
	}
	if n < 0 {
		return protocol.Malformed("player info entry count %d is negative", n)
	}

	switch action {
	case playerInfoAdd:
		for i := int32(0); i < n; i++ {
			id, err := protocol.ReadUUIDRaw(r)
			if err != nil {
				return err
			}
			name, err := protocol.ReadString(r, protocol.CapUsername)
			if err != nil {
				return err
			}
			props, err := protocol.ReadVarInt(r)
			if err != nil {
				return err
			}
			for j := int32(0); j < props; j++ {
				if _, err := protocol.ReadString(r, protocol.CapIdentifier); err != nil {
					return err
				}
				if _, err := protocol.ReadString(r, protocol.CapIdentifier); err != nil {
					return err
				}
				signed, err := protocol.ReadBool(r)
				if err != nil {
					return err
				}
				if signed {
					if _, err := protocol.ReadString(r, protocol.CapIdentifier); err != nil {
						return err
					}
				}
			}
			if _, err := protocol.ReadVarInt(r); err != nil { // gamemode
				return err
			}
			ping, err := protocol.ReadVarInt(r)
			if err != nil {
				return err
			}
			hasDisplayName, err := protocol.ReadBool(r)
			if err != nil {
				return err
			}
			if hasDisplayName {
				if _, err := protocol.DecodeChat(r, version); err != nil {
					return err
				}
			}
			roster.Add(id, name, ping)
		}
	case playerInfoUpdateLatency:
		for i := int32(0); i < n; i++ {
			id, err := protocol.ReadUUIDRaw(r)
			if err != nil {
				return err
			}
			ping, err := protocol.ReadVarInt(r)
			if err != nil {
				return err
			}
			roster.UpdateLatency(id, ping)
		}
	case playerInfoRemove:
		for i := int32(0); i < n; i++ {
			id, err := protocol.ReadUUIDRaw(r)
			if err != nil {
				return err
			}
			roster.Remove(id)
		}
	default:
		// actions 1 and 3: no roster-relevant fields, nothing to do.
	}
	return nil
}
