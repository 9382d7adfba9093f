// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package handshake

import (
	"encoding/json"
	"io"

	"github.com/gomcproxy/gomcproxy/internal/protocol"
	"github.com/gomcproxy/gomcproxy/internal/state"
)

// StatusPlayerSample is one entry of the optional online-player sample.
type StatusPlayerSample struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// StatusResponse is the status JSON document (spec §4.7 Status, id 0).
type StatusResponse struct {
	Version struct {
		Name     string `json:"name"`
		Protocol int    `json:"protocol"`
	} `json:"version"`
	Players struct {
		Max    int                  `json:"max"`
		Online int                  `json:"online"`
		Sample []StatusPlayerSample `json:"sample,omitempty"`
	} `json:"players"`
	Description protocol.Chat `json:"description"`
	Favicon     string        `json:"favicon,omitempty"`
}

// QueryStatus drives the client-side Status phase (spec §4.7): send the
// empty request, then loop until the status document arrives, replying to
// any echo request along the way.
func QueryStatus(conn *state.Connection) (StatusResponse, error) {
	if err := writePacket(conn.Outbound, 0x00, func(io.Writer) error { return nil }); err != nil {
		return StatusResponse{}, err
	}

	for {
		pkt, err := conn.Inbound.NextPacket()
		if err != nil {
			return StatusResponse{}, err
		}
		switch pkt.ID {
		case 0x00:
			raw, err := protocol.ReadString(pkt.Content, protocol.CapStatusJSON)
			if err != nil {
				pkt.Close()
				return StatusResponse{}, err
			}
			if err := pkt.Finished(); err != nil {
				return StatusResponse{}, err
			}
			var resp StatusResponse
			if err := json.Unmarshal([]byte(raw), &resp); err != nil {
				return StatusResponse{}, protocol.Malformed("invalid status JSON: %v", err)
			}
			return resp, nil
		case 0x01:
			payload, err := protocol.ReadInt64(pkt.Content)
			if err != nil {
				pkt.Close()
				return StatusResponse{}, err
			}
			if err := pkt.Finished(); err != nil {
				return StatusResponse{}, err
			}
			if err := writeKnownPacket(conn.Outbound, 0x01, 8, func(w io.Writer) error {
				return protocol.WriteInt64(w, payload)
			}); err != nil {
				return StatusResponse{}, err
			}
		default:
			pkt.Close()
			return StatusResponse{}, protocol.Malformed("unexpected status packet id %#x", pkt.ID)
		}
	}
}
