// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package handshake

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomcproxy/gomcproxy/internal/protocol"
)

func TestQueryStatusReceivesDocument(t *testing.T) {
	client, server := pipeConnections(t)

	const doc = `{"version":{"name":"1.16.5","protocol":754},"players":{"max":20,"online":3},"description":{"text":"hello"}}`

	serverDone := make(chan error, 1)
	go func() {
		// Consume the empty status request.
		pkt, err := server.Inbound.NextPacket()
		if err != nil {
			serverDone <- err
			return
		}
		if err := pkt.Finished(); err != nil {
			serverDone <- err
			return
		}
		// Reply with a ping first, which QueryStatus must echo back.
		err = writeKnownPacket(server.Outbound, 0x01, 8, func(w io.Writer) error {
			return protocol.WriteInt64(w, 12345)
		})
		if err != nil {
			serverDone <- err
			return
		}
		echo, err := server.Inbound.NextPacket()
		if err != nil {
			serverDone <- err
			return
		}
		payload, err := protocol.ReadInt64(echo.Content)
		if err != nil {
			serverDone <- err
			return
		}
		if err := echo.Finished(); err != nil {
			serverDone <- err
			return
		}
		if payload != 12345 {
			serverDone <- protocol.Malformed("echoed ping payload mismatch: got %d", payload)
			return
		}
		serverDone <- writeKnownPacket(server.Outbound, 0x00, protocol.StringEncodedLen(doc), func(w io.Writer) error {
			return protocol.WriteString(w, doc, protocol.CapStatusJSON)
		})
	}()

	resp, err := QueryStatus(client)
	require.NoError(t, err)
	require.NoError(t, <-serverDone)

	require.Equal(t, "1.16.5", resp.Version.Name)
	require.Equal(t, 754, resp.Version.Protocol)
	require.Equal(t, 20, resp.Players.Max)
	require.Equal(t, 3, resp.Players.Online)
	require.Equal(t, "hello", resp.Description.PlainString())
}

func TestQueryStatusRejectsUnexpectedPacket(t *testing.T) {
	client, server := pipeConnections(t)

	serverDone := make(chan error, 1)
	go func() {
		pkt, err := server.Inbound.NextPacket()
		if err != nil {
			serverDone <- err
			return
		}
		pkt.Close()
		serverDone <- writeKnownPacket(server.Outbound, 0x09, 1, func(w io.Writer) error {
			return protocol.WriteBool(w, true)
		})
	}()

	_, err := QueryStatus(client)
	require.Error(t, err)
	<-serverDone
}
