// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package handshake

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gomcproxy/gomcproxy/internal/protocol"
	"github.com/gomcproxy/gomcproxy/internal/state"
)

func TestAcceptLoginRepliesWithDecidedIdentity(t *testing.T) {
	client, server := pipeConnections(t)
	require.NoError(t, client.Advance(state.Login))
	require.NoError(t, server.Advance(state.Login))

	wantID := uuid.New()
	clientDone := make(chan error, 1)
	go func() {
		clientDone <- writeKnownPacket(client.Outbound, 0x00, protocol.StringEncodedLen("Steve"), func(w io.Writer) error {
			return protocol.WriteString(w, "Steve", protocol.CapUsername)
		})
	}()

	decision, err := AcceptLogin(server, func(username string) (LoginDecision, error) {
		require.Equal(t, "Steve", username)
		return LoginDecision{UUID: wantID, Username: "Steve"}, nil
	})
	require.NoError(t, err)
	require.NoError(t, <-clientDone)
	require.Equal(t, wantID, decision.UUID)
	require.Equal(t, state.Play, server.Phase())

	pkt, err := client.Inbound.NextPacket()
	require.NoError(t, err)
	require.Equal(t, int32(0x02), pkt.ID)
	gotID, err := protocol.ReadUUID(pkt.Content, client.Version())
	require.NoError(t, err)
	gotName, err := protocol.ReadString(pkt.Content, protocol.CapUsername)
	require.NoError(t, err)
	require.NoError(t, pkt.Finished())
	require.Equal(t, wantID, gotID)
	require.Equal(t, "Steve", gotName)
}

func TestAcceptLoginRejectsWrongPacketID(t *testing.T) {
	client, server := pipeConnections(t)
	require.NoError(t, client.Advance(state.Login))
	require.NoError(t, server.Advance(state.Login))

	clientDone := make(chan error, 1)
	go func() {
		clientDone <- writeKnownPacket(client.Outbound, 0x03, 1, func(w io.Writer) error {
			return protocol.WriteBool(w, true)
		})
	}()

	_, err := AcceptLogin(server, func(string) (LoginDecision, error) {
		t.Fatal("handler must not be called for a malformed login start")
		return LoginDecision{}, nil
	})
	require.Error(t, err)
	<-clientDone
}

func TestNoPluginMessagesDeclines(t *testing.T) {
	var p NoPluginMessages
	resp, handled := p.HandlePluginRequest("some:channel", []byte{1, 2, 3})
	require.False(t, handled)
	require.Nil(t, resp)
}
