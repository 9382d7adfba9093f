// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package handshake

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gomcproxy/gomcproxy/internal/collab"
	"github.com/gomcproxy/gomcproxy/internal/protocol"
	"github.com/gomcproxy/gomcproxy/internal/state"
)

// https://github.com/PrismarineJS/node-yggdrasil/blob/c2b1e534dc56d33d8ea0c1ba02ead058b9db07b1/test/index.js#L70
func TestMinecraftDigestKnownVector(t *testing.T) {
	got := minecraftDigest("cat", []byte("cat"), []byte("cat"))
	require.Equal(t, "-af59e5b1d5d92e5c2c2776ed0e65e90be181f2a", got)
}

func TestMinecraftDigestDeterministic(t *testing.T) {
	a := minecraftDigest("server", []byte{1, 2, 3}, []byte{4, 5, 6})
	b := minecraftDigest("server", []byte{1, 2, 3}, []byte{4, 5, 6})
	require.Equal(t, a, b)
	require.NotEqual(t, a, minecraftDigest("other", []byte{1, 2, 3}, []byte{4, 5, 6}))
}

func TestReadWritePrefixedBytesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writePrefixedBytes(&buf, []byte{1, 2, 3, 4}))

	got, err := readPrefixedBytes(&buf)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, got)
}

func TestReadPrefixedBytesRejectsNegativeLength(t *testing.T) {
	// VarInt encoding of -1.
	buf := bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0x0f})
	_, err := readPrefixedBytes(buf)
	require.Error(t, err)
}

func TestLoginSucceedsAfterSetCompressionSkipsEncryption(t *testing.T) {
	client, server := pipeConnections(t)
	require.NoError(t, client.Advance(state.Login))
	require.NoError(t, server.Advance(state.Login))

	wantID := uuid.New()
	serverDone := make(chan error, 1)
	go func() {
		pkt, err := server.Inbound.NextPacket()
		if err != nil {
			serverDone <- err
			return
		}
		username, err := protocol.ReadString(pkt.Content, protocol.CapUsername)
		if err != nil {
			pkt.Close()
			serverDone <- err
			return
		}
		if err := pkt.Finished(); err != nil {
			serverDone <- err
			return
		}
		if username != "Steve" {
			serverDone <- protocol.Malformed("unexpected username %q", username)
			return
		}
		if err := writeKnownPacket(server.Outbound, 0x03, protocol.VarIntLen(256), func(w io.Writer) error {
			return protocol.WriteVarInt(w, 256)
		}); err != nil {
			serverDone <- err
			return
		}
		server.SetCompression(256)
		v := server.Version()
		bodyLen := 16 + protocol.StringEncodedLen("Steve")
		serverDone <- writeKnownPacket(server.Outbound, 0x02, bodyLen, func(w io.Writer) error {
			if err := protocol.WriteUUID(w, wantID, v); err != nil {
				return err
			}
			return protocol.WriteString(w, "Steve", protocol.CapUsername)
		})
	}()

	auth := collab.StaticAuthenticator{Name: "Steve", AccountUUID: wantID, AccessToken: "tok"}
	result, err := Login(context.Background(), client, "Steve", auth, nil, nil)
	require.NoError(t, err)
	require.NoError(t, <-serverDone)
	require.Equal(t, wantID, result.UUID)
	require.Equal(t, "Steve", result.Username)
	require.Equal(t, state.Play, client.Phase())
}

func TestLoginReturnsDisconnectedError(t *testing.T) {
	client, server := pipeConnections(t)
	require.NoError(t, client.Advance(state.Login))
	require.NoError(t, server.Advance(state.Login))

	serverDone := make(chan error, 1)
	go func() {
		pkt, err := server.Inbound.NextPacket()
		if err != nil {
			serverDone <- err
			return
		}
		pkt.Close()
		reason := protocol.Literal("server full")
		serverDone <- writePacket(server.Outbound, 0x00, func(w io.Writer) error {
			return protocol.EncodeChat(w, reason, server.Version())
		})
	}()

	auth := collab.StaticAuthenticator{Name: "Steve", AccountUUID: uuid.New(), AccessToken: "tok"}
	_, err := Login(context.Background(), client, "Steve", auth, nil, nil)
	require.NoError(t, <-serverDone)

	var discErr *DisconnectedError
	require.ErrorAs(t, err, &discErr)
	require.Equal(t, "server full", discErr.Reason.PlainString())
}
