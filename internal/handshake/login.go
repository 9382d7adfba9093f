// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package handshake

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"io"
	"math/big"
	"net/http"

	"github.com/gomcproxy/gomcproxy/internal/collab"
	"github.com/gomcproxy/gomcproxy/internal/framer"
	"github.com/gomcproxy/gomcproxy/internal/protocol"
	"github.com/gomcproxy/gomcproxy/internal/state"
)

// LoginResult is what a successful client-side Login yields (spec §4.7:
// "Login Success ... Advance to Play. Return the player.").
type LoginResult struct {
	UUID     protocol.UUID
	Username string
}

// DisconnectedError wraps a Login Disconnect's Chat reason (spec §7:
// "Disconnect-by-peer").
type DisconnectedError struct {
	Reason protocol.Chat
}

func (e *DisconnectedError) Error() string { return "handshake: disconnected: " + e.Reason.PlainString() }

// Login drives the client-side Login phase (spec §4.7 "Login (Client)"):
// send the username, then loop through Disconnect / Encryption Request /
// Login Success / Set Compression / Login Plugin Request until Play is
// reached or the peer disconnects.
func Login(ctx context.Context, conn *state.Connection, username string, auth collab.Authenticator, plugins PluginMessageHandler, httpClient *http.Client) (LoginResult, error) {
	if plugins == nil {
		plugins = NoPluginMessages{}
	}
	if err := writeKnownPacket(conn.Outbound, 0x00, protocol.StringEncodedLen(username), func(w io.Writer) error {
		return protocol.WriteString(w, username, protocol.CapUsername)
	}); err != nil {
		return LoginResult{}, err
	}

	for {
		pkt, err := conn.Inbound.NextPacket()
		if err != nil {
			return LoginResult{}, err
		}
		switch pkt.ID {
		case 0x00: // Disconnect
			reason, err := protocol.DecodeChat(pkt.Content, conn.Version())
			if err != nil {
				pkt.Close()
				return LoginResult{}, err
			}
			if err := pkt.Finished(); err != nil {
				return LoginResult{}, err
			}
			return LoginResult{}, &DisconnectedError{Reason: reason}

		case 0x01: // Encryption Request
			if err := handleEncryptionRequest(ctx, conn, pkt, auth, httpClient); err != nil {
				return LoginResult{}, err
			}

		case 0x02: // Login Success
			id, err := protocol.ReadUUID(pkt.Content, conn.Version())
			if err != nil {
				pkt.Close()
				return LoginResult{}, err
			}
			name, err := protocol.ReadString(pkt.Content, protocol.CapUsername)
			if err != nil {
				pkt.Close()
				return LoginResult{}, err
			}
			if err := pkt.Finished(); err != nil {
				return LoginResult{}, err
			}
			if err := conn.Advance(state.Play); err != nil {
				return LoginResult{}, err
			}
			return LoginResult{UUID: id, Username: name}, nil

		case 0x03: // Set Compression
			threshold, err := protocol.ReadVarInt(pkt.Content)
			if err != nil {
				pkt.Close()
				return LoginResult{}, err
			}
			if err := pkt.Finished(); err != nil {
				return LoginResult{}, err
			}
			conn.SetCompression(int(threshold))

		case 0x04: // Login Plugin Request
			if err := handleLoginPluginRequest(conn, pkt, plugins); err != nil {
				return LoginResult{}, err
			}

		default:
			pkt.Close()
			return LoginResult{}, protocol.Malformed("unexpected login packet id %#x", pkt.ID)
		}
	}
}

func handleEncryptionRequest(ctx context.Context, conn *state.Connection, pkt *framer.Packet, auth collab.Authenticator, httpClient *http.Client) error {
	serverID, err := protocol.ReadString(pkt.Content, protocol.CapServerID)
	if err != nil {
		pkt.Close()
		return err
	}
	pubKeyDER, err := readPrefixedBytes(pkt.Content)
	if err != nil {
		pkt.Close()
		return err
	}
	verifyToken, err := readPrefixedBytes(pkt.Content)
	if err != nil {
		pkt.Close()
		return err
	}
	if err := pkt.Finished(); err != nil {
		return err
	}

	parsed, err := x509.ParsePKIXPublicKey(pubKeyDER)
	if err != nil {
		return protocol.Malformed("invalid SPKI public key: %v", err)
	}
	serverKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return protocol.Malformed("encryption request public key is not RSA (OID 1.2.840.113549.1.1.1)")
	}

	var sharedSecret [16]byte
	if _, err := rand.Read(sharedSecret[:]); err != nil {
		return err
	}

	digest := minecraftDigest(serverID, sharedSecret[:], pubKeyDER)
	accountUUID, accessToken, err := auth.Credentials(ctx)
	if err != nil {
		return err
	}
	if err := collab.SessionJoin(ctx, httpClient, accessToken, accountUUID, digest); err != nil {
		return err
	}

	encryptedSecret, err := rsa.EncryptPKCS1v15(rand.Reader, serverKey, sharedSecret[:])
	if err != nil {
		return err
	}
	encryptedToken, err := rsa.EncryptPKCS1v15(rand.Reader, serverKey, verifyToken)
	if err != nil {
		return err
	}
	bodyLen := protocol.VarIntLen(int32(len(encryptedSecret))) + len(encryptedSecret) +
		protocol.VarIntLen(int32(len(encryptedToken))) + len(encryptedToken)
	err = writeKnownPacket(conn.Outbound, 0x01, bodyLen, func(w io.Writer) error {
		if err := writePrefixedBytes(w, encryptedSecret); err != nil {
			return err
		}
		return writePrefixedBytes(w, encryptedToken)
	})
	if err != nil {
		return err
	}

	if !conn.SetKey(sharedSecret) {
		return protocol.Malformed("encryption key already set for this connection")
	}
	return nil
}

func handleLoginPluginRequest(conn *state.Connection, pkt *framer.Packet, plugins PluginMessageHandler) error {
	messageID, err := protocol.ReadVarInt(pkt.Content)
	if err != nil {
		pkt.Close()
		return err
	}
	channel, err := protocol.ReadString(pkt.Content, protocol.CapIdentifier)
	if err != nil {
		pkt.Close()
		return err
	}
	data, err := io.ReadAll(pkt.Content)
	if err != nil {
		pkt.Close()
		return err
	}
	if err := pkt.Finished(); err != nil {
		return err
	}

	response, handled := plugins.HandlePluginRequest(channel, data)
	if handled {
		bodyLen := protocol.VarIntLen(messageID) + 1 + len(response)
		return writeKnownPacket(conn.Outbound, 0x02, bodyLen, func(w io.Writer) error {
			if err := protocol.WriteVarInt(w, messageID); err != nil {
				return err
			}
			if err := protocol.WriteBool(w, true); err != nil {
				return err
			}
			_, err := w.Write(response)
			return err
		})
	}
	bodyLen := protocol.VarIntLen(messageID) + 1
	return writeKnownPacket(conn.Outbound, 0x02, bodyLen, func(w io.Writer) error {
		if err := protocol.WriteVarInt(w, messageID); err != nil {
			return err
		}
		return protocol.WriteBool(w, false)
	})
}

// minecraftDigest computes Mojang's SHA-1 session hash and encodes it as
// Java's new BigInteger(digest).toString(16) would, including the sign
// convention: if the high bit of the 160-bit hash is set, the value is
// negated (two's complement) and printed with a leading '-' (spec §4.7).
func minecraftDigest(serverID string, sharedSecret, spkiDER []byte) string {
	h := sha1.New()
	h.Write([]byte(serverID))
	h.Write(sharedSecret)
	h.Write(spkiDER)
	sum := h.Sum(nil)

	digest := new(big.Int).SetBytes(sum)
	if sum[0]&0x80 != 0 {
		max := new(big.Int).Lsh(big.NewInt(1), uint(len(sum)*8))
		digest.Sub(digest, max)
	}
	return digest.Text(16)
}

func readPrefixedBytes(r io.Reader) ([]byte, error) {
	n, err := protocol.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, protocol.Malformed("negative length-prefixed byte count %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writePrefixedBytes(w io.Writer, b []byte) error {
	if err := protocol.WriteVarInt(w, int32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}
