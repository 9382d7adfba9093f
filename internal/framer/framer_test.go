// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package framer_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomcproxy/gomcproxy/internal/framer"
)

func roundTrip(t *testing.T, out *framer.Outbound, in *framer.Inbound, id int32, body []byte, known bool) {
	t.Helper()
	var lenHint *int
	if known {
		n := len(body)
		lenHint = &n
	}
	w, err := out.CreatePacket(id, lenHint)
	require.NoError(t, err)
	_, err = w.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	pkt, err := in.NextPacket()
	require.NoError(t, err)
	require.Equal(t, id, pkt.ID)
	got, err := io.ReadAll(pkt.Content)
	require.NoError(t, err)
	require.Equal(t, body, got)
	require.NoError(t, pkt.Finished())
}

func TestUncompressedRoundTrip(t *testing.T) {
	for _, known := range []bool{true, false} {
		var wire bytes.Buffer
		out := framer.NewOutbound(&wire)
		in := framer.NewInbound(&wire)
		roundTrip(t, out, in, 0x01, []byte("hello minecraft"), known)
	}
}

func TestCompressedRoundTripBelowAndAboveThreshold(t *testing.T) {
	for _, known := range []bool{true, false} {
		var wire bytes.Buffer
		out := framer.NewOutbound(&wire)
		out.SetCompression(16)
		in := framer.NewInbound(&wire)
		in.SetCompression(16)

		roundTrip(t, out, in, 0x02, bytes.Repeat([]byte("a"), 10), known)
		roundTrip(t, out, in, 0x03, bytes.Repeat([]byte("b"), 200), known)
	}
}

// TestCompressionThresholdBoundary reproduces the spec's own worked example:
// threshold 16, a 16-byte body stays in the uncompressed form
// (uncompressed_size field == 0) while a 17-byte body switches to the
// compressed form.
func TestCompressionThresholdBoundary(t *testing.T) {
	var wire bytes.Buffer
	out := framer.NewOutbound(&wire)
	out.SetCompression(16)

	w, err := out.CreatePacket(0x00, intPtr(16))
	require.NoError(t, err)
	_, err = w.Write(bytes.Repeat([]byte{0}, 16))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = readVarIntFromBuf(&wire) // total_len
	require.NoError(t, err)
	uncompressedSize, err := readVarIntFromBuf(&wire)
	require.NoError(t, err)
	require.Equal(t, int32(0), uncompressedSize)

	wire.Reset()
	out2 := framer.NewOutbound(&wire)
	out2.SetCompression(16)
	w2, err := out2.CreatePacket(0x00, intPtr(17))
	require.NoError(t, err)
	_, err = w2.Write(bytes.Repeat([]byte{0}, 17))
	require.NoError(t, err)
	require.NoError(t, w2.Close())

	_, err = readVarIntFromBuf(&wire)
	require.NoError(t, err)
	uncompressedSize2, err := readVarIntFromBuf(&wire)
	require.NoError(t, err)
	require.Equal(t, int32(18), uncompressedSize2) // VarIntLen(id)=1 + 17 byte body
}

func TestIncompletePacketOnShortKnownWrite(t *testing.T) {
	var wire bytes.Buffer
	out := framer.NewOutbound(&wire)
	w, err := out.CreatePacket(0x00, intPtr(10))
	require.NoError(t, err)
	_, err = w.Write([]byte("short"))
	require.NoError(t, err)
	require.ErrorIs(t, w.Close(), framer.ErrIncompletePacket)
}

func TestPacketTooBigRejected(t *testing.T) {
	var wire bytes.Buffer
	out := framer.NewOutbound(&wire)
	_, err := out.CreatePacket(0x00, intPtr(framer.MaxTotalLen+1))
	require.ErrorIs(t, err, framer.ErrPacketTooBig)
}

func TestNextPacketBeforeFinalizedIsRejected(t *testing.T) {
	var wire bytes.Buffer
	out := framer.NewOutbound(&wire)
	w, err := out.CreatePacket(0x00, intPtr(1))
	require.NoError(t, err)
	_, err = w.Write([]byte{0})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	w2, err := out.CreatePacket(0x01, intPtr(1))
	require.NoError(t, err)
	_, err = w2.Write([]byte{0})
	require.NoError(t, err)
	require.NoError(t, w2.Close())

	in := framer.NewInbound(&wire)
	_, err = in.NextPacket()
	require.NoError(t, err)

	_, err = in.NextPacket()
	require.ErrorIs(t, err, framer.ErrPacketNotFinalized)
}

func intPtr(n int) *int { return &n }

func readVarIntFromBuf(buf *bytes.Buffer) (int32, error) {
	var result uint32
	var shift uint
	for {
		b, err := buf.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return int32(result), nil
		}
		shift += 7
	}
}
