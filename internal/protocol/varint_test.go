// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package protocol_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomcproxy/gomcproxy/internal/protocol"
)

func TestVarIntBoundaries(t *testing.T) {
	tests := []struct {
		name string
		val  int32
		want []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"one", 1, []byte{0x01}},
		{"127", 127, []byte{0x7f}},
		{"128", 128, []byte{0x80, 0x01}},
		{"255", 255, []byte{0xff, 0x01}},
		{"25565", 25565, []byte{0xdd, 0xc7, 0x01}},
		{"max", 2147483647, []byte{0xff, 0xff, 0xff, 0xff, 0x07}},
		{"min", -2147483648, []byte{0x80, 0x80, 0x80, 0x80, 0x08}},
		{"minus one", -1, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, protocol.WriteVarInt(&buf, tt.val))
			require.Equal(t, tt.want, buf.Bytes())
			require.Equal(t, len(tt.want), protocol.VarIntLen(tt.val))

			got, err := protocol.ReadVarInt(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			require.Equal(t, tt.val, got)
		})
	}
}

func TestReadVarIntExceedsMaxBytes(t *testing.T) {
	overlong := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}
	_, err := protocol.ReadVarInt(bytes.NewReader(overlong))
	require.Error(t, err)
	require.ErrorIs(t, err, protocol.ErrMalformed)
}

func TestReadVarIntUnexpectedEOF(t *testing.T) {
	_, err := protocol.ReadVarInt(bytes.NewReader([]byte{0x80}))
	require.ErrorIs(t, err, protocol.ErrUnexpectedEOF)
}
