// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package protocol_test

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gomcproxy/gomcproxy/internal/protocol"
)

func TestUUIDWireFormByVersion(t *testing.T) {
	id := uuid.New()

	t.Run("raw bytes on 1.16+", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, protocol.WriteUUID(&buf, id, protocol.V1_16))
		require.Equal(t, 16, buf.Len())

		got, err := protocol.ReadUUID(&buf, protocol.V1_16)
		require.NoError(t, err)
		require.Equal(t, id, got)
	})

	t.Run("hyphenated string before 1.16", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, protocol.WriteUUID(&buf, id, protocol.V1_8_9))

		got, err := protocol.ReadUUID(&buf, protocol.V1_8_9)
		require.NoError(t, err)
		require.Equal(t, id, got)
	})
}

func TestHexNoHyphens(t *testing.T) {
	id := uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")
	require.Equal(t, "069a79f444e94726a5befca90e38aaf5", protocol.HexNoHyphens(id))
}
