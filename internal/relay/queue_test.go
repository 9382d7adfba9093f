// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package relay

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomcproxy/gomcproxy/internal/protocol"
)

func TestInjectionQueueFIFO(t *testing.T) {
	q := NewInjectionQueue()
	q.Push(protocol.Literal("first"))
	q.Push(protocol.Literal("second"))

	drained := q.Drain()
	require.Len(t, drained, 2)
	require.Equal(t, "first", drained[0].Text)
	require.Equal(t, "second", drained[1].Text)

	require.Empty(t, q.Drain(), "a second Drain before any Push must be empty")
}

func TestInjectionQueueCoalescesAtCapacity(t *testing.T) {
	q := NewInjectionQueue()
	for i := 0; i < injectionQueueCap+10; i++ {
		q.Push(protocol.Literal(strconv.Itoa(i)))
	}

	drained := q.Drain()
	require.Len(t, drained, injectionQueueCap)
	require.Equal(t, "10", drained[0].Text, "the oldest entries must be dropped once the cap is hit")
	require.Equal(t, strconv.Itoa(injectionQueueCap+9), drained[len(drained)-1].Text)
}
