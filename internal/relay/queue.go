// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package relay

import (
	"sync"

	"github.com/gomcproxy/gomcproxy/internal/protocol"
)

// injectionQueueCap bounds the injection queue (spec §5 backpressure note:
// "implementations SHOULD cap it (reject or coalesce) if the stats
// collaborator can produce bursts"). Past this, the oldest pending
// message is dropped to make room rather than blocking the chat-command
// pump on a client that's fallen behind.
const injectionQueueCap = 256

// InjectionQueue is the strictly-FIFO queue of Chat messages destined for
// the client, shared between the two pumps (spec §4.8, §5).
type InjectionQueue struct {
	mu      sync.Mutex
	pending []protocol.Chat
}

func NewInjectionQueue() *InjectionQueue { return &InjectionQueue{} }

// Push enqueues c, coalescing by dropping the oldest entry once the queue
// is at capacity.
func (q *InjectionQueue) Push(c protocol.Chat) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) >= injectionQueueCap {
		q.pending = q.pending[1:]
	}
	q.pending = append(q.pending, c)
}

// Drain removes and returns every currently pending message, in FIFO
// order, leaving the queue empty.
func (q *InjectionQueue) Drain() []protocol.Chat {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	drained := q.pending
	q.pending = nil
	return drained
}
