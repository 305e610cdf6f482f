// File: protocol/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-stack/device"
)

// entry is one received frame waiting for its handler.
type entry struct {
	dev  device.ID
	data []byte
}

// inputQueue is an unbounded FIFO safe for many producers and one consumer.
type inputQueue struct {
	mu sync.Mutex
	q  *queue.Queue
}

func newInputQueue() *inputQueue {
	return &inputQueue{q: queue.New()}
}

// push appends e and returns the resulting length.
func (iq *inputQueue) push(e *entry) int {
	iq.mu.Lock()
	defer iq.mu.Unlock()
	iq.q.Add(e)
	return iq.q.Length()
}

// pop removes the head entry and returns the remaining length.
func (iq *inputQueue) pop() (*entry, int, bool) {
	iq.mu.Lock()
	defer iq.mu.Unlock()
	if iq.q.Length() == 0 {
		return nil, 0, false
	}
	e := iq.q.Remove().(*entry)
	return e, iq.q.Length(), true
}

func (iq *inputQueue) len() int {
	iq.mu.Lock()
	defer iq.mu.Unlock()
	return iq.q.Length()
}
