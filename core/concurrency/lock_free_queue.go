// File: core/concurrency/lock_free_queue.go
// Package concurrency provides a bounded lock-free queue.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Multi-producer/multi-consumer ring with per-cell sequence numbers
// (Vyukov). Used by the packet buffer pool free lists.

package concurrency

import "sync/atomic"

const cacheLinePad = 64

// LockFreeQueue is a bounded MPMC FIFO.
type LockFreeQueue[T any] struct {
	head  atomic.Uint64
	_     [cacheLinePad]byte
	tail  atomic.Uint64
	_     [cacheLinePad]byte
	mask  uint64
	cells []cell[T]
}

type cell[T any] struct {
	seq  atomic.Uint64
	data T
}

// NewLockFreeQueue creates a queue whose capacity is rounded up to a power of two.
func NewLockFreeQueue[T any](capacity int) *LockFreeQueue[T] {
	size := 2
	for size < capacity {
		size <<= 1
	}
	q := &LockFreeQueue[T]{
		mask:  uint64(size - 1),
		cells: make([]cell[T], size),
	}
	for i := range q.cells {
		q.cells[i].seq.Store(uint64(i))
	}
	return q
}

// Enqueue appends val; false means the queue is full.
func (q *LockFreeQueue[T]) Enqueue(val T) bool {
	for {
		pos := q.tail.Load()
		c := &q.cells[pos&q.mask]
		switch dif := int64(c.seq.Load()) - int64(pos); {
		case dif == 0:
			if q.tail.CompareAndSwap(pos, pos+1) {
				c.data = val
				c.seq.Store(pos + 1)
				return true
			}
		case dif < 0:
			return false
		}
	}
}

// Dequeue removes the oldest item; ok is false when empty.
func (q *LockFreeQueue[T]) Dequeue() (item T, ok bool) {
	for {
		pos := q.head.Load()
		c := &q.cells[pos&q.mask]
		switch dif := int64(c.seq.Load()) - int64(pos+1); {
		case dif == 0:
			if q.head.CompareAndSwap(pos, pos+1) {
				item = c.data
				var zero T
				c.data = zero
				c.seq.Store(pos + q.mask + 1)
				return item, true
			}
		case dif < 0:
			return item, false
		}
	}
}

// Len is an approximate item count.
func (q *LockFreeQueue[T]) Len() int {
	n := int64(q.tail.Load()) - int64(q.head.Load())
	if n < 0 {
		return 0
	}
	return int(n)
}

// Cap returns the fixed capacity.
func (q *LockFreeQueue[T]) Cap() int {
	return len(q.cells)
}
