// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"sync/atomic"

	"github.com/momentics/hioload-stack/core/concurrency"
)

// SizeClasses lists buffer capacities from smallest to largest. 65536 covers
// the largest frame a 16-bit MTU allows.
var SizeClasses = []int{128, 256, 512, 1024, 2048, 4096, 9216, 16384, 65536}

const defaultClassDepth = 256

// Stats aggregates allocation and reuse counters.
type Stats struct {
	TotalAlloc uint64 // fresh allocations
	Reused     uint64 // Get served from a free list
	Returned   uint64 // Put accepted into a free list
	Discarded  uint64 // Put dropped (foreign capacity or full class)
}

// BytePool hands out []byte buffers grouped by size class.
// Safe for concurrent use.
type BytePool struct {
	classes []*sizeClass

	totalAlloc atomic.Uint64
	reused     atomic.Uint64
	returned   atomic.Uint64
	discarded  atomic.Uint64
}

type sizeClass struct {
	size int
	free *concurrency.LockFreeQueue[[]byte]
}

// NewBytePool creates a pool keeping at most depth idle buffers per class.
func NewBytePool(depth int) *BytePool {
	if depth <= 0 {
		depth = defaultClassDepth
	}
	p := &BytePool{classes: make([]*sizeClass, len(SizeClasses))}
	for i, size := range SizeClasses {
		p.classes[i] = &sizeClass{
			size: size,
			free: concurrency.NewLockFreeQueue[[]byte](depth),
		}
	}
	return p
}

// Get returns a buffer of length n. Buffers above the largest class are
// allocated directly and never pooled.
func (p *BytePool) Get(n int) []byte {
	c := p.classFor(n)
	if c == nil {
		p.totalAlloc.Add(1)
		return make([]byte, n)
	}
	if buf, ok := c.free.Dequeue(); ok {
		p.reused.Add(1)
		return buf[:n]
	}
	p.totalAlloc.Add(1)
	return make([]byte, n, c.size)
}

// Put returns buf to its class. buf must not be used afterwards.
func (p *BytePool) Put(buf []byte) {
	for _, c := range p.classes {
		if cap(buf) == c.size {
			if c.free.Enqueue(buf[:0]) {
				p.returned.Add(1)
				return
			}
			break
		}
	}
	p.discarded.Add(1)
}

// Stats returns a snapshot of the pool counters.
func (p *BytePool) Stats() Stats {
	return Stats{
		TotalAlloc: p.totalAlloc.Load(),
		Reused:     p.reused.Load(),
		Returned:   p.returned.Load(),
		Discarded:  p.discarded.Load(),
	}
}

func (p *BytePool) classFor(n int) *sizeClass {
	for _, c := range p.classes {
		if n <= c.size {
			return c
		}
	}
	return nil
}
