// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime counters for packet and interrupt accounting.
// Counters are created lazily and updated without holding the registry lock.

package control

import (
	"sync"
	"sync/atomic"
	"time"
)

// Counter names shared by the stack layers.
const (
	IngressEnqueued   = "ingress.enqueued"
	IngressDropped    = "ingress.dropped"
	SoftirqRuns       = "softirq.runs"
	SoftirqDispatched = "softirq.dispatched"
	IRQRaised         = "irq.raised"
	IRQDispatched     = "irq.dispatched"
	DeviceTx          = "device.tx"
)

// MetricsRegistry holds named counters.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]*atomic.Uint64
	updated  atomic.Int64
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]*atomic.Uint64),
	}
}

// Add increments counter key by delta. A nil registry is a no-op.
func (mr *MetricsRegistry) Add(key string, delta uint64) {
	if mr == nil {
		return
	}
	mr.counter(key).Add(delta)
	mr.updated.Store(time.Now().UnixNano())
}

// Inc increments counter key by one.
func (mr *MetricsRegistry) Inc(key string) {
	mr.Add(key, 1)
}

// Get returns the current value of key.
func (mr *MetricsRegistry) Get(key string) uint64 {
	if mr == nil {
		return 0
	}
	mr.mu.RLock()
	c, ok := mr.counters[key]
	mr.mu.RUnlock()
	if !ok {
		return 0
	}
	return c.Load()
}

// GetSnapshot returns a copy of all counters.
func (mr *MetricsRegistry) GetSnapshot() map[string]uint64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]uint64, len(mr.counters))
	for k, c := range mr.counters {
		out[k] = c.Load()
	}
	return out
}

// Updated reports when any counter last changed.
func (mr *MetricsRegistry) Updated() time.Time {
	ns := mr.updated.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

func (mr *MetricsRegistry) counter(key string) *atomic.Uint64 {
	mr.mu.RLock()
	c, ok := mr.counters[key]
	mr.mu.RUnlock()
	if ok {
		return c
	}
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if c, ok = mr.counters[key]; !ok {
		c = new(atomic.Uint64)
		mr.counters[key] = c
	}
	return c
}
