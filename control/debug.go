// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Named state probes over the device, protocol and interrupt layers.

package control

import (
	"sort"
	"sync"
)

// ProbeFunc reports the current state of one subsystem.
type ProbeFunc func() any

// DebugProbes maps probe names to ProbeFuncs. Probes run without the
// registry lock held, so a probe may read other probes.
type DebugProbes struct {
	mu     sync.RWMutex
	byName map[string]ProbeFunc
}

// NewDebugProbes creates an empty probe set.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{byName: make(map[string]ProbeFunc)}
}

// RegisterProbe adds fn under name, replacing an earlier probe of that name.
func (dp *DebugProbes) RegisterProbe(name string, fn ProbeFunc) {
	dp.mu.Lock()
	dp.byName[name] = fn
	dp.mu.Unlock()
}

// Names lists the registered probes in lexical order.
func (dp *DebugProbes) Names() []string {
	dp.mu.RLock()
	names := make([]string, 0, len(dp.byName))
	for name := range dp.byName {
		names = append(names, name)
	}
	dp.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Probe runs a single probe.
func (dp *DebugProbes) Probe(name string) (any, bool) {
	dp.mu.RLock()
	fn, ok := dp.byName[name]
	dp.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return fn(), true
}

// DumpState runs every probe.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	fns := make(map[string]ProbeFunc, len(dp.byName))
	for name, fn := range dp.byName {
		fns[name] = fn
	}
	dp.mu.RUnlock()

	state := make(map[string]any, len(fns))
	for name, fn := range fns {
		state[name] = fn()
	}
	return state
}
