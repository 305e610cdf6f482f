// File: stack/stack.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stack

import (
	"sync"

	"github.com/momentics/hioload-stack/api"
	"github.com/momentics/hioload-stack/device"
	"github.com/momentics/hioload-stack/intr"
	"github.com/momentics/hioload-stack/ip"
)

// Stack is the running handle returned by Builder.Run.
type Stack struct {
	b        *Builder
	stopOnce sync.Once
}

// Device resolves a device by index.
func (s *Stack) Device(id device.ID) (*device.Device, bool) {
	return s.b.devices.Lookup(id)
}

// Devices returns every registered device in registration order.
func (s *Stack) Devices() []*device.Device {
	return s.b.devices.Devices()
}

// Ingress queues a received frame and raises the softirq. Safe from any
// goroutine. After Shutdown frames are refused with api.ErrDeliveryFailure.
func (s *Stack) Ingress(typ api.ProtocolType, data []byte, dev *device.Device) error {
	return s.b.protocols.Ingress(typ, data, dev)
}

// RaiseIRQ delivers irq to the worker.
func (s *Stack) RaiseIRQ(irq intr.IRQ) error {
	return s.b.intr.Raise(irq)
}

// Pending returns the number of queued frames for typ.
func (s *Stack) Pending(typ api.ProtocolType) int {
	return s.b.protocols.Pending(typ)
}

// IP returns the registered IPv4 protocol.
func (s *Stack) IP() *ip.Protocol {
	return s.b.ip
}

// InWorker reports whether the caller runs on the interrupt worker.
func (s *Stack) InWorker() bool {
	return s.b.intr.InWorker()
}

// Stats returns the runtime counters.
func (s *Stack) Stats() map[string]uint64 {
	return s.b.metrics.GetSnapshot()
}

// DumpState returns the output of every debug probe.
func (s *Stack) DumpState() map[string]any {
	return s.b.probes.DumpState()
}

// Probe runs the named debug probe.
func (s *Stack) Probe(name string) (any, bool) {
	return s.b.probes.Probe(name)
}

// Shutdown closes every open device, then stops the worker. Safe to call
// more than once; must not be called from a handler.
func (s *Stack) Shutdown() {
	s.stopOnce.Do(func() {
		s.b.log.Debug("close all devices")
		if err := s.b.devices.CloseAll(); err != nil {
			s.b.log.Warn("device close failure", "error", err)
		}
		s.b.intr.Shutdown()
		s.b.log.Debug("shutting down")
	})
}
