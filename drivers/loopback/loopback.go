// File: drivers/loopback/loopback.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package loopback feeds transmitted frames back into the stack. Transmit
// parks a copy in a bounded driver queue and raises the device IRQ; the IRQ
// handler, running on the interrupt worker, hands every parked frame to
// ingress.
package loopback

import (
	"errors"
	"math"
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-stack/api"
	"github.com/momentics/hioload-stack/device"
	"github.com/momentics/hioload-stack/internal/logging"
	"github.com/momentics/hioload-stack/intr"
)

// IRQ is shared by every loopback device.
const IRQ = intr.IRQBase + 1

// MTU is the default maximum frame length.
const MTU = math.MaxUint16

// QueueLimit bounds frames parked between transmit and the IRQ handler.
const QueueLimit = 16

// ErrQueueFull is returned by Transmit while QueueLimit frames are parked.
var ErrQueueFull = errors.New("loopback queue is full")

// Host is the part of the stack a loopback device needs.
type Host interface {
	AllocDevice() (*device.Device, error)
	RegisterDevice(dev *device.Device) error
	RequestIRQ(irq intr.IRQ, handler intr.Handler, flags intr.Flags, name string, dev any) error
	RaiseIRQ(irq intr.IRQ) error
	Ingress(typ api.ProtocolType, data []byte, dev *device.Device) error
}

type frame struct {
	typ  api.ProtocolType
	data []byte
}

// Driver implements device.Driver.
type Driver struct {
	host Host
	log  *logging.Logger

	mu sync.Mutex
	q  *queue.Queue
}

// Init creates and registers a loopback device. mtu 0 selects MTU.
func Init(host Host, mtu uint16, log *logging.Logger) (*device.Device, error) {
	if log == nil {
		log = logging.Discard()
	}
	dev, err := host.AllocDevice()
	if err != nil {
		return nil, err
	}
	if mtu == 0 {
		mtu = MTU
	}
	drv := &Driver{host: host, log: log.Component("loopback"), q: queue.New()}
	dev.Type = device.TypeLoopback
	dev.MTU = mtu
	dev.Driver = drv
	dev.SetFlags(device.FlagLoopback)
	if err := host.RegisterDevice(dev); err != nil {
		return nil, err
	}
	if err := host.RequestIRQ(IRQ, drv.isr, intr.FlagShared, dev.Name(), dev); err != nil {
		return nil, err
	}
	drv.log.Debug("initialized", "dev", dev.Name())
	return dev, nil
}

// Transmit parks a copy of data and raises the device IRQ. A parked frame
// counts as accepted even if the IRQ could not be delivered.
func (d *Driver) Transmit(dev *device.Device, typ api.ProtocolType, data []byte, dst []byte) error {
	d.mu.Lock()
	if d.q.Length() >= QueueLimit {
		d.mu.Unlock()
		d.log.Error("queue is full", "dev", dev.Name())
		return ErrQueueFull
	}
	d.q.Add(&frame{typ: typ, data: append([]byte(nil), data...)})
	n := d.q.Length()
	d.mu.Unlock()

	d.log.Debug("queue pushed", "num", n, "dev", dev.Name(), "type", typ.Hex(), "len", len(data))
	if err := d.host.RaiseIRQ(IRQ); err != nil {
		d.log.Debug("irq not delivered, frame stays parked", "dev", dev.Name(), "num", n, "error", err)
	}
	return nil
}

// Pending returns the number of parked frames.
func (d *Driver) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.q.Length()
}

func (d *Driver) pop() (*frame, int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.q.Length() == 0 {
		return nil, 0, false
	}
	f := d.q.Remove().(*frame)
	return f, d.q.Length(), true
}

func (d *Driver) isr(irq intr.IRQ, handle any) {
	dev := handle.(*device.Device)
	for {
		f, left, ok := d.pop()
		if !ok {
			return
		}
		d.log.Debug("queue popped", "num", left, "dev", dev.Name(), "type", f.typ.Hex(), "len", len(f.data))
		if err := d.host.Ingress(f.typ, f.data, dev); err != nil {
			d.log.Debug("input dropped", "dev", dev.Name(), "error", err)
		}
	}
}
