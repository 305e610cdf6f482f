// File: drivers/dummy/dummy.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package dummy is a discard device. Every transmitted frame is dropped and
// the device IRQ is raised, which makes it a cheap probe of the interrupt
// path.
package dummy

import (
	"math"

	"github.com/momentics/hioload-stack/api"
	"github.com/momentics/hioload-stack/device"
	"github.com/momentics/hioload-stack/internal/logging"
	"github.com/momentics/hioload-stack/intr"
)

// IRQ is shared by every dummy device.
const IRQ = intr.IRQBase

// MTU is the default maximum frame length.
const MTU = math.MaxUint16

// Host is the part of the stack a dummy device needs.
type Host interface {
	AllocDevice() (*device.Device, error)
	RegisterDevice(dev *device.Device) error
	RequestIRQ(irq intr.IRQ, handler intr.Handler, flags intr.Flags, name string, dev any) error
	RaiseIRQ(irq intr.IRQ) error
}

// Driver implements device.Driver.
type Driver struct {
	host Host
	log  *logging.Logger
}

// Init creates and registers a dummy device. mtu 0 selects MTU.
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
	drv := &Driver{host: host, log: log.Component("dummy")}
	dev.Type = device.TypeDummy
	dev.MTU = mtu
	dev.Driver = drv
	if err := host.RegisterDevice(dev); err != nil {
		return nil, err
	}
	if err := host.RequestIRQ(IRQ, drv.isr, intr.FlagShared, dev.Name(), dev); err != nil {
		return nil, err
	}
	drv.log.Debug("initialized", "dev", dev.Name())
	return dev, nil
}

// Transmit drops the frame and raises the device IRQ.
func (d *Driver) Transmit(dev *device.Device, typ api.ProtocolType, data []byte, dst []byte) error {
	d.log.Debug("transmit", "dev", dev.Name(), "type", typ.Hex(), "len", len(data))
	d.log.Dump("dummy frame", data)
	if err := d.host.RaiseIRQ(IRQ); err != nil {
		d.log.Debug("irq not delivered", "dev", dev.Name(), "error", err)
	}
	return nil
}

func (d *Driver) isr(irq intr.IRQ, handle any) {
	dev := handle.(*device.Device)
	d.log.Debug("irq", "irq", uint(irq), "dev", dev.Name())
}
