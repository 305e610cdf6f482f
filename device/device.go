// File: device/device.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package device

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-stack/api"
	"github.com/momentics/hioload-stack/control"
	"github.com/momentics/hioload-stack/internal/logging"
)

// ID is the registration index of a device.
type ID int

// NoID marks a device that has not been registered.
const NoID ID = -1

// Type tags the link layer a device speaks.
type Type uint16

const (
	TypeDummy    Type = 0x0000
	TypeLoopback Type = 0x0001
	TypeEthernet Type = 0x0002
)

func (t Type) String() string {
	switch t {
	case TypeDummy:
		return "dummy"
	case TypeLoopback:
		return "loopback"
	case TypeEthernet:
		return "ethernet"
	default:
		return fmt.Sprintf("0x%04x", uint16(t))
	}
}

// Flags are the operational flags of a device.
type Flags uint16

const (
	FlagUp        Flags = 0x0001
	FlagLoopback  Flags = 0x0010
	FlagBroadcast Flags = 0x0020
	FlagP2P       Flags = 0x0040
	FlagNeedARP   Flags = 0x0100
)

// Device is a registered network device. Fields other than the operational
// state are configured by the driver before registration and read-only after.
type Device struct {
	Type      Type
	MTU       uint16
	HeaderLen uint16
	HWAddr    net.HardwareAddr
	Broadcast net.HardwareAddr
	Driver    Driver
	// Priv is driver-private state.
	Priv any

	id    ID
	name  string
	reg   *Registry
	flags atomic.Uint32

	// mu serializes state transitions and interface binding.
	mu     sync.Mutex
	ifaces []Interface

	log     *logging.Logger
	metrics *control.MetricsRegistry
}

func newDevice() *Device {
	return &Device{id: NoID, log: logging.Discard()}
}

// ID returns the registration index, NoID before registration.
func (d *Device) ID() ID { return d.id }

// Name returns the derived display name ("net<index>").
func (d *Device) Name() string { return d.name }

// Flags returns the current flags.
func (d *Device) Flags() Flags { return Flags(d.flags.Load()) }

// SetFlags adds static capability flags. FlagUp is managed by Open/Close
// and ignored here.
func (d *Device) SetFlags(f Flags) {
	f &^= FlagUp
	for {
		old := d.flags.Load()
		if d.flags.CompareAndSwap(old, old|uint32(f)) {
			return
		}
	}
}

// IsUp reports whether the device is opened.
func (d *Device) IsUp() bool { return d.Flags()&FlagUp != 0 }

// State returns "up" or "down".
func (d *Device) State() string {
	if d.IsUp() {
		return "up"
	}
	return "down"
}

func (d *Device) String() string {
	if d.name == "" {
		return "<unregistered>"
	}
	return d.name
}

// Open transitions Down to Up, invoking the driver's Opener if present.
func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.IsUp() {
		d.log.Error("already opened", "dev", d.name)
		return api.NewError(api.ErrCodeAlreadyOpen, "open").WithContext("dev", d.name)
	}
	if op, ok := d.Driver.(Opener); ok {
		if err := op.Open(d); err != nil {
			d.log.Error("driver open failure", "dev", d.name, "error", err)
			return api.NewError(api.ErrCodeDriverFailure, "open").WithContext("dev", d.name).WithCause(err)
		}
	}
	for {
		old := d.flags.Load()
		if d.flags.CompareAndSwap(old, old|uint32(FlagUp)) {
			break
		}
	}
	d.log.Info("device state changed", "dev", d.name, "state", d.State())
	return nil
}

// Close transitions Up to Down, invoking the driver's Closer if present.
// A driver failure leaves the device up.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.IsUp() {
		d.log.Error("not opened", "dev", d.name)
		return api.NewError(api.ErrCodeNotOpen, "close").WithContext("dev", d.name)
	}
	if cl, ok := d.Driver.(Closer); ok {
		if err := cl.Close(d); err != nil {
			d.log.Error("driver close failure", "dev", d.name, "error", err)
			return api.NewError(api.ErrCodeDriverFailure, "close").WithContext("dev", d.name).WithCause(err)
		}
	}
	for {
		old := d.flags.Load()
		if d.flags.CompareAndSwap(old, old&^uint32(FlagUp)) {
			break
		}
	}
	d.log.Info("device state changed", "dev", d.name, "state", d.State())
	return nil
}

// Transmit hands data to the driver. It fails if the device is down or data
// exceeds the MTU; there is no buffering, success means the driver accepted
// the frame.
func (d *Device) Transmit(typ api.ProtocolType, data []byte, dst []byte) error {
	if !d.IsUp() {
		d.log.Error("not opened", "dev", d.name)
		return api.NewError(api.ErrCodeNotOpen, "transmit").WithContext("dev", d.name)
	}
	if len(data) > int(d.MTU) {
		d.log.Error("too long", "dev", d.name, "mtu", d.MTU, "len", len(data))
		return api.NewError(api.ErrCodeFrameTooLarge, "transmit").
			WithContext("dev", d.name).
			WithContext("mtu", d.MTU).
			WithContext("len", len(data))
	}
	if d.Driver == nil {
		return api.NewError(api.ErrCodeDriverFailure, "no transmit capability").WithContext("dev", d.name)
	}
	d.log.Debug("transmit", "dev", d.name, "type", typ.Hex(), "len", len(data))
	d.log.Dump("transmit frame", data)
	if err := d.Driver.Transmit(d, typ, data, dst); err != nil {
		d.log.Error("device transmit failure", "dev", d.name, "len", len(data), "error", err)
		return api.NewError(api.ErrCodeDriverFailure, "transmit").WithContext("dev", d.name).WithCause(err)
	}
	d.metrics.Inc(control.DeviceTx)
	return nil
}
