// Package fake
// Author: momentics <momentics@gmail.com>
//
// Recording device driver with injectable failures.

package fake

import (
	"sync"

	"github.com/momentics/hioload-stack/api"
	"github.com/momentics/hioload-stack/device"
)

// Frame is one transmit call observed by Driver.
type Frame struct {
	Dev  device.ID
	Type api.ProtocolType
	Data []byte
	Dst  []byte
}

// Driver implements device.Driver, device.Opener and device.Closer.
type Driver struct {
	mu          sync.Mutex
	frames      []Frame
	opens       int
	closes      int
	openErr     error
	closeErr    error
	transmitErr error
}

var (
	_ device.Driver = (*Driver)(nil)
	_ device.Opener = (*Driver)(nil)
	_ device.Closer = (*Driver)(nil)
)

// NewDriver creates a fake driver that accepts everything.
func NewDriver() *Driver {
	return &Driver{}
}

// Open implements device.Opener.
func (d *Driver) Open(dev *device.Device) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens++
	return d.openErr
}

// Close implements device.Closer.
func (d *Driver) Close(dev *device.Device) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	return d.closeErr
}

// Transmit implements device.Driver. Accepted frames are copied.
func (d *Driver) Transmit(dev *device.Device, typ api.ProtocolType, data []byte, dst []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.transmitErr != nil {
		return d.transmitErr
	}
	d.frames = append(d.frames, Frame{
		Dev:  dev.ID(),
		Type: typ,
		Data: append([]byte(nil), data...),
		Dst:  append([]byte(nil), dst...),
	})
	return nil
}

// SetOpenError makes subsequent Open calls fail with err.
func (d *Driver) SetOpenError(err error) {
	d.mu.Lock()
	d.openErr = err
	d.mu.Unlock()
}

// SetCloseError makes subsequent Close calls fail with err.
func (d *Driver) SetCloseError(err error) {
	d.mu.Lock()
	d.closeErr = err
	d.mu.Unlock()
}

// SetTransmitError makes subsequent Transmit calls fail with err.
func (d *Driver) SetTransmitError(err error) {
	d.mu.Lock()
	d.transmitErr = err
	d.mu.Unlock()
}

// Frames returns the frames accepted so far.
func (d *Driver) Frames() []Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Frame(nil), d.frames...)
}

// Opens returns the number of Open calls.
func (d *Driver) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// Closes returns the number of Close calls.
func (d *Driver) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// TxOnly exposes only the mandatory transmit capability of a Driver.
type TxOnly struct {
	D *Driver
}

// Transmit implements device.Driver.
func (t TxOnly) Transmit(dev *device.Device, typ api.ProtocolType, data []byte, dst []byte) error {
	return t.D.Transmit(dev, typ, data, dst)
}
