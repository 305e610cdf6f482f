package device_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-stack/api"
	"github.com/momentics/hioload-stack/control"
	"github.com/momentics/hioload-stack/device"
	"github.com/momentics/hioload-stack/fake"
)

func newDevice(t *testing.T, reg *device.Registry, drv device.Driver, mtu uint16) *device.Device {
	t.Helper()
	dev, err := reg.Alloc()
	require.NoError(t, err)
	dev.Type = device.TypeDummy
	dev.MTU = mtu
	dev.Driver = drv
	require.NoError(t, reg.Register(dev))
	return dev
}

func TestRegister_IndexAndName(t *testing.T) {
	reg := device.NewRegistry(0, nil, nil)
	a := newDevice(t, reg, fake.NewDriver(), 1500)
	b := newDevice(t, reg, fake.NewDriver(), 1500)

	assert.Equal(t, device.ID(0), a.ID())
	assert.Equal(t, "net0", a.Name())
	assert.Equal(t, device.ID(1), b.ID())
	assert.Equal(t, "net1", b.Name())
	assert.Equal(t, "down", a.State())

	got, ok := reg.Lookup(1)
	require.True(t, ok)
	assert.Same(t, b, got)
	_, ok = reg.Lookup(2)
	assert.False(t, ok)
	assert.Equal(t, []*device.Device{a, b}, reg.Devices())

	assert.ErrorIs(t, reg.Register(a), api.ErrAlreadyRegistered)
}

func TestAlloc_Limit(t *testing.T) {
	reg := device.NewRegistry(1, nil, nil)
	_, err := reg.Alloc()
	require.NoError(t, err)
	_, err = reg.Alloc()
	assert.ErrorIs(t, err, api.ErrAllocationFailure)
}

func TestRegister_Sealed(t *testing.T) {
	reg := device.NewRegistry(0, nil, nil)
	dev := newDevice(t, reg, fake.NewDriver(), 1500)
	reg.Seal()

	late, err := reg.Alloc()
	require.NoError(t, err)
	assert.ErrorIs(t, reg.Register(late), api.ErrSealed)

	iface := device.NewIface(device.FamilyIPv4)
	assert.ErrorIs(t, dev.AddInterface(&iface), api.ErrSealed)
}

func TestOpenClose_StateMachine(t *testing.T) {
	reg := device.NewRegistry(0, nil, nil)
	drv := fake.NewDriver()
	dev := newDevice(t, reg, drv, 1500)

	require.NoError(t, dev.Open())
	assert.True(t, dev.IsUp())
	assert.Equal(t, "up", dev.State())

	err := dev.Open()
	assert.ErrorIs(t, err, api.ErrAlreadyOpen)
	assert.Equal(t, 1, drv.Opens(), "driver not invoked twice")

	require.NoError(t, dev.Close())
	assert.False(t, dev.IsUp())

	assert.ErrorIs(t, dev.Close(), api.ErrNotOpen)
	assert.Equal(t, 1, drv.Closes())

	// cycles
	require.NoError(t, dev.Open())
	assert.Equal(t, 2, drv.Opens())
}

func TestOpen_DriverFailure(t *testing.T) {
	reg := device.NewRegistry(0, nil, nil)
	drv := fake.NewDriver()
	dev := newDevice(t, reg, drv, 1500)
	cause := errors.New("no carrier")
	drv.SetOpenError(cause)

	err := dev.Open()
	assert.ErrorIs(t, err, api.ErrDriverFailure)
	assert.ErrorIs(t, err, cause)
	assert.False(t, dev.IsUp())
}

func TestClose_DriverFailureKeepsUp(t *testing.T) {
	reg := device.NewRegistry(0, nil, nil)
	drv := fake.NewDriver()
	dev := newDevice(t, reg, drv, 1500)
	require.NoError(t, dev.Open())

	drv.SetCloseError(errors.New("busy"))
	assert.ErrorIs(t, dev.Close(), api.ErrDriverFailure)
	assert.True(t, dev.IsUp())
}

func TestOpenClose_OptionalCapabilities(t *testing.T) {
	reg := device.NewRegistry(0, nil, nil)
	drv := fake.NewDriver()
	dev := newDevice(t, reg, fake.TxOnly{D: drv}, 1500)

	require.NoError(t, dev.Open())
	require.NoError(t, dev.Close())
	assert.Zero(t, drv.Opens())
	assert.Zero(t, drv.Closes())
}

func TestTransmit(t *testing.T) {
	metrics := control.NewMetricsRegistry()
	reg := device.NewRegistry(0, nil, metrics)
	drv := fake.NewDriver()
	dev := newDevice(t, reg, drv, 4)

	assert.ErrorIs(t, dev.Transmit(api.ProtocolIP, []byte{1}, nil), api.ErrNotOpen)
	require.NoError(t, dev.Open())

	require.NoError(t, dev.Transmit(api.ProtocolIP, []byte{1, 2, 3, 4}, []byte{0xff}))
	err := dev.Transmit(api.ProtocolIP, []byte{1, 2, 3, 4, 5}, nil)
	assert.ErrorIs(t, err, api.ErrFrameTooLarge)

	frames := drv.Frames()
	require.Len(t, frames, 1, "oversized frame never reaches the driver")
	assert.Equal(t, fake.Frame{Dev: 0, Type: api.ProtocolIP, Data: []byte{1, 2, 3, 4}, Dst: []byte{0xff}}, frames[0])
	assert.Equal(t, uint64(1), metrics.Get(control.DeviceTx))

	drv.SetTransmitError(errors.New("queue full"))
	assert.ErrorIs(t, dev.Transmit(api.ProtocolIP, []byte{1}, nil), api.ErrDriverFailure)
}

func TestInterfaces(t *testing.T) {
	reg := device.NewRegistry(0, nil, nil)
	dev := newDevice(t, reg, fake.NewDriver(), 1500)

	v4 := device.NewIface(device.FamilyIPv4)
	assert.Equal(t, device.NoID, v4.Device())
	require.NoError(t, dev.AddInterface(&v4))
	assert.Equal(t, dev.ID(), v4.Device())

	dup := device.NewIface(device.FamilyIPv4)
	assert.ErrorIs(t, dev.AddInterface(&dup), api.ErrDuplicateFamily)

	v6 := device.NewIface(device.FamilyIPv6)
	require.NoError(t, dev.AddInterface(&v6))

	assert.Same(t, &v4, dev.Interface(device.FamilyIPv4))
	assert.Nil(t, dev.Interface(device.Family(9)))
	assert.Len(t, dev.Interfaces(), 2)
}

func TestOpenAllCloseAll(t *testing.T) {
	reg := device.NewRegistry(0, nil, nil)
	good := fake.NewDriver()
	bad := fake.NewDriver()
	bad.SetOpenError(errors.New("nope"))
	a := newDevice(t, reg, good, 1500)
	b := newDevice(t, reg, bad, 1500)

	err := reg.OpenAll()
	assert.ErrorIs(t, err, api.ErrDriverFailure)
	assert.True(t, a.IsUp())
	assert.False(t, b.IsUp())

	require.NoError(t, reg.CloseAll())
	assert.False(t, a.IsUp())

	snap := reg.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "net0", snap[0]["name"])
	assert.Equal(t, "down", snap[0]["state"])
}

func TestSetFlags_IgnoresUp(t *testing.T) {
	reg := device.NewRegistry(0, nil, nil)
	dev := newDevice(t, reg, fake.NewDriver(), 1500)
	dev.SetFlags(device.FlagLoopback | device.FlagUp)
	assert.Equal(t, device.FlagLoopback, dev.Flags())
	assert.False(t, dev.IsUp())
}
