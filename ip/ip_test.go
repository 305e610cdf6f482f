package ip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-stack/api"
	"github.com/momentics/hioload-stack/core/inet"
	"github.com/momentics/hioload-stack/device"
	"github.com/momentics/hioload-stack/protocol"
)

type registrar struct {
	handlers map[api.ProtocolType]protocol.Handler
}

func (r *registrar) RegisterProtocol(typ api.ProtocolType, h protocol.Handler) error {
	if _, ok := r.handlers[typ]; ok {
		return api.NewError(api.ErrCodeAlreadyRegistered, "protocol")
	}
	r.handlers[typ] = h
	return nil
}

func TestRegister_InputCounts(t *testing.T) {
	reg := &registrar{handlers: map[api.ProtocolType]protocol.Handler{}}
	p, err := Register(reg, nil)
	require.NoError(t, err)

	h := reg.handlers[api.ProtocolIP]
	require.NotNil(t, h)
	devices := device.NewRegistry(0, nil, nil)
	dev, _ := devices.Alloc()
	require.NoError(t, devices.Register(dev))

	h(make([]byte, 20), dev)
	assert.Equal(t, uint64(1), p.Received())
	assert.Equal(t, uint64(20), p.Bytes())

	_, err = Register(reg, nil)
	assert.ErrorIs(t, err, api.ErrAlreadyRegistered)
}

func TestNewIface(t *testing.T) {
	iface, err := NewIface("192.0.2.2", "255.255.255.0")
	require.NoError(t, err)
	assert.Equal(t, device.FamilyIPv4, iface.Family())
	assert.Equal(t, inet.MustParseAddr("192.0.2.255"), iface.Broadcast)
	assert.Equal(t, "192.0.2.2/255.255.255.0", iface.String())

	_, err = NewIface("192.0.2", "255.255.255.0")
	assert.ErrorIs(t, err, api.ErrInvalidFormat)
	_, err = NewIface("192.0.2.2", "mask")
	assert.ErrorIs(t, err, api.ErrInvalidFormat)
}

func TestIface_AttachToDevice(t *testing.T) {
	devices := device.NewRegistry(0, nil, nil)
	dev, _ := devices.Alloc()
	require.NoError(t, devices.Register(dev))

	iface, err := NewIface("127.0.0.1", "255.0.0.0")
	require.NoError(t, err)
	require.NoError(t, dev.AddInterface(iface))
	assert.Equal(t, dev.ID(), iface.Device())

	got, ok := dev.Interface(device.FamilyIPv4).(*Iface)
	require.True(t, ok)
	assert.Same(t, iface, got)
}
