// File: ip/iface.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ip

import (
	"github.com/momentics/hioload-stack/core/inet"
	"github.com/momentics/hioload-stack/device"
)

// Iface is an IPv4 address binding on a device.
type Iface struct {
	device.Iface
	Unicast   inet.Addr
	Netmask   inet.Addr
	Broadcast inet.Addr
}

// NewIface parses unicast and netmask and derives the directed broadcast.
func NewIface(unicast, netmask string) (*Iface, error) {
	u, err := inet.ParseAddr(unicast)
	if err != nil {
		return nil, err
	}
	m, err := inet.ParseAddr(netmask)
	if err != nil {
		return nil, err
	}
	return &Iface{
		Iface:     device.NewIface(device.FamilyIPv4),
		Unicast:   u,
		Netmask:   m,
		Broadcast: inet.AddrFromUint32(u.Uint32()&m.Uint32() | ^m.Uint32()),
	}, nil
}

func (i *Iface) String() string {
	return i.Unicast.String() + "/" + i.Netmask.String()
}
