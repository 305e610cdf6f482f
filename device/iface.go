// File: device/iface.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package device

import (
	"fmt"

	"github.com/momentics/hioload-stack/api"
)

// Family tags the address family of an interface.
type Family int

const (
	FamilyIPv4 Family = 1
	FamilyIPv6 Family = 2
)

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// Interface is a protocol-family binding attached to exactly one device.
// Implementations embed Iface.
type Interface interface {
	Family() Family
	// Device returns the owning device ID, NoID while unattached.
	Device() ID
	attach(id ID)
}

// Iface carries the family tag and owning device of an Interface.
type Iface struct {
	family Family
	dev    ID
}

// NewIface returns an unattached Iface of family f.
func NewIface(f Family) Iface {
	return Iface{family: f, dev: NoID}
}

func (i *Iface) Family() Family { return i.family }
func (i *Iface) Device() ID     { return i.dev }
func (i *Iface) attach(id ID)   { i.dev = id }

// AddInterface attaches iface to d. At most one interface per family is
// allowed; binding is a pre-run operation.
func (d *Device) AddInterface(iface Interface) error {
	if d.reg != nil && d.reg.Sealed() {
		return api.NewError(api.ErrCodeSealed, "add interface").WithContext("dev", d.name)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range d.ifaces {
		if e.Family() == iface.Family() {
			d.log.Error("already added", "dev", d.name, "family", iface.Family().String())
			return api.NewError(api.ErrCodeDuplicateFamily, "add interface").
				WithContext("dev", d.name).
				WithContext("family", iface.Family().String())
		}
	}
	iface.attach(d.id)
	d.ifaces = append(d.ifaces, iface)
	d.log.Info("interface added", "dev", d.name, "family", iface.Family().String())
	return nil
}

// Interface returns the interface of family f, or nil.
func (d *Device) Interface(f Family) Interface {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.ifaces {
		if e.Family() == f {
			return e
		}
	}
	return nil
}

// Interfaces returns the attached interfaces in attach order.
func (d *Device) Interfaces() []Interface {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Interface(nil), d.ifaces...)
}
