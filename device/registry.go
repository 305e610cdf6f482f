// File: device/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package device

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/momentics/hioload-stack/api"
	"github.com/momentics/hioload-stack/control"
	"github.com/momentics/hioload-stack/internal/logging"
)

// Registry owns every registered device for the process lifetime.
//
// Mutation is single-goroutine and pre-run by contract; Seal freezes the
// list, after which lookups may run concurrently.
type Registry struct {
	devices   []*Device
	allocated int
	max       int
	sealed    atomic.Bool

	log     *logging.Logger
	metrics *control.MetricsRegistry
}

// NewRegistry creates a registry holding at most max devices (0 = unlimited).
func NewRegistry(max int, log *logging.Logger, metrics *control.MetricsRegistry) *Registry {
	if log == nil {
		log = logging.Discard()
	}
	return &Registry{
		max:     max,
		log:     log,
		metrics: metrics,
	}
}

// Alloc returns a zero-initialized, unregistered device.
func (r *Registry) Alloc() (*Device, error) {
	if r.max > 0 && r.allocated >= r.max {
		r.log.Error("device allocation failure", "max", r.max)
		return nil, api.NewError(api.ErrCodeAllocationFailure, "device").WithContext("max", r.max)
	}
	r.allocated++
	return newDevice(), nil
}

// Register assigns the next index and name to dev and adds it to the
// registry. It must be called before the stack runs.
func (r *Registry) Register(dev *Device) error {
	if r.sealed.Load() {
		return api.NewError(api.ErrCodeSealed, "register device")
	}
	if dev.reg != nil {
		return api.NewError(api.ErrCodeAlreadyRegistered, "device").WithContext("dev", dev.name)
	}
	dev.id = ID(len(r.devices))
	dev.name = fmt.Sprintf("net%d", dev.id)
	dev.reg = r
	dev.log = r.log
	dev.metrics = r.metrics
	for _, iface := range dev.ifaces {
		iface.attach(dev.id)
	}
	r.devices = append(r.devices, dev)
	r.log.Info("registered", "dev", dev.name, "type", fmt.Sprintf("0x%04x", uint16(dev.Type)))
	return nil
}

// Lookup resolves a device by index.
func (r *Registry) Lookup(id ID) (*Device, bool) {
	if id < 0 || int(id) >= len(r.devices) {
		return nil, false
	}
	return r.devices[id], true
}

// Devices returns the registered devices in registration order.
func (r *Registry) Devices() []*Device {
	return append([]*Device(nil), r.devices...)
}

// Len returns the number of registered devices.
func (r *Registry) Len() int { return len(r.devices) }

// Seal freezes the registry.
func (r *Registry) Seal() { r.sealed.Store(true) }

// Sealed reports whether Seal was called.
func (r *Registry) Sealed() bool { return r.sealed.Load() }

// OpenAll opens every device, newest first. Failures are logged and
// returned joined; they do not stop the remaining devices.
func (r *Registry) OpenAll() error {
	var errs []error
	for i := len(r.devices) - 1; i >= 0; i-- {
		if err := r.devices[i].Open(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CloseAll closes every open device, newest first.
func (r *Registry) CloseAll() error {
	var errs []error
	for i := len(r.devices) - 1; i >= 0; i-- {
		dev := r.devices[i]
		if !dev.IsUp() {
			continue
		}
		if err := dev.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Snapshot describes each device for debug probes.
func (r *Registry) Snapshot() []map[string]any {
	out := make([]map[string]any, 0, len(r.devices))
	for _, dev := range r.devices {
		var ifaces []string
		for _, iface := range dev.Interfaces() {
			ifaces = append(ifaces, iface.Family().String())
		}
		out = append(out, map[string]any{
			"name":   dev.name,
			"type":   dev.Type.String(),
			"mtu":    dev.MTU,
			"state":  dev.State(),
			"flags":  fmt.Sprintf("0x%04x", uint16(dev.Flags())),
			"ifaces": ifaces,
		})
	}
	return out
}
