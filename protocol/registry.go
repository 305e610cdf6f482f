// File: protocol/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"sync/atomic"

	"github.com/momentics/hioload-stack/api"
	"github.com/momentics/hioload-stack/control"
	"github.com/momentics/hioload-stack/device"
	"github.com/momentics/hioload-stack/internal/logging"
	"github.com/momentics/hioload-stack/pool"
)

// Handler consumes one frame. data is only valid for the duration of the
// call; dev is the device the frame arrived on. Failures are the handler's
// own business.
type Handler func(data []byte, dev *device.Device)

// Resolver maps queued device IDs back to devices.
type Resolver interface {
	Lookup(id device.ID) (*device.Device, bool)
}

// Options wires a Registry to its collaborators.
type Options struct {
	// Devices resolves the device of each dispatched entry. Required.
	Devices Resolver
	// Raise delivers the softirq notification. Nil means no notification.
	Raise func() error
	// Stopped reports that no worker will drain the queues again. Ingress
	// is refused once it returns true. Nil means never stopped.
	Stopped func() bool
	// Buffers, when set, backs entry copies with pooled buffers.
	Buffers *pool.BytePool
	// MaxProtocols bounds registrations; 0 is unlimited.
	MaxProtocols int
	Logger       *logging.Logger
	Metrics      *control.MetricsRegistry
}

type registration struct {
	typ     api.ProtocolType
	handler Handler
	queue   *inputQueue
}

// Registry holds protocol registrations and their input queues.
//
// Register is pre-run only; Ingress may be called from any goroutine;
// Dispatch must only run on the interrupt worker.
type Registry struct {
	protocols []*registration
	byType    map[api.ProtocolType]*registration
	sealed    atomic.Bool

	opts Options
	log  *logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options) *Registry {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Registry{
		byType: make(map[api.ProtocolType]*registration),
		opts:   opts,
		log:    log,
	}
}

// SetRaise installs the softirq notifier. Pre-run only.
func (r *Registry) SetRaise(raise func() error) {
	r.opts.Raise = raise
}

// Register adds handler for typ with an empty input queue.
func (r *Registry) Register(typ api.ProtocolType, handler Handler) error {
	if r.sealed.Load() {
		return api.NewError(api.ErrCodeSealed, "register protocol").WithContext("type", typ.Hex())
	}
	if _, ok := r.byType[typ]; ok {
		r.log.Error("protocol already registered", "type", typ.Hex())
		return api.NewError(api.ErrCodeAlreadyRegistered, "protocol").WithContext("type", typ.Hex())
	}
	if r.opts.MaxProtocols > 0 && len(r.protocols) >= r.opts.MaxProtocols {
		r.log.Error("protocol allocation failure", "type", typ.Hex(), "max", r.opts.MaxProtocols)
		return api.NewError(api.ErrCodeAllocationFailure, "protocol").WithContext("max", r.opts.MaxProtocols)
	}
	p := &registration{typ: typ, handler: handler, queue: newInputQueue()}
	r.protocols = append(r.protocols, p)
	r.byType[typ] = p
	r.log.Info("protocol registered", "type", typ.Hex())
	return nil
}

// Ingress queues a copy of data for the handler of typ and raises the
// softirq. It returns once the entry is queued and never waits for
// processing; a failed notification is logged, the entry stays queued for
// the next softirq. An unregistered typ, a device unknown to the registry
// or a stopped worker drop the frame without touching any queue or raising
// a notification.
func (r *Registry) Ingress(typ api.ProtocolType, data []byte, dev *device.Device) error {
	if dev == nil {
		r.log.Error("input without device", "type", typ.Hex())
		r.opts.Metrics.Inc(control.IngressDropped)
		return api.NewError(api.ErrCodeUnknownDevice, "ingress").WithContext("type", typ.Hex())
	}
	if known, ok := r.opts.Devices.Lookup(dev.ID()); !ok || known != dev {
		r.log.Error("device not registered", "type", typ.Hex(), "dev", dev.String())
		r.opts.Metrics.Inc(control.IngressDropped)
		return api.NewError(api.ErrCodeUnknownDevice, "ingress").
			WithContext("type", typ.Hex()).
			WithContext("dev", dev.String())
	}
	p, ok := r.byType[typ]
	if !ok {
		r.log.Error("protocol not registered", "type", typ.Hex(), "dev", dev.Name())
		r.opts.Metrics.Inc(control.IngressDropped)
		return api.NewError(api.ErrCodeProtocolNotRegistered, "ingress").WithContext("type", typ.Hex())
	}
	if r.opts.Stopped != nil && r.opts.Stopped() {
		r.log.Debug("worker stopped, input dropped", "type", typ.Hex(), "dev", dev.Name())
		r.opts.Metrics.Inc(control.IngressDropped)
		return api.NewError(api.ErrCodeDeliveryFailure, "ingress").
			WithContext("type", typ.Hex()).
			WithContext("dev", dev.Name())
	}

	e := &entry{dev: dev.ID(), data: r.alloc(len(data))}
	copy(e.data, data)
	n := p.queue.push(e)
	r.opts.Metrics.Inc(control.IngressEnqueued)
	r.log.Debug("input packet", "dev", dev.Name(), "type", typ.Hex(), "len", len(data), "pending", n)
	r.log.Dump("input frame", data)

	if r.opts.Raise != nil {
		if err := r.opts.Raise(); err != nil {
			r.log.Debug("softirq not delivered, entry stays queued", "type", typ.Hex(), "pending", n, "error", err)
		}
	}
	return nil
}

// Dispatch drains every input queue in registration order, invoking the
// handler once per entry, and returns the number of entries handled.
func (r *Registry) Dispatch() int {
	handled := 0
	for _, p := range r.protocols {
		for {
			e, left, ok := p.queue.pop()
			if !ok {
				break
			}
			dev, ok := r.opts.Devices.Lookup(e.dev)
			if !ok {
				r.log.Error("unknown device, entry dropped", "type", p.typ.Hex(), "dev_id", int(e.dev))
				r.release(e)
				continue
			}
			r.log.Debug("queue popped", "left", left, "dev", dev.Name(), "type", p.typ.Hex(), "len", len(e.data))
			p.handler(e.data, dev)
			r.release(e)
			handled++
		}
	}
	r.opts.Metrics.Inc(control.SoftirqRuns)
	r.opts.Metrics.Add(control.SoftirqDispatched, uint64(handled))
	return handled
}

// Pending returns the queue length of typ.
func (r *Registry) Pending(typ api.ProtocolType) int {
	if p, ok := r.byType[typ]; ok {
		return p.queue.len()
	}
	return 0
}

// Types returns registered protocol types in registration order.
func (r *Registry) Types() []api.ProtocolType {
	out := make([]api.ProtocolType, len(r.protocols))
	for i, p := range r.protocols {
		out[i] = p.typ
	}
	return out
}

// Seal freezes registrations.
func (r *Registry) Seal() { r.sealed.Store(true) }

// Snapshot reports pending entries per protocol for debug probes.
func (r *Registry) Snapshot() map[string]int {
	out := make(map[string]int, len(r.protocols))
	for _, p := range r.protocols {
		out[p.typ.String()] = p.queue.len()
	}
	return out
}

func (r *Registry) alloc(n int) []byte {
	if r.opts.Buffers != nil {
		return r.opts.Buffers.Get(n)
	}
	return make([]byte, n)
}

func (r *Registry) release(e *entry) {
	if r.opts.Buffers != nil {
		r.opts.Buffers.Put(e.data)
	}
	e.data = nil
}
