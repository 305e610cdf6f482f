// File: stack/builder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stack

import (
	"sync/atomic"

	"github.com/momentics/hioload-stack/api"
	"github.com/momentics/hioload-stack/config"
	"github.com/momentics/hioload-stack/control"
	"github.com/momentics/hioload-stack/device"
	"github.com/momentics/hioload-stack/drivers/dummy"
	"github.com/momentics/hioload-stack/drivers/loopback"
	"github.com/momentics/hioload-stack/internal/logging"
	"github.com/momentics/hioload-stack/intr"
	"github.com/momentics/hioload-stack/ip"
	"github.com/momentics/hioload-stack/pool"
	"github.com/momentics/hioload-stack/protocol"
)

// Builder collects registrations before the stack runs.
type Builder struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes

	devices   *device.Registry
	protocols *protocol.Registry
	intr      *intr.Controller
	buffers   *pool.BytePool
	ip        *ip.Protocol

	consumed atomic.Bool
}

// New initializes the interrupt subsystem, registers the IP protocol and
// creates the devices declared in cfg. A nil cfg uses config.Default; a nil
// log is built from cfg.Logging.
func New(cfg *config.Config, log *logging.Logger) (*Builder, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.New(cfg.Logging)
	}
	b := &Builder{
		cfg:     cfg,
		log:     log.Component("net"),
		metrics: control.NewMetricsRegistry(),
		probes:  control.NewDebugProbes(),
	}
	if cfg.Buffers.Pooled {
		b.buffers = pool.NewBytePool(0)
	}

	b.intr = intr.New(intr.Options{
		CPU:        cfg.Intr.CPU,
		LockThread: cfg.Intr.LockThread,
		MaxIRQs:    cfg.Limits.MaxIRQs,
		Logger:     log.Component("intr"),
		Metrics:    b.metrics,
	})
	b.devices = device.NewRegistry(cfg.Limits.MaxDevices, log.Component("device"), b.metrics)
	b.protocols = protocol.NewRegistry(protocol.Options{
		Devices:      b.devices,
		Raise:        b.intr.RaiseSoftirq,
		Stopped:      b.intr.Stopped,
		Buffers:      b.buffers,
		MaxProtocols: cfg.Limits.MaxProtocols,
		Logger:       log.Component("protocol"),
		Metrics:      b.metrics,
	})
	b.intr.SetSoftirq(func() { b.protocols.Dispatch() })

	ipProto, err := ip.Register(b, log)
	if err != nil {
		b.log.Error("ip init failure", "error", err)
		return nil, err
	}
	b.ip = ipProto

	for _, dc := range cfg.Devices {
		if _, err := b.addConfiguredDevice(dc, log); err != nil {
			b.log.Error("device init failure", "driver", dc.Driver, "error", err)
			return nil, err
		}
	}
	b.registerProbes()
	b.log.Info("initialized")
	return b, nil
}

func (b *Builder) addConfiguredDevice(dc config.DeviceConfig, log *logging.Logger) (*device.Device, error) {
	switch dc.Driver {
	case "loopback":
		return loopback.Init(b, uint16(dc.MTU), log)
	default:
		return dummy.Init(b, uint16(dc.MTU), log)
	}
}

func (b *Builder) registerProbes() {
	control.RegisterPlatformProbes(b.probes)
	b.probes.RegisterProbe("devices", func() any { return b.devices.Snapshot() })
	b.probes.RegisterProbe("protocols.pending", func() any { return b.protocols.Snapshot() })
	b.probes.RegisterProbe("intr.irqs", func() any { return b.intr.Snapshot() })
	b.probes.RegisterProbe("intr.worker", func() any { return b.intr.WorkerID() })
	b.probes.RegisterProbe("intr.running", func() any { return b.intr.Running() })
	if b.buffers != nil {
		b.probes.RegisterProbe("buffers", func() any { return b.buffers.Stats() })
	}
}

func (b *Builder) sealed(op string) error {
	if b.consumed.Load() {
		return api.NewError(api.ErrCodeSealed, op)
	}
	return nil
}

// AllocDevice returns a zero-initialized device to configure and register.
func (b *Builder) AllocDevice() (*device.Device, error) {
	if err := b.sealed("alloc device"); err != nil {
		return nil, err
	}
	return b.devices.Alloc()
}

// RegisterDevice assigns dev its index and name.
func (b *Builder) RegisterDevice(dev *device.Device) error {
	if err := b.sealed("register device"); err != nil {
		return err
	}
	return b.devices.Register(dev)
}

// RegisterProtocol installs handler for typ.
func (b *Builder) RegisterProtocol(typ api.ProtocolType, handler protocol.Handler) error {
	if err := b.sealed("register protocol"); err != nil {
		return err
	}
	return b.protocols.Register(typ, handler)
}

// RequestIRQ registers an IRQ handler.
func (b *Builder) RequestIRQ(irq intr.IRQ, handler intr.Handler, flags intr.Flags, name string, dev any) error {
	if err := b.sealed("request irq"); err != nil {
		return err
	}
	return b.intr.RequestIRQ(irq, handler, flags, name, dev)
}

// RaiseIRQ delivers irq to the worker; it fails until Run succeeds.
func (b *Builder) RaiseIRQ(irq intr.IRQ) error {
	return b.intr.Raise(irq)
}

// Ingress queues a received frame for its protocol handler. Frames queued
// before Run are drained once the worker starts.
func (b *Builder) Ingress(typ api.ProtocolType, data []byte, dev *device.Device) error {
	return b.protocols.Ingress(typ, data, dev)
}

// Devices exposes the device registry.
func (b *Builder) Devices() *device.Registry {
	return b.devices
}

// Run starts the worker, seals the registries and opens every device.
// Device open failures are logged and do not fail Run. On a worker start
// failure the Builder stays usable.
func (b *Builder) Run() (*Stack, error) {
	if err := b.sealed("run"); err != nil {
		return nil, err
	}
	if err := b.intr.Run(); err != nil {
		b.log.Error("intr run failure", "error", err)
		return nil, err
	}
	b.consumed.Store(true)
	b.devices.Seal()
	b.protocols.Seal()

	b.log.Debug("open all devices")
	if err := b.devices.OpenAll(); err != nil {
		b.log.Warn("device open failure", "error", err)
	}
	if err := b.intr.RaiseSoftirq(); err != nil {
		b.log.Warn("initial softirq not delivered", "error", err)
	}
	b.log.Debug("running")
	return &Stack{b: b}, nil
}
