// File: intr/controller.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package intr

import (
	"runtime"
	"sort"
	"sync/atomic"

	"github.com/momentics/hioload-stack/api"
	"github.com/momentics/hioload-stack/control"
	"github.com/momentics/hioload-stack/internal/concurrency"
	"github.com/momentics/hioload-stack/internal/logging"
)

const (
	stateInit int32 = iota
	stateStarting
	stateRunning
	stateStopping
	stateStopped
)

// Options tunes the controller.
type Options struct {
	// CPU pins the worker thread; -1 disables pinning.
	CPU int
	// LockThread dedicates an OS thread to the worker.
	LockThread bool
	// MaxIRQs bounds registrations; 0 is unlimited.
	MaxIRQs int
	Logger  *logging.Logger
	Metrics *control.MetricsRegistry
}

// Controller owns the interrupt worker and the IRQ registrations.
type Controller struct {
	irqs    []*irqEntry
	mask    map[IRQ]struct{}
	softirq func()

	// pending and order are built by Run and read-only afterwards.
	pending map[IRQ]*atomic.Bool
	order   []IRQ

	wake   chan struct{}
	done   chan struct{}
	state  atomic.Int32
	worker atomic.Int64

	opts Options
	log  *logging.Logger
}

// New initializes the notification set with the shutdown and softirq
// identifiers and records the caller as placeholder worker identity.
func New(opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	c := &Controller{
		mask: map[IRQ]struct{}{
			IRQShutdown: {},
			IRQSoftirq:  {},
		},
		softirq: func() {},
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		opts:    opts,
		log:     log,
	}
	c.worker.Store(concurrency.ThreadID())
	log.Debug("initialized")
	return c
}

// SetSoftirq installs the function run on IRQSoftirq. Pre-run only.
func (c *Controller) SetSoftirq(fn func()) {
	c.softirq = fn
}

// RequestIRQ registers handler for irq. Several registrations may share an
// identifier only if all of them carry FlagShared. Pre-run only.
func (c *Controller) RequestIRQ(irq IRQ, handler Handler, flags Flags, name string, dev any) error {
	name = truncateName(name)
	c.log.Debug("request irq", "irq", uint(irq), "flags", uint(flags), "name", name)
	if c.state.Load() != stateInit {
		return api.NewError(api.ErrCodeSealed, "request irq").WithContext("irq", uint(irq))
	}
	if irq.reserved() {
		c.log.Error("irq reserved", "irq", uint(irq), "name", name)
		return api.NewError(api.ErrCodeIrqConflict, "reserved").WithContext("irq", uint(irq))
	}
	for _, e := range c.irqs {
		if e.irq != irq {
			continue
		}
		if !e.shared() || flags&FlagShared == 0 {
			c.log.Error("irq already registered", "irq", uint(irq), "name", e.name)
			return api.NewError(api.ErrCodeIrqConflict, "request irq").
				WithContext("irq", uint(irq)).
				WithContext("name", e.name)
		}
	}
	if c.opts.MaxIRQs > 0 && len(c.irqs) >= c.opts.MaxIRQs {
		c.log.Error("irq allocation failure", "irq", uint(irq), "max", c.opts.MaxIRQs)
		return api.NewError(api.ErrCodeAllocationFailure, "irq").WithContext("max", c.opts.MaxIRQs)
	}
	c.irqs = append(c.irqs, &irqEntry{
		irq:     irq,
		handler: handler,
		flags:   flags,
		name:    name,
		dev:     dev,
	})
	c.mask[irq] = struct{}{}
	c.log.Debug("irq registered", "irq", uint(irq), "name", name)
	return nil
}

// Run freezes the notification set, starts the worker and blocks until it
// is ready. On error the controller stays un-started.
func (c *Controller) Run() error {
	if !c.state.CompareAndSwap(stateInit, stateStarting) {
		c.log.Error("worker already started")
		return api.NewError(api.ErrCodeThreadCreationFailure, "already started")
	}

	c.pending = make(map[IRQ]*atomic.Bool, len(c.mask))
	c.order = c.order[:0]
	for irq := range c.mask {
		c.pending[irq] = new(atomic.Bool)
		if !irq.reserved() {
			c.order = append(c.order, irq)
		}
	}
	sort.Slice(c.order, func(i, j int) bool { return c.order[i] < c.order[j] })

	ready := make(chan error, 1)
	go c.loop(ready)
	if err := <-ready; err != nil {
		c.state.Store(stateInit)
		c.log.Error("worker start failure", "error", err)
		return err
	}
	c.state.Store(stateRunning)
	c.log.Debug("worker running", "tid", c.worker.Load())
	return nil
}

// Raise delivers irq to the worker. Identifiers outside the notification
// set are ignored.
func (c *Controller) Raise(irq IRQ) error {
	if c.state.Load() != stateRunning {
		return api.NewError(api.ErrCodeDeliveryFailure, "worker not running").WithContext("irq", uint(irq))
	}
	flag, ok := c.pending[irq]
	if !ok || irq == IRQShutdown {
		c.log.Debug("irq not in notification set, ignored", "irq", uint(irq))
		return nil
	}
	flag.Store(true)
	c.opts.Metrics.Inc(control.IRQRaised)
	c.notify()
	return nil
}

// RaiseSoftirq raises IRQSoftirq.
func (c *Controller) RaiseSoftirq() error {
	return c.Raise(IRQSoftirq)
}

// Shutdown stops the worker and waits for it to exit. It is a no-op if the
// worker never started and safe to call repeatedly. It must not be called
// from a handler.
func (c *Controller) Shutdown() {
	if !c.state.CompareAndSwap(stateRunning, stateStopping) {
		if c.state.Load() >= stateStopping {
			<-c.done
		}
		return
	}
	c.pending[IRQShutdown].Store(true)
	c.notify()
	<-c.done
	c.state.Store(stateStopped)
	c.log.Debug("worker stopped")
}

// Running reports whether the worker accepts notifications.
func (c *Controller) Running() bool {
	return c.state.Load() == stateRunning
}

// Stopped reports whether Shutdown has begun. A stopped controller never
// runs again.
func (c *Controller) Stopped() bool {
	return c.state.Load() >= stateStopping
}

// WorkerID returns the worker thread ID, or the initializing caller's
// thread ID before Run.
func (c *Controller) WorkerID() int64 {
	return c.worker.Load()
}

// InWorker reports whether the caller runs on the worker thread. Only
// meaningful with LockThread on platforms exposing thread IDs.
func (c *Controller) InWorker() bool {
	id := c.worker.Load()
	return c.Running() && c.opts.LockThread && id != 0 && concurrency.ThreadID() == id
}

// Snapshot lists registrations per identifier for debug probes.
func (c *Controller) Snapshot() map[string][]string {
	out := make(map[string][]string)
	for _, e := range c.irqs {
		out[e.irq.String()] = append(out[e.irq.String()], e.name)
	}
	return out
}

func (c *Controller) notify() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) loop(ready chan<- error) {
	pinned := false
	if c.opts.LockThread {
		runtime.LockOSThread()
		// A pinned thread dies with the worker instead of returning to the pool.
		defer func() {
			if !pinned {
				runtime.UnlockOSThread()
			}
		}()
	}
	if c.opts.CPU >= 0 {
		if err := concurrency.PinCurrentThread(c.opts.CPU); err != nil {
			ready <- api.NewError(api.ErrCodeMaskFailure, "worker affinity").
				WithContext("cpu", c.opts.CPU).
				WithCause(err)
			return
		}
		pinned = true
	}
	c.worker.Store(concurrency.ThreadID())
	defer close(c.done)
	ready <- nil

	for range c.wake {
		if c.pending[IRQShutdown].Swap(false) {
			c.log.Debug("shutdown notification")
			return
		}
		if c.pending[IRQSoftirq].Swap(false) {
			c.softirq()
		}
		for _, irq := range c.order {
			if c.pending[irq].Swap(false) {
				c.dispatch(irq)
			}
		}
	}
}

func (c *Controller) dispatch(irq IRQ) {
	for _, e := range c.irqs {
		if e.irq != irq {
			continue
		}
		c.log.Debug("irq", "irq", uint(irq), "name", e.name)
		e.handler(irq, e.dev)
		c.opts.Metrics.Inc(control.IRQDispatched)
	}
}
