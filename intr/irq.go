// File: intr/irq.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package intr

import "fmt"

// IRQ identifies an asynchronous event source. Values follow Linux signal
// numbering: SIGHUP, SIGUSR1, SIGUSR2 and the realtime range.
type IRQ uint

const (
	// IRQShutdown stops the worker. Reserved.
	IRQShutdown IRQ = 1
	// IRQSoftirq drains the protocol input queues. Reserved.
	IRQSoftirq IRQ = 10
	// IRQEvent is a general event notification available to subsystems.
	IRQEvent IRQ = 12
	// IRQBase is the first identifier for device IRQs.
	IRQBase IRQ = 35
)

func (i IRQ) String() string {
	switch i {
	case IRQShutdown:
		return "shutdown"
	case IRQSoftirq:
		return "softirq"
	case IRQEvent:
		return "event"
	default:
		return fmt.Sprintf("irq%d", uint(i))
	}
}

func (i IRQ) reserved() bool {
	return i == IRQShutdown || i == IRQSoftirq
}

// Flags modify an IRQ registration.
type Flags uint

// FlagShared allows several registrations on one identifier when every one
// of them is shared.
const FlagShared Flags = 0x0001

// Handler runs on the worker for each delivered notification. dev is the
// opaque handle given at registration.
type Handler func(irq IRQ, dev any)

// nameMax bounds registration display names.
const nameMax = 15

type irqEntry struct {
	irq     IRQ
	handler Handler
	flags   Flags
	name    string
	dev     any
}

func (e *irqEntry) shared() bool {
	return e.flags&FlagShared != 0
}

func truncateName(name string) string {
	if len(name) > nameMax {
		return name[:nameMax]
	}
	return name
}
