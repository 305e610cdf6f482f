// File: ip/ip.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package ip is the IPv4 entry point of the stack. Input handling is a stub
// that logs and counts frames; header parsing and routing live elsewhere.

package ip

import (
	"sync/atomic"

	"github.com/momentics/hioload-stack/api"
	"github.com/momentics/hioload-stack/device"
	"github.com/momentics/hioload-stack/internal/logging"
	"github.com/momentics/hioload-stack/protocol"
)

// Registrar accepts protocol registrations.
type Registrar interface {
	RegisterProtocol(typ api.ProtocolType, handler protocol.Handler) error
}

// Protocol is the registered IPv4 input handler.
type Protocol struct {
	log      *logging.Logger
	received atomic.Uint64
	bytes    atomic.Uint64
}

// Register installs the IPv4 handler on reg.
func Register(reg Registrar, log *logging.Logger) (*Protocol, error) {
	if log == nil {
		log = logging.Discard()
	}
	p := &Protocol{log: log.Component("ip")}
	if err := reg.RegisterProtocol(api.ProtocolIP, p.input); err != nil {
		p.log.Error("protocol register failure", "error", err)
		return nil, err
	}
	p.log.Debug("IP protocol initialized")
	return p, nil
}

// Received returns the number of frames handed to the IP layer.
func (p *Protocol) Received() uint64 { return p.received.Load() }

// Bytes returns the total length of received frames.
func (p *Protocol) Bytes() uint64 { return p.bytes.Load() }

func (p *Protocol) input(data []byte, dev *device.Device) {
	p.received.Add(1)
	p.bytes.Add(uint64(len(data)))
	p.log.Debug("input", "len", len(data), "dev", dev.Name())
	p.log.Dump("ip input", data)
}
