// File: api/types.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Identifiers shared across the device and protocol layers.

package api

import "fmt"

// ProtocolType is the link-layer protocol tag (EtherType) of a frame.
type ProtocolType uint16

const (
	ProtocolIP   ProtocolType = 0x0800
	ProtocolARP  ProtocolType = 0x0806
	ProtocolIPv6 ProtocolType = 0x86dd
)

// String renders well-known types by name and others as hex.
func (t ProtocolType) String() string {
	switch t {
	case ProtocolIP:
		return "IPv4"
	case ProtocolARP:
		return "ARP"
	case ProtocolIPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("0x%04x", uint16(t))
	}
}

// Hex renders the type as 0x%04x for log fields.
func (t ProtocolType) Hex() string {
	return fmt.Sprintf("0x%04x", uint16(t))
}
