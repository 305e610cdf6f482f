// File: core/inet/addr.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package inet

import (
	"strconv"

	"github.com/momentics/hioload-stack/api"
)

// AddrLen is the size of an IPv4 address in bytes.
const AddrLen = 4

// AddrStrLen is the longest dotted-quad text ("255.255.255.255").
const AddrStrLen = 15

// Addr is an IPv4 address in network byte order.
type Addr [AddrLen]byte

var (
	AddrAny       = Addr{0, 0, 0, 0}
	AddrBroadcast = Addr{255, 255, 255, 255}
)

// ParseAddr converts dotted-quad text into an Addr. It accepts exactly four
// decimal octets in 0..255 separated by single dots, without leading zeros,
// signs or surrounding characters.
func ParseAddr(text string) (Addr, error) {
	var addr Addr
	octet, digits, idx := 0, 0, 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '.' {
			if digits == 0 || idx == AddrLen {
				return Addr{}, invalidAddr(text)
			}
			addr[idx] = byte(octet)
			idx++
			octet, digits = 0, 0
			continue
		}
		c := text[i]
		if c < '0' || c > '9' {
			return Addr{}, invalidAddr(text)
		}
		if digits == 1 && octet == 0 {
			// leading zero
			return Addr{}, invalidAddr(text)
		}
		octet = octet*10 + int(c-'0')
		digits++
		if octet > 255 {
			return Addr{}, invalidAddr(text)
		}
	}
	if idx != AddrLen {
		return Addr{}, invalidAddr(text)
	}
	return addr, nil
}

// MustParseAddr is ParseAddr for constants; it panics on malformed input.
func MustParseAddr(text string) Addr {
	a, err := ParseAddr(text)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the canonical dotted-quad form.
func (a Addr) String() string {
	b := make([]byte, 0, AddrStrLen)
	for i, o := range a {
		if i > 0 {
			b = append(b, '.')
		}
		b = strconv.AppendUint(b, uint64(o), 10)
	}
	return string(b)
}

// Uint32 returns the address as a host-order integer.
func (a Addr) Uint32() uint32 {
	return uint32(a[0])<<24 | uint32(a[1])<<16 | uint32(a[2])<<8 | uint32(a[3])
}

// AddrFromUint32 is the inverse of Addr.Uint32.
func AddrFromUint32(v uint32) Addr {
	return Addr{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func invalidAddr(text string) error {
	return api.NewError(api.ErrCodeInvalidFormat, "ip address").WithContext("text", text)
}
