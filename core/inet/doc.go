// File: core/inet/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package inet holds stateless helpers shared by the protocol layers:
// the Internet one's-complement checksum and IPv4 dotted-quad conversion.
package inet
