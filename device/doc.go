// File: device/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package device owns network device lifecycle: registration with a
// monotonically assigned index and derived name, the Down/Up state machine,
// MTU-bounded transmit and per-family interface binding.
//
// Drivers plug in through the Driver capability (mandatory) and the optional
// Opener and Closer capabilities.
//
// Registration and interface binding must complete before the stack runs;
// after Seal the registry is read-only and safe to read from any goroutine.
package device
