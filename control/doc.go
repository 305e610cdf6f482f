// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime counters and debug introspection for the stack.
//
// Provides concurrent-safe primitives:
//   - Named monotonic counters updated from any goroutine
//   - Probe registration and state export for diagnostics
package control
