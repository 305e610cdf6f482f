// File: protocol/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package protocol routes received frames to registered protocol handlers.
//
// Each registration owns an unbounded FIFO input queue. Ingress copies the
// caller's bytes into a queue entry, appends it and raises the softirq
// notification; Dispatch, run on the interrupt worker, drains every queue
// in registration order and invokes the handler once per entry.
//
// A protocol whose queue keeps filling delays the protocols registered after
// it: each queue is drained completely before the next one is visited.
package protocol
