// File: stack/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package stack assembles the dispatch core of the user-space network stack.
//
// A Builder owns the device, protocol and IRQ registries while they are
// mutable. Run starts the interrupt worker, seals every registry, opens the
// registered devices and returns the running *Stack; registration through
// the consumed Builder fails with api.ErrSealed from then on.
//
//	b, _ := stack.New(cfg, logger)
//	lo, _ := loopback.Init(b, 0, logger)
//	s, _ := b.Run()
//	defer s.Shutdown()
//	_ = lo.Transmit(api.ProtocolIP, frame, nil)
package stack
