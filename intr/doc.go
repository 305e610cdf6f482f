// File: intr/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package intr emulates hardware interrupts with one dedicated worker
// goroutine. Producers never run protocol or IRQ handler code themselves;
// they mark a notification pending and wake the worker, which runs every
// handler serially.
//
// Lifecycle: New (init) -> RequestIRQ* -> Run -> Raise* -> Shutdown.
// IRQ registration is pre-run only. Notifications for the same identifier
// coalesce while pending, like pending signals. A handler that blocks stalls
// every other notification; Shutdown is cooperative and waits for the
// running handler to return.
package intr
