// File: internal/concurrency/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"errors"
	"runtime"
)

// ErrAffinityNotSupported indicates CPU affinity is not supported on this platform.
var ErrAffinityNotSupported = errors.New("CPU affinity not supported")

// NumCPUs returns the number of logical CPUs.
func NumCPUs() int {
	return runtime.NumCPU()
}

// ThreadID returns the OS thread ID of the caller. It is only stable for
// goroutines locked to their thread. Zero means unknown.
func ThreadID() int64 {
	return platformThreadID()
}

// PinCurrentThread locks the calling goroutine to its OS thread and
// restricts that thread to cpuID. On error the goroutine stays locked.
func PinCurrentThread(cpuID int) error {
	runtime.LockOSThread()
	return platformPinCurrentThread(cpuID)
}
