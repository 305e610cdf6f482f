//go:build linux
// +build linux

// File: internal/concurrency/pin_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux thread identity and CPU pinning via x/sys/unix.

package concurrency

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func platformThreadID() int64 {
	return int64(unix.Gettid())
}

func platformPinCurrentThread(cpuID int) error {
	if cpuID < 0 {
		return fmt.Errorf("pin: invalid cpu %d", cpuID)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if set.Count() == 0 {
		return fmt.Errorf("pin: cpu %d outside affinity mask", cpuID)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("pin: sched_setaffinity cpu %d: %w", cpuID, err)
	}
	return nil
}
