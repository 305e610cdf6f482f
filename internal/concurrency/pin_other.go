//go:build !linux
// +build !linux

// File: internal/concurrency/pin_other.go
// Author: momentics <momentics@gmail.com>

package concurrency

func platformThreadID() int64 {
	return 0
}

func platformPinCurrentThread(cpuID int) error {
	return ErrAffinityNotSupported
}
