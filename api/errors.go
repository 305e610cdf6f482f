// Package api
// Author: momentics <momentics@gmail.com>
//
// Error taxonomy shared by the device, protocol and interrupt layers.

package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors, one per failure class. Match them with errors.Is.
var (
	ErrAllocationFailure     = errors.New("allocation failure")
	ErrAlreadyOpen           = errors.New("device already opened")
	ErrNotOpen               = errors.New("device not opened")
	ErrDriverFailure         = errors.New("driver failure")
	ErrFrameTooLarge         = errors.New("frame too large")
	ErrDuplicateFamily       = errors.New("interface family already added")
	ErrAlreadyRegistered     = errors.New("already registered")
	ErrProtocolNotRegistered = errors.New("protocol not registered")
	ErrIrqConflict           = errors.New("irq already registered")
	ErrThreadCreationFailure = errors.New("worker creation failure")
	ErrMaskFailure           = errors.New("notification mask failure")
	ErrDeliveryFailure       = errors.New("notification delivery failure")
	ErrInvalidFormat         = errors.New("invalid format")
	ErrSealed                = errors.New("registry sealed after run")
	ErrUnknownDevice         = errors.New("unknown device")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeAllocationFailure
	ErrCodeAlreadyOpen
	ErrCodeNotOpen
	ErrCodeDriverFailure
	ErrCodeFrameTooLarge
	ErrCodeDuplicateFamily
	ErrCodeAlreadyRegistered
	ErrCodeProtocolNotRegistered
	ErrCodeIrqConflict
	ErrCodeThreadCreationFailure
	ErrCodeMaskFailure
	ErrCodeDeliveryFailure
	ErrCodeInvalidFormat
	ErrCodeSealed
	ErrCodeUnknownDevice
)

var sentinels = map[ErrorCode]error{
	ErrCodeAllocationFailure:     ErrAllocationFailure,
	ErrCodeAlreadyOpen:           ErrAlreadyOpen,
	ErrCodeNotOpen:               ErrNotOpen,
	ErrCodeDriverFailure:         ErrDriverFailure,
	ErrCodeFrameTooLarge:         ErrFrameTooLarge,
	ErrCodeDuplicateFamily:       ErrDuplicateFamily,
	ErrCodeAlreadyRegistered:     ErrAlreadyRegistered,
	ErrCodeProtocolNotRegistered: ErrProtocolNotRegistered,
	ErrCodeIrqConflict:           ErrIrqConflict,
	ErrCodeThreadCreationFailure: ErrThreadCreationFailure,
	ErrCodeMaskFailure:           ErrMaskFailure,
	ErrCodeDeliveryFailure:       ErrDeliveryFailure,
	ErrCodeInvalidFormat:         ErrInvalidFormat,
	ErrCodeSealed:                ErrSealed,
	ErrCodeUnknownDevice:         ErrUnknownDevice,
}

// Sentinel returns the sentinel error for code, or nil for ErrCodeOK.
func (c ErrorCode) Sentinel() error {
	return sentinels[c]
}

// String returns the sentinel message for code.
func (c ErrorCode) String() string {
	if err := sentinels[c]; err != nil {
		return err.Error()
	}
	if c == ErrCodeOK {
		return "ok"
	}
	return fmt.Sprintf("error code %d", int(c))
}

// Error represents a structured error with code, context and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Code.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, ", %s=%v", k, e.Context[k])
		}
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes both the code sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if s := e.Code.Sentinel(); s != nil {
		out = append(out, s)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithCause attaches the underlying error, typically a driver error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// CodeOf returns the ErrorCode carried by err, or ErrCodeOK when err is nil
// or not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeOK
}
