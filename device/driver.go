// File: device/driver.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package device

import "github.com/momentics/hioload-stack/api"

// Driver is the mandatory transmit capability of a device implementation.
// A nil error means the driver accepted the frame.
type Driver interface {
	Transmit(dev *Device, typ api.ProtocolType, data []byte, dst []byte) error
}

// Opener is implemented by drivers that need work when the device goes up.
type Opener interface {
	Open(dev *Device) error
}

// Closer is implemented by drivers that need work when the device goes down.
type Closer interface {
	Close(dev *Device) error
}
