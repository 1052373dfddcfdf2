package detlite

import (
	"bytes"

	"go.uber.org/multierr"
)

// USBHost is the native USB enumeration capability.  GousbHost is the
// production implementation, tests substitute mocks with leak counters.
type USBHost interface {
	// Init opens a USB context.
	Init() (USBContext, error)
}

// USBContext is an open USB library context.
type USBContext interface {
	// DeviceList enumerates the devices visible to the context, in
	// whatever order the native library returns them.  The list must be
	// released with Free when done.
	DeviceList() (USBDeviceList, error)

	Close() error
}

// USBDeviceList is an enumerated device list, borrowed from the context
// until Free.
type USBDeviceList interface {
	Devices() []USBDevice
	Free()
}

// USBDevice is one enumerated device.  Devices are only valid while the
// list holding them is.
type USBDevice interface {
	BusNumber() uint8

	// PortNumbers returns the hub port path of the device, root first,
	// at most MaxUSBPathDepth entries.
	PortNumbers() ([]uint8, error)

	// Open opens the device to verify it is accessible.
	Open() (USBDeviceHandle, error)
}

// USBDeviceHandle is an open device handle.
type USBDeviceHandle interface {
	Close() error
}

// ProbeDevice scans the USB bus for a device whose physical topology
// matches the given bus number and port-number sequence, and verifies it
// can be opened.  The handle is closed again immediately, the probe only
// checks accessibility.
//
// All native resources are released on every exit path, including the
// open-failure path.
func ProbeDevice(host USBHost, busNumber uint8, portNumbers []uint8) (err error) {

	ctx, err := host.Init()

	if err != nil {
		return &ProbeError{Code: CodeUSBInit, Err: err}
	}

	defer func() {
		err = multierr.Combine(err, ctx.Close())
	}()

	list, err := ctx.DeviceList()

	if err != nil {
		return &ProbeError{Code: CodeUSBGetDeviceList, Err: err}
	}

	defer list.Free()

	for _, device := range list.Devices() {

		if device.BusNumber() != busNumber {
			continue
		}

		ports, err := device.PortNumbers()

		if err != nil {
			return &ProbeError{Code: CodeUSBGetPortNumbers, Err: err}
		}

		if !bytes.Equal(ports, portNumbers) {
			continue
		}

		// found the device, try to open it
		handle, err := device.Open()

		if err != nil {
			return &ProbeError{Code: CodeUSBOpenDevice, Err: err}
		}

		return handle.Close()
	}

	return &ProbeError{Code: CodeUSBNotFound}
}

// ProbeDevicePath probes the device identified by a sysfs path such as
// "/sys/bus/usb/devices/1-1.2".
func ProbeDevicePath(host USBHost, path string) error {

	devicePath, ok := ParseDevicePath(path)

	if !ok {
		return &ProbeError{Code: CodeUSBParsePath}
	}

	return ProbeDevice(host, devicePath.BusNumber, devicePath.PortNumbers)
}
