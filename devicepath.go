package detlite

import (
	"strconv"
	"strings"
)

// MaxUSBPathDepth is the maximum hub nesting depth, 7 for USB 3.
const MaxUSBPathDepth = 7

const usbPathPrefix = "/sys/bus/usb/devices/"

// DevicePath identifies a USB device by its physical position in the bus
// topology: a bus number plus an ordered sequence of hub port indices.  The
// topology is stable across re-enumeration, unlike OS-assigned device
// indices.
type DevicePath struct {
	BusNumber   uint8
	PortNumbers []uint8
}

// ParseDevicePath parses a sysfs device path of the form
// "/sys/bus/usb/devices/BUS-PORT.PORT..." into a DevicePath.  It returns
// false for anything that does not match that exact shape, including paths
// deeper than MaxUSBPathDepth.
func ParseDevicePath(path string) (DevicePath, bool) {

	path, found := strings.CutPrefix(path, usbPathPrefix)

	if !found {
		return DevicePath{}, false
	}

	parts := strings.Split(path, "-")

	if len(parts) != 2 {
		return DevicePath{}, false
	}

	bus, err := strconv.ParseUint(parts[0], 10, 8)

	if err != nil {
		return DevicePath{}, false
	}

	rawPorts := strings.Split(parts[1], ".")

	if len(rawPorts) > MaxUSBPathDepth {
		return DevicePath{}, false
	}

	ports := make([]uint8, 0, len(rawPorts))

	for _, raw := range rawPorts {
		port, err := strconv.ParseUint(raw, 10, 8)

		if err != nil {
			return DevicePath{}, false
		}

		ports = append(ports, uint8(port))
	}

	return DevicePath{
		BusNumber:   uint8(bus),
		PortNumbers: ports,
	}, true
}
