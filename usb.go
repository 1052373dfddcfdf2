package detlite

import (
	"errors"

	"github.com/google/gousb"
	"go.uber.org/multierr"
)

// GousbHost implements USBHost on top of the gousb libusb bindings.
type GousbHost struct{}

// Init opens a new libusb context.
func (GousbHost) Init() (USBContext, error) {
	return &gousbContext{ctx: gousb.NewContext()}, nil
}

type gousbContext struct {
	ctx *gousb.Context
}

// DeviceList walks every device descriptor visible to the context without
// opening anything.
func (c *gousbContext) DeviceList() (USBDeviceList, error) {

	var devices []USBDevice

	_, err := c.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		devices = append(devices, &gousbDevice{ctx: c.ctx, desc: desc})
		return false
	})

	if err != nil {
		return nil, err
	}

	return gousbDeviceList(devices), nil
}

func (c *gousbContext) Close() error {
	return c.ctx.Close()
}

type gousbDeviceList []USBDevice

func (l gousbDeviceList) Devices() []USBDevice {
	return l
}

// Free is a no-op, gousb descriptors are Go managed.  The explicit release
// point exists for native backends that borrow the list.
func (l gousbDeviceList) Free() {}

type gousbDevice struct {
	ctx  *gousb.Context
	desc *gousb.DeviceDesc
}

func (d *gousbDevice) BusNumber() uint8 {
	return uint8(d.desc.Bus)
}

func (d *gousbDevice) PortNumbers() ([]uint8, error) {

	ports := make([]uint8, 0, len(d.desc.Path))

	for _, port := range d.desc.Path {
		ports = append(ports, uint8(port))
	}

	return ports, nil
}

// Open re-opens the device at this descriptor's bus address.  Every
// OpenDevices call re-enumerates the bus and allocates fresh descriptors,
// so matching is by bus number and address, never descriptor identity.
func (d *gousbDevice) Open() (USBDeviceHandle, error) {

	opened, err := d.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return sameUSBDevice(desc, d.desc)
	})

	if err != nil {
		// close anything that was opened before the error
		for _, dev := range opened {
			err = multierr.Combine(err, dev.Close())
		}
		return nil, err
	}

	if len(opened) == 0 {
		return nil, errors.New("device disappeared between enumeration and open")
	}

	// a bus address is unique while the device stays connected, anything
	// extra is a reconnect race
	for _, dev := range opened[1:] {
		_ = dev.Close()
	}

	return opened[0], nil
}

// sameUSBDevice reports whether two descriptors refer to the same attached
// device.  The address is assigned at connect time and stays stable until
// the device disconnects.
func sameUSBDevice(a, b *gousb.DeviceDesc) bool {
	return a.Bus == b.Bus && a.Address == b.Address
}
