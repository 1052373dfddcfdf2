package detlite

import (
	"fmt"
	"io"

	"github.com/edaniels/golog"
)

// ListDevices returns the accelerators currently visible to the driver.
// With no devices connected the result is an empty slice and a nil error.
func ListDevices(factory DelegateFactory) ([]Device, error) {

	devices, err := factory.ListDevices()

	if err != nil {
		return nil, fmt.Errorf("list edgetpu devices: %w", err)
	}

	return devices, nil
}

// PokeDevices is a best-effort diagnostic that verifies each enumerated
// accelerator is reachable by creating and immediately releasing a delegate
// bound to it.  Failures are logged, never returned.
func PokeDevices(factory DelegateFactory, logger golog.Logger) {

	if logger == nil {
		logger = golog.Global()
	}

	devices, err := factory.ListDevices()

	if err != nil {
		logger.Warnw("poke devices: enumeration failed", "error", err)
		return
	}

	for _, device := range devices {
		logger.Infof("poking device: %s", device)

		delegate, err := factory.NewDelegate(device)

		if err != nil {
			logger.Warnw("poke devices: delegate creation failed",
				"device", device.String(), "error", err)
			continue
		}

		delegate.Delete()
	}
}

// QueryDevices writes a human readable report of the attached accelerators,
// in the spirit of lsusb.
func QueryDevices(w io.Writer, factory DelegateFactory) error {

	devices, err := factory.ListDevices()

	if err != nil {
		return fmt.Errorf("error querying edgetpu devices: %w", err)
	}

	fmt.Fprintf(w, "Found %d edgetpu devices\n", len(devices))

	for _, device := range devices {
		fmt.Fprintf(w, "  %s\n", device)
	}

	return nil
}
