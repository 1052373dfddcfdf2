package detlite

import (
	"bytes"
	"errors"
	"testing"

	"github.com/edaniels/golog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDevices(t *testing.T) {
	factory := &mockDelegateFactory{devices: []Device{
		{Type: DeviceUSB, Path: "/sys/bus/usb/devices/1-1"},
		{Type: DevicePCI, Path: "/dev/apex_0"},
	}}

	devices, err := ListDevices(factory)
	require.NoError(t, err)
	assert.Len(t, devices, 2)
}

func TestListDevicesEmpty(t *testing.T) {
	// no accelerators attached is not an error
	devices, err := ListDevices(&mockDelegateFactory{})
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestListDevicesFailure(t *testing.T) {
	factory := &mockDelegateFactory{listErr: errors.New("driver not loaded")}

	_, err := ListDevices(factory)
	assert.ErrorContains(t, err, "list edgetpu devices")
}

func TestPokeDevices(t *testing.T) {
	factory := &mockDelegateFactory{devices: []Device{
		{Type: DeviceUSB, Path: "/sys/bus/usb/devices/1-1"},
		{Type: DevicePCI, Path: "/dev/apex_0"},
	}}

	PokeDevices(factory, golog.NewTestLogger(t))

	// every successfully created delegate is released again
	assert.Equal(t, 2, factory.created)
	assert.Equal(t, 2, factory.freed)
}

func TestPokeDevicesCreationFailure(t *testing.T) {
	factory := &mockDelegateFactory{
		devices: []Device{{Type: DeviceUSB, Path: "/sys/bus/usb/devices/1-1"}},
		newErr:  errors.New("device unreachable"),
	}

	// failures are logged, not returned, and nothing is freed that was
	// never created
	PokeDevices(factory, golog.NewTestLogger(t))
	assert.Equal(t, 0, factory.created)
	assert.Equal(t, 0, factory.freed)
}

func TestQueryDevices(t *testing.T) {
	factory := &mockDelegateFactory{devices: []Device{
		{Type: DeviceUSB, Path: "/sys/bus/usb/devices/1-1"},
	}}

	var buf bytes.Buffer
	require.NoError(t, QueryDevices(&buf, factory))

	assert.Contains(t, buf.String(), "Found 1 edgetpu devices")
	assert.Contains(t, buf.String(), "USB: /sys/bus/usb/devices/1-1")
}

func TestQueryDevicesFailure(t *testing.T) {
	factory := &mockDelegateFactory{listErr: errors.New("driver not loaded")}

	var buf bytes.Buffer
	err := QueryDevices(&buf, factory)
	assert.ErrorContains(t, err, "querying edgetpu devices")
}
