package detlite

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probeErrCode(t *testing.T, err error) Code {
	t.Helper()
	var probeErr *ProbeError
	require.ErrorAs(t, err, &probeErr)
	return probeErr.Code
}

func TestProbeDeviceFound(t *testing.T) {
	target := &mockUSBDevice{bus: 2, ports: []uint8{1, 3}}
	ctx := &mockUSBContext{devices: []*mockUSBDevice{
		{bus: 1, ports: []uint8{1}},
		{bus: 2, ports: []uint8{1, 2}},
		target,
	}}
	host := &mockUSBHost{ctx: ctx}

	err := ProbeDevice(host, 2, []uint8{1, 3})
	require.NoError(t, err)

	// the device was opened to verify accessibility and closed again
	assert.Equal(t, 1, target.handlesOpened)
	assert.Equal(t, 1, target.handlesClosed)
	assert.False(t, ctx.leaked())
}

func TestProbeDeviceNotFound(t *testing.T) {
	ctx := &mockUSBContext{devices: []*mockUSBDevice{
		{bus: 1, ports: []uint8{1}},
		{bus: 2, ports: []uint8{1, 2}},
	}}
	host := &mockUSBHost{ctx: ctx}

	err := ProbeDevice(host, 2, []uint8{7})
	assert.Equal(t, CodeUSBNotFound, probeErrCode(t, err))
	assert.False(t, ctx.leaked())
}

func TestProbeDeviceInitFailure(t *testing.T) {
	host := &mockUSBHost{initErr: errors.New("libusb init failed")}

	err := ProbeDevice(host, 1, []uint8{1})
	assert.Equal(t, CodeUSBInit, probeErrCode(t, err))
}

func TestProbeDeviceEnumerationFailure(t *testing.T) {
	ctx := &mockUSBContext{listErr: errors.New("enumeration failed")}
	host := &mockUSBHost{ctx: ctx}

	err := ProbeDevice(host, 1, []uint8{1})
	assert.Equal(t, CodeUSBGetDeviceList, probeErrCode(t, err))

	// the context itself must still be closed
	assert.False(t, ctx.leaked())
}

func TestProbeDevicePortReadFailure(t *testing.T) {
	ctx := &mockUSBContext{devices: []*mockUSBDevice{
		{bus: 1, portsErr: errors.New("device vanished")},
	}}
	host := &mockUSBHost{ctx: ctx}

	err := ProbeDevice(host, 1, []uint8{1})
	assert.Equal(t, CodeUSBGetPortNumbers, probeErrCode(t, err))
	assert.False(t, ctx.leaked())
}

func TestProbeDeviceOpenFailure(t *testing.T) {
	ctx := &mockUSBContext{devices: []*mockUSBDevice{
		{bus: 1, ports: []uint8{4}, openErr: errors.New("permission denied")},
	}}
	host := &mockUSBHost{ctx: ctx}

	err := ProbeDevice(host, 1, []uint8{4})
	assert.Equal(t, CodeUSBOpenDevice, probeErrCode(t, err))

	// context and list released even when the open fails
	assert.False(t, ctx.leaked())
}

func TestProbeDeviceWrongBusSkipsPortRead(t *testing.T) {
	offBus := &mockUSBDevice{bus: 3, portsErr: errors.New("must not be read")}
	ctx := &mockUSBContext{devices: []*mockUSBDevice{
		offBus,
		{bus: 1, ports: []uint8{1}},
	}}
	host := &mockUSBHost{ctx: ctx}

	err := ProbeDevice(host, 1, []uint8{1})
	require.NoError(t, err)
	assert.False(t, ctx.leaked())
}

func TestProbeDevicePath(t *testing.T) {
	target := &mockUSBDevice{bus: 1, ports: []uint8{1, 2}}
	ctx := &mockUSBContext{devices: []*mockUSBDevice{target}}
	host := &mockUSBHost{ctx: ctx}

	err := ProbeDevicePath(host, "/sys/bus/usb/devices/1-1.2")
	require.NoError(t, err)
	assert.Equal(t, 1, target.handlesClosed)
}

func TestProbeDevicePathInvalid(t *testing.T) {
	host := &mockUSBHost{ctx: &mockUSBContext{}}

	err := ProbeDevicePath(host, "not-a-sysfs-path")
	assert.Equal(t, CodeUSBParsePath, probeErrCode(t, err))

	// nothing was touched for an unparseable path
	assert.Equal(t, 0, host.ctx.opened)
}
