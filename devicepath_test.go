package detlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDevicePath(t *testing.T) {
	cases := []struct {
		input string
		want  DevicePath
	}{
		{
			"/sys/bus/usb/devices/1-1",
			DevicePath{BusNumber: 1, PortNumbers: []uint8{1}},
		},
		{
			"/sys/bus/usb/devices/3-1.2",
			DevicePath{BusNumber: 3, PortNumbers: []uint8{1, 2}},
		},
		{
			"/sys/bus/usb/devices/255-1.2.3.4.5.6.7",
			DevicePath{
				BusNumber:   255,
				PortNumbers: []uint8{1, 2, 3, 4, 5, 6, 7},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := ParseDevicePath(tc.input)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseDevicePathInvalid(t *testing.T) {
	cases := []string{
		"",
		"/sys/bus/usb/devices",
		"/sys/bus/usb/devices/",
		"1",
		"1-1",
		"/sys/bus/usb/devices/1",
		"/sys/bus/usb/devices/1-",
		"/sys/bus/usb/devices/-1",
		"/sys/bus/usb/devices/a-1",
		"/sys/bus/usb/devices/1-a",
		"/sys/bus/usb/devices/1-1.b",
		"/sys/bus/usb/devices/1-1.2-3",
		"/sys/bus/usb/devices/256-1",
		"/sys/bus/usb/devices/1-256",
		// one past the maximum hub nesting depth
		"/sys/bus/usb/devices/1-1.2.3.4.5.6.7.8",
	}

	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			_, ok := ParseDevicePath(input)
			assert.False(t, ok)
		})
	}
}
