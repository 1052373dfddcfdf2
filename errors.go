package detlite

import "fmt"

// Code is a numeric error code.  Codes are partitioned into disjoint ranges
// by the originating subsystem so existing callers keying on raw integers
// keep working: model/interpreter load errors start at 10000, USB probe
// errors at 20000 and detect-time errors at 30000.
type Code int

// load error codes
const (
	CodeModelLoad         Code = 10000
	CodeInterpreterCreate Code = 10001
	CodeDelegateCreate    Code = 10002
	CodeTensorAllocation  Code = 10003
	CodeInputTensorCount  Code = 10004
	CodeInputTensorType   Code = 10005
	CodeOutputTensorCount Code = 10006
	CodeAlreadyLoaded     Code = 10007
	CodeOptionsCreate     Code = 10008
	CodeDetectorClosed    Code = 10009
)

// probe error codes
const (
	CodeUSBInit           Code = 20000
	CodeUSBGetDeviceList  Code = 20001
	CodeUSBGetPortNumbers Code = 20002
	CodeUSBOpenDevice     Code = 20003
	CodeUSBNotFound       Code = 20004
	CodeUSBParsePath      Code = 20005
)

// detect error codes
const (
	CodeNotLoaded        Code = 30000
	CodeBufferSize       Code = 30001
	CodeInputWrite       Code = 30002
	CodeInvoke           Code = 30003
	CodeOutputTensorType Code = 30004
	CodeStaleOutputs     Code = 30005
)

// String returns a readable description of the error code
func (c Code) String() string {
	switch c {
	case CodeModelLoad:
		return "create model from file"
	case CodeInterpreterCreate:
		return "create interpreter"
	case CodeDelegateCreate:
		return "create edgetpu delegate"
	case CodeTensorAllocation:
		return "allocate tensors"
	case CodeInputTensorCount:
		return "unexpected input tensor count"
	case CodeInputTensorType:
		return "unexpected input tensor type"
	case CodeOutputTensorCount:
		return "unexpected output tensor count"
	case CodeAlreadyLoaded:
		return "model already loaded"
	case CodeOptionsCreate:
		return "create interpreter options"
	case CodeDetectorClosed:
		return "detector closed"
	case CodeUSBInit:
		return "init usb context"
	case CodeUSBGetDeviceList:
		return "get usb device list"
	case CodeUSBGetPortNumbers:
		return "get usb port numbers"
	case CodeUSBOpenDevice:
		return "open usb device"
	case CodeUSBNotFound:
		return "usb device not found"
	case CodeUSBParsePath:
		return "parse usb device path"
	case CodeNotLoaded:
		return "no model loaded"
	case CodeBufferSize:
		return "input buffer size mismatch"
	case CodeInputWrite:
		return "write input tensor"
	case CodeInvoke:
		return "invoke interpreter"
	case CodeOutputTensorType:
		return "unexpected output tensor type"
	case CodeStaleOutputs:
		return "outputs invalidated by a later call"
	default:
		return fmt.Sprintf("unknown error code %d", int(c))
	}
}

// LoadError is returned by Detector.LoadModel.  It identifies which step of
// the load sequence failed and preserves the native status code where one
// exists.
type LoadError struct {
	Code   Code
	Status Status
	Detail string
	Err    error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load model: %s (code %d)", e.Code, int(e.Code))
	if e.Status != StatusOK {
		msg += fmt.Sprintf(": %s", e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// DetectError is returned by Detector.Detect.  The native status code of a
// failed invocation is preserved so the caller can tell a delegate fallback
// from a hard failure.
type DetectError struct {
	Code   Code
	Status Status
	Detail string
}

func (e *DetectError) Error() string {
	msg := fmt.Sprintf("detect: %s (code %d)", e.Code, int(e.Code))
	if e.Status != StatusOK {
		msg += fmt.Sprintf(": %s", e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// ProbeError is returned by ProbeDevice.  Code identifies the probe state
// the failure occurred in and Err carries the underlying USB library error,
// if any.
type ProbeError struct {
	Code Code
	Err  error
}

func (e *ProbeError) Error() string {
	msg := fmt.Sprintf("probe device: %s (code %d)", e.Code, int(e.Code))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}
