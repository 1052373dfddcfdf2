package detlite

// The native inference runtime and the accelerator driver are accessed
// through the narrow interfaces below.  TFLiteRuntime and EdgeTPU are the
// production implementations, tests substitute in-memory mocks.  Values
// returned by one Runtime must only be passed back to that same Runtime.

// Runtime is the native inference runtime capability: loading models and
// constructing interpreters from them.
type Runtime interface {
	// LoadModel parses a model file.  The returned Model must be released
	// with Delete once an interpreter has been created from it, the
	// runtime copies whatever it needs.
	LoadModel(path string) (Model, error)

	// NewOptions returns a fresh interpreter options handle.
	NewOptions() (Options, error)

	// NewInterpreter constructs an interpreter from a model and options.
	// Delegates must already be registered on the options, delegate
	// application happens at interpreter construction time.
	NewInterpreter(model Model, options Options) (Interpreter, error)
}

// Model is an opaque parsed model owned by the caller until Delete.
type Model interface {
	Delete()
}

// Options configures interpreter construction.
type Options interface {
	// SetNumThreads fixes the number of threads the interpreter may use.
	SetNumThreads(n int)

	// AddDelegate registers an accelerator delegate.  The delegate must
	// outlive the interpreter built from these options.
	AddDelegate(d Delegate)

	Delete()
}

// Interpreter is the execution context for one loaded model graph.
type Interpreter interface {
	AllocateTensors() Status
	InputTensorCount() int
	OutputTensorCount() int

	// InputTensor and OutputTensor return references to interpreter-owned
	// memory.  They are valid only while the interpreter is.
	InputTensor(index int) Tensor
	OutputTensor(index int) Tensor

	Invoke() Status
	Delete()
}

// Tensor is a non-owning reference to interpreter-managed memory.  It is
// never released independently, it goes away with the interpreter.
type Tensor interface {
	Type() TensorType
	ByteSize() int

	// Dims returns the tensor dimensions.
	Dims() []int

	// CopyFromBuffer copies buf into the tensor.  len(buf) must equal
	// ByteSize.
	CopyFromBuffer(buf []byte) Status

	// Float32s returns the tensor data as a float32 slice backed by
	// interpreter-owned memory.
	Float32s() []float32

	// Float16s returns the raw bits of a float16 tensor.
	Float16s() []uint16

	// Int8s returns the data of a quantized int8 tensor.
	Int8s() []int8

	// QuantizationParams returns the affine quantization scale and zero
	// point of an int8 tensor.
	QuantizationParams() (scale float32, zeroPoint int32)
}

// Delegate is a native runtime plugin that offloads graph execution to
// specialized hardware.
type Delegate interface {
	Delete()
}

// DeviceType identifies how an accelerator is attached to the host.
type DeviceType int

const (
	DevicePCI DeviceType = 0
	DeviceUSB DeviceType = 1
)

// String returns a readable description of the device type
func (t DeviceType) String() string {
	switch t {
	case DevicePCI:
		return "PCI"
	case DeviceUSB:
		return "USB"
	default:
		return "unknown"
	}
}

// ParseDeviceType converts "usb" or "pci" in any case to a DeviceType.
func ParseDeviceType(s string) (DeviceType, error) {
	switch s {
	case "usb", "USB", "Usb":
		return DeviceUSB, nil
	case "pci", "PCI", "Pci":
		return DevicePCI, nil
	}
	return 0, &UnknownDeviceTypeError{Value: s}
}

// UnknownDeviceTypeError is returned by ParseDeviceType for anything other
// than "usb" or "pci".
type UnknownDeviceTypeError struct {
	Value string
}

func (e *UnknownDeviceTypeError) Error() string {
	return "unknown device type '" + e.Value + "', expected 'usb' or 'pci'"
}

// Device is one discovered accelerator.
type Device struct {
	Type DeviceType
	Path string
}

// String returns the device formatted as "TYPE: path"
func (d Device) String() string {
	return d.Type.String() + ": " + d.Path
}

// DelegateFactory is the accelerator driver capability: enumerating attached
// accelerators and creating delegates bound to them.
type DelegateFactory interface {
	// ListDevices returns the accelerators currently visible to the
	// driver.  The driver-owned native array backing the result is
	// released before returning, the returned slice is Go-managed.
	ListDevices() ([]Device, error)

	// NewDelegate creates a delegate bound to the given device.  The
	// caller owns the delegate and must release it with Delete after the
	// interpreter using it has been deleted.
	NewDelegate(d Device) (Delegate, error)

	// Verbosity adjusts driver log verbosity, 0 (silent) to 10.
	Verbosity(level int)
}
