package detlite

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/edaniels/golog"
	tfl "github.com/mattn/go-tflite"
	"github.com/mattn/go-tflite/delegates"
	"github.com/mattn/go-tflite/delegates/edgetpu"
)

// TFLiteRuntime implements Runtime on top of the TensorFlow Lite C API
// bindings.  Runtime error reporter output is routed into the logger.
type TFLiteRuntime struct {
	// Logger receives the native error reporter messages.  Defaults to
	// the global logger when nil.
	Logger golog.Logger
}

func (r *TFLiteRuntime) logger() golog.Logger {
	if r.Logger == nil {
		return golog.Global()
	}
	return r.Logger
}

// LoadModel parses the model file at path.
func (r *TFLiteRuntime) LoadModel(path string) (Model, error) {

	// check file exists in Go, before passing to C
	info, err := os.Stat(path)

	if err != nil {
		return nil, fmt.Errorf("model file does not exist at %s, error: %w",
			path, err)
	}

	if info.IsDir() {
		return nil, errors.New("model file is a directory")
	}

	model := tfl.NewModelFromFile(path)

	if model == nil {
		return nil, fmt.Errorf("C.TfLiteModelCreateFromFile failed for %s", path)
	}

	return &tfliteModel{model: model}, nil
}

// NewOptions returns interpreter options with the shared error reporter
// already installed.
func (r *TFLiteRuntime) NewOptions() (Options, error) {

	options := tfl.NewInterpreterOptions()

	if options == nil {
		return nil, errors.New("C.TfLiteInterpreterOptionsCreate failed")
	}

	logger := r.logger()

	options.SetErrorReporter(func(msg string, userData interface{}) {
		logger.Warnf("tflite: %s", msg)
	}, nil)

	return &tfliteOptions{options: options, logger: logger}, nil
}

// NewInterpreter constructs an interpreter from a model and options
// produced by this runtime.
func (r *TFLiteRuntime) NewInterpreter(model Model, options Options) (Interpreter, error) {

	m, ok := model.(*tfliteModel)

	if !ok {
		return nil, errors.New("model was not produced by TFLiteRuntime")
	}

	o, ok := options.(*tfliteOptions)

	if !ok {
		return nil, errors.New("options were not produced by TFLiteRuntime")
	}

	interpreter := tfl.NewInterpreter(m.model, o.options)

	if interpreter == nil {
		return nil, errors.New("C.TfLiteInterpreterCreate failed")
	}

	return &tfliteInterpreter{interpreter: interpreter}, nil
}

type tfliteModel struct {
	model *tfl.Model
}

func (m *tfliteModel) Delete() {
	m.model.Delete()
}

type tfliteOptions struct {
	options *tfl.InterpreterOptions
	logger  golog.Logger
}

func (o *tfliteOptions) SetNumThreads(n int) {
	o.options.SetNumThread(n)
}

func (o *tfliteOptions) AddDelegate(d Delegate) {
	dd, ok := d.(delegates.Delegater)

	if !ok {
		// a delegate from another runtime cannot be registered, the
		// model would silently run on the CPU
		o.logger.Warnf(
			"delegate %T does not wrap a native delegate, running on the CPU", d)
		return
	}

	o.options.AddDelegate(dd)
}

func (o *tfliteOptions) Delete() {
	o.options.Delete()
}

type tfliteInterpreter struct {
	interpreter *tfl.Interpreter
}

func (i *tfliteInterpreter) AllocateTensors() Status {
	return Status(i.interpreter.AllocateTensors())
}

func (i *tfliteInterpreter) InputTensorCount() int {
	return i.interpreter.GetInputTensorCount()
}

func (i *tfliteInterpreter) OutputTensorCount() int {
	return i.interpreter.GetOutputTensorCount()
}

func (i *tfliteInterpreter) InputTensor(index int) Tensor {
	return &tfliteTensor{tensor: i.interpreter.GetInputTensor(index)}
}

func (i *tfliteInterpreter) OutputTensor(index int) Tensor {
	return &tfliteTensor{tensor: i.interpreter.GetOutputTensor(index)}
}

func (i *tfliteInterpreter) Invoke() Status {
	return Status(i.interpreter.Invoke())
}

func (i *tfliteInterpreter) Delete() {
	i.interpreter.Delete()
}

type tfliteTensor struct {
	tensor *tfl.Tensor
}

func (t *tfliteTensor) Type() TensorType {
	return TensorType(t.tensor.Type())
}

func (t *tfliteTensor) ByteSize() int {
	return int(t.tensor.ByteSize())
}

func (t *tfliteTensor) Dims() []int {

	dims := make([]int, t.tensor.NumDims())

	for i := range dims {
		dims[i] = t.tensor.Dim(i)
	}

	return dims
}

func (t *tfliteTensor) CopyFromBuffer(buf []byte) Status {
	return Status(t.tensor.CopyFromBuffer(buf))
}

func (t *tfliteTensor) Float32s() []float32 {
	return t.tensor.Float32s()
}

func (t *tfliteTensor) Float16s() []uint16 {

	raw := t.tensor.UInt8s()
	bits := make([]uint16, len(raw)/2)

	for i := range bits {
		bits[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}

	return bits
}

func (t *tfliteTensor) Int8s() []int8 {

	raw := t.tensor.UInt8s()
	data := make([]int8, len(raw))

	for i, b := range raw {
		data[i] = int8(b)
	}

	return data
}

func (t *tfliteTensor) QuantizationParams() (float32, int32) {
	p := t.tensor.QuantizationParams()
	return float32(p.Scale), int32(p.ZeroPoint)
}

// EdgeTPU implements DelegateFactory on top of the libedgetpu bindings.
type EdgeTPU struct{}

// ListDevices enumerates attached Edge TPU accelerators.  The native device
// array is copied and released before returning.
func (EdgeTPU) ListDevices() ([]Device, error) {

	native, err := edgetpu.DeviceList()

	if err != nil {
		return nil, fmt.Errorf("edgetpu_list_devices failed: %w", err)
	}

	devices := make([]Device, 0, len(native))

	for _, d := range native {
		devices = append(devices, Device{
			Type: deviceTypeFromNative(d.Type),
			Path: d.Path,
		})
	}

	return devices, nil
}

// NewDelegate creates a delegate bound to the given device.
func (EdgeTPU) NewDelegate(d Device) (Delegate, error) {

	delegate := edgetpu.New(edgetpu.Device{
		Type: nativeDeviceType(d.Type),
		Path: d.Path,
	})

	if delegate == nil {
		return nil, fmt.Errorf("edgetpu_create_delegate failed for %s", d)
	}

	return delegate, nil
}

// Verbosity sets the driver log verbosity, 0 (silent) to 10.
func (EdgeTPU) Verbosity(level int) {
	edgetpu.Verbosity(level)
}

func deviceTypeFromNative(t edgetpu.DeviceType) DeviceType {
	if t == edgetpu.TypeApexUSB {
		return DeviceUSB
	}
	return DevicePCI
}

func nativeDeviceType(t DeviceType) edgetpu.DeviceType {
	if t == DeviceUSB {
		return edgetpu.TypeApexUSB
	}
	return edgetpu.TypeApexPCI
}
