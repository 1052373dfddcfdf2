package detlite

import (
	"fmt"

	"github.com/edaniels/golog"
)

// ShapeContract describes the tensor layout a loaded model is expected to
// have.  The defaults encode the quantized four-head SSD detector family
// (one uint8 input, four float32 outputs) but the contract is caller
// configurable for other model families.
type ShapeContract struct {
	// InputTensorCount is the required number of input tensors.
	InputTensorCount int
	// InputType is the required element type of every input tensor.
	InputType TensorType
	// OutputTensorCount is the required number of output tensors.
	OutputTensorCount int
	// OutputType is the required element type of every output tensor.
	OutputType TensorType
}

// DefaultShapeContract returns the contract for quantized four-head
// detection models: a single uint8 input and four float32 outputs holding
// boxes, classes, scores and count.
func DefaultShapeContract() ShapeContract {
	return ShapeContract{
		InputTensorCount:  1,
		InputType:         TensorUint8,
		OutputTensorCount: 4,
		OutputType:        TensorFloat32,
	}
}

// Params are the knobs applied when a model is loaded into a Detector.
type Params struct {
	// Threads is the interpreter thread count, defaults to 1 when zero.
	// Inference latency is then fully attributable to the calling
	// goroutine.
	Threads int
	// Contract is the expected tensor layout, DefaultShapeContract when
	// zero.
	Contract ShapeContract
	// Logger receives best-effort diagnostics.  Defaults to the global
	// logger when nil.
	Logger golog.Logger
}

func (p Params) withDefaults() Params {
	if p.Threads <= 0 {
		p.Threads = 1
	}
	if p.Contract == (ShapeContract{}) {
		p.Contract = DefaultShapeContract()
	}
	if p.Logger == nil {
		p.Logger = golog.Global()
	}
	return p
}

// Detector owns one interpreter instance for one loaded model, the cached
// input tensor reference and an optional accelerator delegate.
//
// A Detector is not safe for concurrent LoadModel/Detect calls, the cached
// input tensor and interpreter state are mutated in place.  Distinct
// detectors are independent and may run on separate goroutines.
type Detector struct {
	rt     Runtime
	params Params

	// interpreter is non-nil only after a successful LoadModel
	interpreter Interpreter
	// delegate is non-nil only if device binding was requested.  It is
	// released after the interpreter during teardown, the interpreter
	// may reference it until deleted.
	delegate Delegate
	// input is the sole input tensor, owned by the interpreter.  Never
	// released independently, it goes away with the interpreter.
	input     Tensor
	inputSize int

	// generation invalidates previously returned Outputs.  Bumped by
	// every mutating call.
	generation uint64
	closed     bool
}

// AllocateDetector returns a new empty detector bound to the given native
// runtime.  It never fails, all fallible work happens in LoadModel.
func AllocateDetector(rt Runtime, params Params) *Detector {
	return &Detector{
		rt:     rt,
		params: params.withDefaults(),
	}
}

// NewDetector allocates a detector and immediately loads the given model,
// optionally bound to an accelerator device.  factory may be nil when
// device is nil.
func NewDetector(rt Runtime, modelFile string, device *Device,
	factory DelegateFactory, params Params) (*Detector, error) {

	d := AllocateDetector(rt, params)

	_, err := d.LoadModel(modelFile, device, factory)

	if err != nil {
		return nil, err
	}

	return d, nil
}

// LoadModel loads the model at modelFile into the detector and validates it
// against the shape contract.  If device is non-nil a delegate bound to it
// is created through factory and registered before interpreter construction.
// The input tensor byte size is returned so the caller can size its detect
// buffers.
//
// Exactly one successful load is permitted per detector, a second call
// fails with CodeAlreadyLoaded and a closed detector rejects loads with
// CodeDetectorClosed.  On any failure the detector is left empty and still
// closeable, never partially initialized.
func (d *Detector) LoadModel(modelFile string, device *Device,
	factory DelegateFactory) (int, error) {

	if d.closed {
		// Close no longer runs teardown on this handle, anything loaded
		// now would leak
		return 0, &LoadError{Code: CodeDetectorClosed}
	}

	if d.interpreter != nil {
		return 0, &LoadError{Code: CodeAlreadyLoaded}
	}

	d.generation++

	// load model through the runtime's error reporting path
	model, err := d.rt.LoadModel(modelFile)

	if err != nil {
		return 0, &LoadError{Code: CodeModelLoad, Err: err}
	}

	options, err := d.rt.NewOptions()

	if err != nil {
		model.Delete()
		return 0, &LoadError{Code: CodeOptionsCreate, Err: err}
	}

	options.SetNumThreads(d.params.Threads)

	// delegate application happens at interpreter construction time, so
	// the delegate must be registered on the options first
	var delegate Delegate

	if device != nil {
		delegate, err = factory.NewDelegate(*device)

		if err != nil {
			options.Delete()
			model.Delete()
			return 0, &LoadError{
				Code:   CodeDelegateCreate,
				Detail: device.String(),
				Err:    err,
			}
		}

		options.AddDelegate(delegate)
	}

	interpreter, err := d.rt.NewInterpreter(model, options)

	if err != nil {
		options.Delete()
		model.Delete()
		if delegate != nil {
			delegate.Delete()
		}
		return 0, &LoadError{Code: CodeInterpreterCreate, Err: err}
	}

	// the interpreter holds its own copies of both
	model.Delete()
	options.Delete()

	// teardown for the remaining failure paths: interpreter first, then
	// the delegate it may reference
	fail := func() {
		interpreter.Delete()
		if delegate != nil {
			delegate.Delete()
		}
	}

	if status := interpreter.AllocateTensors(); status != StatusOK {
		fail()
		return 0, &LoadError{Code: CodeTensorAllocation, Status: status}
	}

	// validate the shape contract
	contract := d.params.Contract

	if n := interpreter.InputTensorCount(); n != contract.InputTensorCount {
		fail()
		return 0, &LoadError{
			Code:   CodeInputTensorCount,
			Detail: countDetail(n, contract.InputTensorCount),
		}
	}

	input := interpreter.InputTensor(0)

	if typ := input.Type(); typ != contract.InputType {
		fail()
		return 0, &LoadError{
			Code:   CodeInputTensorType,
			Detail: "got " + typ.String() + ", want " + contract.InputType.String(),
		}
	}

	if n := interpreter.OutputTensorCount(); n != contract.OutputTensorCount {
		fail()
		return 0, &LoadError{
			Code:   CodeOutputTensorCount,
			Detail: countDetail(n, contract.OutputTensorCount),
		}
	}

	d.interpreter = interpreter
	d.delegate = delegate
	d.input = input
	d.inputSize = input.ByteSize()

	d.params.Logger.Debugf("loaded model %s, input size %d bytes",
		modelFile, d.inputSize)

	return d.inputSize, nil
}

// InputSize returns the byte size of the input tensor, zero before a
// successful LoadModel.
func (d *Detector) InputSize() int {
	return d.inputSize
}

// Detect copies buf into the input tensor, invokes the interpreter and
// returns views of the output tensors.  len(buf) must exactly equal
// InputSize.  For an int8 input contract the buffer is quantized in place
// before the copy.  The returned Outputs reference interpreter-owned memory
// and are invalidated by the next Detect, LoadModel or Close call on this
// detector.
func (d *Detector) Detect(buf []byte) (*Outputs, error) {

	if d.interpreter == nil {
		return nil, &DetectError{Code: CodeNotLoaded}
	}

	if len(buf) != d.inputSize {
		return nil, &DetectError{
			Code:   CodeBufferSize,
			Detail: countDetail(len(buf), d.inputSize),
		}
	}

	d.generation++

	if d.params.Contract.InputType == TensorInt8 {
		// quantized models take affine int8 input, buf is rewritten in
		// place before the copy
		scale, zeroPoint := d.input.QuantizationParams()
		quantizeBuffer(buf, scale, zeroPoint)
	}

	if status := d.input.CopyFromBuffer(buf); status != StatusOK {
		return nil, &DetectError{Code: CodeInputWrite, Status: status}
	}

	if status := d.interpreter.Invoke(); status != StatusOK {
		return nil, &DetectError{Code: CodeInvoke, Status: status}
	}

	contract := d.params.Contract
	views := make([][]float32, contract.OutputTensorCount)
	sizes := make([]int, contract.OutputTensorCount)
	dims := make([][]int, contract.OutputTensorCount)

	for i := 0; i < contract.OutputTensorCount; i++ {
		tensor := d.interpreter.OutputTensor(i)

		// every output must match the contract type, a single
		// mismatched head means the model is not what the caller
		// thinks it is
		typ := tensor.Type()

		if typ != contract.OutputType {
			return nil, &DetectError{
				Code: CodeOutputTensorType,
				Detail: fmt.Sprintf("tensor %d: got %s, want %s",
					i, typ, contract.OutputType),
			}
		}

		switch typ {
		case TensorFloat16:
			// no float16 in Go, convert to a float32 copy
			views[i] = convertFloat16BufferToFloat32(tensor.Float16s())
		case TensorInt8:
			scale, zeroPoint := tensor.QuantizationParams()
			views[i] = dequantize(tensor.Int8s(), scale, zeroPoint)
		default:
			views[i] = tensor.Float32s()
		}

		sizes[i] = tensor.ByteSize()
		dims[i] = tensor.Dims()
	}

	return &Outputs{
		detector:   d,
		generation: d.generation,
		views:      views,
		sizes:      sizes,
		dims:       dims,
	}, nil
}

// Close releases the interpreter, then the delegate if present, in that
// order.  Close is idempotent, repeated calls are no-ops.
func (d *Detector) Close() error {

	if d.closed {
		return nil
	}

	d.closed = true
	d.generation++

	if d.interpreter != nil {
		d.interpreter.Delete()
		d.interpreter = nil
		// input was interpreter-owned memory, it is gone now
		d.input = nil
	}

	if d.delegate != nil {
		d.delegate.Delete()
		d.delegate = nil
	}

	return nil
}

// Outputs holds read-only views into interpreter-owned output tensor
// memory.  The views stay valid until the next mutating call on the issuing
// detector, after which every accessor fails with CodeStaleOutputs.
type Outputs struct {
	detector   *Detector
	generation uint64
	views      [][]float32
	sizes      []int
	dims       [][]int
}

// Len returns the number of output tensors.
func (o *Outputs) Len() int {
	return len(o.views)
}

// Valid reports whether the views still reference live tensor memory.
func (o *Outputs) Valid() bool {
	return o.generation == o.detector.generation
}

// Float32s returns the data of output tensor index as float32 values.
func (o *Outputs) Float32s(index int) ([]float32, error) {
	if !o.Valid() {
		return nil, &DetectError{Code: CodeStaleOutputs}
	}
	return o.views[index], nil
}

// ByteSize returns the byte length of output tensor index.
func (o *Outputs) ByteSize(index int) int {
	return o.sizes[index]
}

// Dims returns the dimensions of output tensor index.
func (o *Outputs) Dims(index int) []int {
	return o.dims[index]
}

func countDetail(got, want int) string {
	return fmt.Sprintf("got %d, want %d", got, want)
}
