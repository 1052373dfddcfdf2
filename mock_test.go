package detlite

// In-memory implementations of the native capability seams.  The runtime
// mock records lifecycle events in order so tests can assert the teardown
// discipline, the USB mock counts acquisitions and releases so tests can
// assert that no native resource leaks on any probe exit path.

type mockRuntime struct {
	loadErr    error
	optionsErr error
	interpErr  error

	interpreter *mockInterpreter

	// events is the ordered lifecycle trace
	events  []string
	threads int
}

func (r *mockRuntime) LoadModel(path string) (Model, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	r.events = append(r.events, "model.Load:"+path)
	return &mockModel{rt: r}, nil
}

func (r *mockRuntime) NewOptions() (Options, error) {
	if r.optionsErr != nil {
		return nil, r.optionsErr
	}
	return &mockOptions{rt: r}, nil
}

func (r *mockRuntime) NewInterpreter(model Model, options Options) (Interpreter, error) {
	if r.interpErr != nil {
		return nil, r.interpErr
	}
	r.events = append(r.events, "interpreter.Create")
	return r.interpreter, nil
}

type mockModel struct {
	rt *mockRuntime
}

func (m *mockModel) Delete() {
	m.rt.events = append(m.rt.events, "model.Delete")
}

type mockOptions struct {
	rt *mockRuntime
}

func (o *mockOptions) SetNumThreads(n int) {
	o.rt.threads = n
}

func (o *mockOptions) AddDelegate(d Delegate) {
	o.rt.events = append(o.rt.events, "options.AddDelegate")
}

func (o *mockOptions) Delete() {
	o.rt.events = append(o.rt.events, "options.Delete")
}

type mockInterpreter struct {
	rt *mockRuntime

	allocStatus  Status
	invokeStatus Status

	inputs  []*mockTensor
	outputs []*mockTensor
}

func (i *mockInterpreter) AllocateTensors() Status {
	i.rt.events = append(i.rt.events, "interpreter.AllocateTensors")
	return i.allocStatus
}

func (i *mockInterpreter) InputTensorCount() int {
	return len(i.inputs)
}

func (i *mockInterpreter) OutputTensorCount() int {
	return len(i.outputs)
}

func (i *mockInterpreter) InputTensor(index int) Tensor {
	return i.inputs[index]
}

func (i *mockInterpreter) OutputTensor(index int) Tensor {
	return i.outputs[index]
}

func (i *mockInterpreter) Invoke() Status {
	i.rt.events = append(i.rt.events, "interpreter.Invoke")
	return i.invokeStatus
}

func (i *mockInterpreter) Delete() {
	i.rt.events = append(i.rt.events, "interpreter.Delete")
}

type mockTensor struct {
	typ      TensorType
	byteSize int
	dims     []int

	// data backs Float32s, bits backs Float16s, i8 backs Int8s
	data []float32
	bits []uint16
	i8   []int8

	scale     float32
	zeroPoint int32

	copyStatus Status
	// copied is the last buffer written through CopyFromBuffer
	copied []byte
}

func (t *mockTensor) Type() TensorType {
	return t.typ
}

func (t *mockTensor) ByteSize() int {
	return t.byteSize
}

func (t *mockTensor) Dims() []int {
	return t.dims
}

func (t *mockTensor) CopyFromBuffer(buf []byte) Status {
	if t.copyStatus != StatusOK {
		return t.copyStatus
	}
	t.copied = append([]byte(nil), buf...)
	return StatusOK
}

func (t *mockTensor) Float32s() []float32 {
	return t.data
}

func (t *mockTensor) Float16s() []uint16 {
	return t.bits
}

func (t *mockTensor) Int8s() []int8 {
	return t.i8
}

func (t *mockTensor) QuantizationParams() (float32, int32) {
	return t.scale, t.zeroPoint
}

// newMockRuntime returns a runtime whose interpreter satisfies the default
// shape contract: one uint8 input of inputSize bytes and four float32
// outputs.
func newMockRuntime(inputSize int, outputs [][]float32) *mockRuntime {

	rt := &mockRuntime{}

	outputTensors := make([]*mockTensor, len(outputs))

	for i, data := range outputs {
		outputTensors[i] = &mockTensor{
			typ:      TensorFloat32,
			byteSize: len(data) * 4,
			data:     data,
		}
	}

	rt.interpreter = &mockInterpreter{
		rt: rt,
		inputs: []*mockTensor{{
			typ:      TensorUint8,
			byteSize: inputSize,
		}},
		outputs: outputTensors,
	}

	return rt
}

type mockDelegateFactory struct {
	rt *mockRuntime

	devices []Device
	listErr error
	newErr  error

	created int
	freed   int
}

func (f *mockDelegateFactory) ListDevices() ([]Device, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.devices, nil
}

func (f *mockDelegateFactory) NewDelegate(d Device) (Delegate, error) {
	if f.newErr != nil {
		return nil, f.newErr
	}
	f.created++
	if f.rt != nil {
		f.rt.events = append(f.rt.events, "delegate.Create:"+d.Path)
	}
	return &mockDelegate{factory: f}, nil
}

func (f *mockDelegateFactory) Verbosity(level int) {}

type mockDelegate struct {
	factory *mockDelegateFactory
}

func (d *mockDelegate) Delete() {
	d.factory.freed++
	if d.factory.rt != nil {
		d.factory.rt.events = append(d.factory.rt.events, "delegate.Delete")
	}
}

// USB mocks.

type mockUSBHost struct {
	initErr error
	ctx     *mockUSBContext
}

func (h *mockUSBHost) Init() (USBContext, error) {
	if h.initErr != nil {
		return nil, h.initErr
	}
	h.ctx.opened++
	return h.ctx, nil
}

type mockUSBContext struct {
	listErr error
	devices []*mockUSBDevice

	opened      int
	closed      int
	listsIssued int
	listsFreed  int
}

func (c *mockUSBContext) DeviceList() (USBDeviceList, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	c.listsIssued++
	return &mockUSBDeviceList{ctx: c}, nil
}

func (c *mockUSBContext) Close() error {
	c.closed++
	return nil
}

// leaked reports whether any native resource is still outstanding
func (c *mockUSBContext) leaked() bool {
	return c.closed != c.opened || c.listsFreed != c.listsIssued
}

type mockUSBDeviceList struct {
	ctx *mockUSBContext
}

func (l *mockUSBDeviceList) Devices() []USBDevice {
	devices := make([]USBDevice, len(l.ctx.devices))
	for i, d := range l.ctx.devices {
		devices[i] = d
	}
	return devices
}

func (l *mockUSBDeviceList) Free() {
	l.ctx.listsFreed++
}

type mockUSBDevice struct {
	bus      uint8
	ports    []uint8
	portsErr error
	openErr  error

	handlesOpened int
	handlesClosed int
}

func (d *mockUSBDevice) BusNumber() uint8 {
	return d.bus
}

func (d *mockUSBDevice) PortNumbers() ([]uint8, error) {
	if d.portsErr != nil {
		return nil, d.portsErr
	}
	return d.ports, nil
}

func (d *mockUSBDevice) Open() (USBDeviceHandle, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.handlesOpened++
	return &mockUSBHandle{device: d}, nil
}

type mockUSBHandle struct {
	device *mockUSBDevice
}

func (h *mockUSBHandle) Close() error {
	h.device.handlesClosed++
	return nil
}
