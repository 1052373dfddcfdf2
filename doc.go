/*
go-detlite provides Go language bindings for running quantized object
detection models on the TensorFlow Lite C API, with optional offloading to a
Coral Edge TPU accelerator attached over USB or PCI.

The package is built around the Detector handle which owns one interpreter
instance for one loaded model.  The native runtime and the accelerator driver
are accessed through small capability interfaces so the detector lifecycle
can be exercised against mock implementations, while the production adapters
wrap github.com/mattn/go-tflite and its edgetpu delegate package.

A USB topology probe is included for re-locating a physical accelerator after
a hot-plug event.  Physical bus/port paths are stable across re-enumeration
even when the OS-assigned device index changes, so the probe matches bus
number and port-number sequence rather than device index.

See the cmd/detlite subdirectory for a diagnostic command line tool.
*/
package detlite
