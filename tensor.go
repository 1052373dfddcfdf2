package detlite

import "fmt"

// TensorType mirrors the TfLiteType enumeration of the native runtime.
type TensorType int

// tensor element types as numbered by the TensorFlow Lite C API
const (
	TensorNoType    TensorType = 0
	TensorFloat32   TensorType = 1
	TensorInt32     TensorType = 2
	TensorUint8     TensorType = 3
	TensorInt64     TensorType = 4
	TensorString    TensorType = 5
	TensorBool      TensorType = 6
	TensorInt16     TensorType = 7
	TensorComplex64 TensorType = 8
	TensorInt8      TensorType = 9
	TensorFloat16   TensorType = 10
)

// String returns a readable description of the TensorType
func (t TensorType) String() string {
	switch t {
	case TensorNoType:
		return "none"
	case TensorFloat32:
		return "float32"
	case TensorInt32:
		return "int32"
	case TensorUint8:
		return "uint8"
	case TensorInt64:
		return "int64"
	case TensorString:
		return "string"
	case TensorBool:
		return "bool"
	case TensorInt16:
		return "int16"
	case TensorComplex64:
		return "complex64"
	case TensorInt8:
		return "int8"
	case TensorFloat16:
		return "float16"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Status mirrors the TfLiteStatus codes returned by the native runtime.
// The zero value is success, everything else is a failure whose code is
// preserved so callers can apply their own policy, such as distinguishing a
// delegate failure that fell back to the CPU from a hard failure.
type Status int

// status values returned by the C API
const (
	StatusOK                   Status = 0
	StatusError                Status = 1
	StatusDelegateError        Status = 2
	StatusApplicationError     Status = 3
	StatusDelegateDataNotFound Status = 4
	StatusDelegateDataWriteErr Status = 5
	StatusDelegateDataReadErr  Status = 6
	StatusUnresolvedOps        Status = 7
	StatusCancelled            Status = 8
)

// String returns a readable description of the status code
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "execution successful"
	case StatusError:
		return "execution failed"
	case StatusDelegateError:
		return "delegate failed, execution fell back to the CPU"
	case StatusApplicationError:
		return "delegate is incompatible with the model or runtime"
	case StatusDelegateDataNotFound:
		return "serialized delegate data not found"
	case StatusDelegateDataWriteErr:
		return "serialized delegate data write failed"
	case StatusDelegateDataReadErr:
		return "serialized delegate data read failed"
	case StatusUnresolvedOps:
		return "model contains ops unresolved by the runtime"
	case StatusCancelled:
		return "execution cancelled"
	default:
		return fmt.Sprintf("unknown status code %d", int(s))
	}
}
