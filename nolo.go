package detlite

import "fmt"

// scores below this are noise, prune them before the per-class pass
const noloMinScore = 0.05

// NoloShapeContract returns the contract for quantized single-head NOLO
// models: one int8 input and one int8 output tensor.
func NoloShapeContract() ShapeContract {
	return ShapeContract{
		InputTensorCount:  1,
		InputType:         TensorInt8,
		OutputTensorCount: 1,
		OutputType:        TensorInt8,
	}
}

// ParseNoloDetections decodes the single output tensor of a NOLO model into
// Detection values.  The tensor is laid out as [1, 4+classes, items] with
// one row each of x center, y center, width and height followed by one
// score row per class.  Overlapping detections of the same class are merged
// by non-max suppression before returning.
func ParseNoloDetections(outputs *Outputs) ([]Detection, error) {

	if n := outputs.Len(); n != 1 {
		return nil, fmt.Errorf("expected 1 output tensor, got %d", n)
	}

	data, err := outputs.Float32s(0)

	if err != nil {
		return nil, err
	}

	dims := outputs.Dims(0)

	if len(dims) != 3 {
		return nil, fmt.Errorf("expected 3 output dimensions, got %v", dims)
	}

	// number of classes plus the four coordinate rows
	numClasses4 := dims[1]
	numItems := dims[2]

	if numClasses4 < 5 || numItems < 1 {
		return nil, fmt.Errorf("degenerate output dimensions: %v", dims)
	}

	if len(data) != numClasses4*numItems {
		return nil, fmt.Errorf("output tensor size mismatch: got %d, want %d",
			len(data), numClasses4*numItems)
	}

	var detections []Detection

	for class4 := 4; class4 < numClasses4; class4++ {
		offset := numItems * class4

		for i := 0; i < numItems; i++ {
			score := data[offset+i]

			if score < noloMinScore {
				continue
			}

			x := data[i]
			y := data[numItems+i]
			w2 := data[numItems*2+i] / 2
			h2 := data[numItems*3+i] / 2

			detections = append(detections, Detection{
				Score:  clamp01(score),
				Class:  class4 - 4,
				Top:    clamp01(y - h2),
				Left:   clamp01(x - w2),
				Bottom: clamp01(y + h2),
				Right:  clamp01(x + w2),
			})
		}
	}

	return NonMaxSuppression(detections, defaultIOUThreshold), nil
}

// quantizeBuffer converts raw uint8 image bytes in place into the affine
// int8 space of the input tensor, stored as the int8 bit pattern.
func quantizeBuffer(buf []byte, scale float32, zeroPoint int32) {

	for i, b := range buf {
		v := float32(b) / 255.0
		v = v/scale + float32(zeroPoint)
		buf[i] = uint8(saturateInt8(v))
	}
}

// dequantize maps quantized int8 tensor data back to float32 values.
func dequantize(data []int8, scale float32, zeroPoint int32) []float32 {

	out := make([]float32, len(data))

	for i, b := range data {
		out[i] = (float32(b) - float32(zeroPoint)) * scale
	}

	return out
}

func saturateInt8(v float32) int8 {
	if v > 127 {
		return 127
	}
	if v < -128 {
		return -128
	}
	return int8(v)
}
