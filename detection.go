package detlite

import "fmt"

// output tensor order of the four-head detection postprocess
const (
	outputBoxes   = 0
	outputClasses = 1
	outputScores  = 2
	outputCount   = 3
)

// Detection is one detected object.  All values besides Class are
// normalized to [0, 1].
type Detection struct {
	Score  float32
	Class  int
	Top    float32
	Left   float32
	Bottom float32
	Right  float32
}

// Area returns the normalized box area.
func (d Detection) Area() float32 {
	return (d.Bottom - d.Top) * (d.Right - d.Left)
}

// String formats the detection for diagnostics
func (d Detection) String() string {
	return fmt.Sprintf("score=%.2f class=%d area=[%.2f, %.2f, %.2f, %.2f]",
		d.Score, d.Class, d.Top, d.Left, d.Bottom, d.Right)
}

// ParseDetections decodes the four output tensors of a detection model into
// Detection values.  Tensor order is boxes, classes, scores, count.  Boxes
// hold [top, left, bottom, right] quadruples, classes and scores one value
// per detection, and count a single value giving the number of valid
// detections.  Scores and coordinates are clamped to [0, 1].
func ParseDetections(outputs *Outputs) ([]Detection, error) {

	if n := outputs.Len(); n != 4 {
		return nil, fmt.Errorf("expected 4 output tensors, got %d", n)
	}

	boxes, err := outputs.Float32s(outputBoxes)

	if err != nil {
		return nil, err
	}

	classes, err := outputs.Float32s(outputClasses)

	if err != nil {
		return nil, err
	}

	scores, err := outputs.Float32s(outputScores)

	if err != nil {
		return nil, err
	}

	countTensor, err := outputs.Float32s(outputCount)

	if err != nil {
		return nil, err
	}

	if len(countTensor) == 0 {
		return nil, fmt.Errorf("count tensor is empty")
	}

	// count comes from model output and cannot be trusted for allocation,
	// the bounds checks below reject an oversized value on the first
	// iteration instead
	count := int(countTensor[0])
	capacity := count

	if capacity < 0 || capacity > len(scores) {
		capacity = len(scores)
	}

	detections := make([]Detection, 0, capacity)

	for i := 0; i < count; i++ {

		if i >= len(scores) {
			return nil, fmt.Errorf("score tensor out of bounds: %d", i)
		}

		if i >= len(classes) {
			return nil, fmt.Errorf("class tensor out of bounds: %d", i)
		}

		class := classes[i]

		if class < 0 || class > 255 {
			return nil, fmt.Errorf("class out of range 0-255: %f", class)
		}

		if 4*i+3 >= len(boxes) {
			return nil, fmt.Errorf("coordinate tensor out of bounds: %d", i)
		}

		detections = append(detections, Detection{
			Score:  clamp01(scores[i]),
			Class:  int(class),
			Top:    clamp01(boxes[4*i]),
			Left:   clamp01(boxes[4*i+1]),
			Bottom: clamp01(boxes[4*i+2]),
			Right:  clamp01(boxes[4*i+3]),
		})
	}

	return detections, nil
}

// FilterDetections drops detections below the per-label score threshold,
// detections whose label has no threshold at all, and detections whose
// center falls inside the mask polygon.  labels maps class index to label
// name, an out-of-range class keeps the raw index as its name.
func FilterDetections(detections []Detection, labels Labels,
	thresholds map[string]float32, mask Mask) []Detection {

	kept := make([]Detection, 0, len(detections))

	for _, d := range detections {
		threshold, ok := thresholds[labels.Name(d.Class)]

		if !ok || d.Score < threshold {
			continue
		}

		if mask.Enable {
			centerX := d.Left + (d.Right-d.Left)/2
			centerY := d.Top + (d.Bottom-d.Top)/2

			if mask.Contains(centerX, centerY) {
				continue
			}
		}

		kept = append(kept, d)
	}

	return kept
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
