package detlite

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// worst case is O(n²), bail out rather than stall the caller
const nmsMaxIterations = 10000

// NonMaxSuppression suppresses detections that overlap a higher scoring
// detection of the same class by more than iouThreshold.  The survivors are
// returned ordered by descending score within each class.
func NonMaxSuppression(detections []Detection, iouThreshold float32) []Detection {

	byClass := make(map[int][]Detection)

	for _, d := range detections {
		byClass[d.Class] = append(byClass[d.Class], d)
	}

	kept := make([]Detection, 0, len(detections))

	for _, class := range sortedClasses(byClass) {
		kept = append(kept, suppressClass(byClass[class], iouThreshold)...)
	}

	return kept
}

func suppressClass(detections []Detection, iouThreshold float32) []Detection {

	// order candidates by descending score
	scores := make([]float64, len(detections))

	for i, d := range detections {
		scores[i] = float64(d.Score)
	}

	order := make([]int, len(detections))
	floats.Argsort(scores, order)

	kept := make([]Detection, 0, len(detections))
	suppressed := make([]bool, len(detections))
	iterations := 0

	// Argsort is ascending, walk it back to front
	for i := len(order) - 1; i >= 0; i-- {
		if suppressed[order[i]] {
			continue
		}

		best := detections[order[i]]
		kept = append(kept, best)

		for j := i - 1; j >= 0; j-- {
			iterations++

			if iterations > nmsMaxIterations {
				return kept
			}

			if suppressed[order[j]] {
				continue
			}

			if iou(best, detections[order[j]]) >= iouThreshold {
				suppressed[order[j]] = true
			}
		}
	}

	return kept
}

// iou returns the intersection over union of two boxes
func iou(a, b Detection) float32 {

	maxLeft := max32(a.Left, b.Left)
	maxTop := max32(a.Top, b.Top)
	minRight := min32(a.Right, b.Right)
	minBottom := min32(a.Bottom, b.Bottom)

	w := max32(0, minRight-maxLeft)
	h := max32(0, minBottom-maxTop)

	intersection := w * h
	union := a.Area() + b.Area() - intersection

	return intersection / union
}

func sortedClasses(byClass map[int][]Detection) []int {

	classes := make([]int, 0, len(byClass))

	for class := range byClass {
		classes = append(classes, class)
	}

	// deterministic output order
	sort.Ints(classes)

	return classes
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
