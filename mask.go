package detlite

import (
	clipper "github.com/ctessum/go.clipper"
)

// maskScale converts normalized [0, 1] coordinates to the integer grid the
// polygon clipping library works on.
const maskScale = 1000000

// Point is one polygon vertex in normalized [0, 1] coordinates.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Mask is a polygon over the frame in which detections are ignored.
// Detections whose center falls inside the polygon are dropped.
type Mask struct {
	Enable bool    `json:"enable"`
	Area   []Point `json:"area"`
}

// Contains reports whether the normalized point (x, y) lies inside the mask
// polygon.  Points on the boundary count as inside.
func (m Mask) Contains(x, y float32) bool {

	if len(m.Area) < 3 {
		return false
	}

	path := make(clipper.Path, 0, len(m.Area))

	for _, pt := range m.Area {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(pt.X * maskScale),
			Y: clipper.CInt(pt.Y * maskScale),
		})
	}

	pt := &clipper.IntPoint{
		X: clipper.CInt(x * maskScale),
		Y: clipper.CInt(y * maskScale),
	}

	return clipper.PointInPolygon(pt, path) != 0
}
