// Package images - Geometry helpers for detection boxes and letterboxed frames.
package images

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Rect is a lightweight corner-form bounding box in pixel space.
type Rect struct {
	X1, Y1, X2, Y2 float32
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float32 {
	return r.X2 - r.X1
}

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float32 {
	return r.Y2 - r.Y1
}

// Area returns Width*Height, or zero for a degenerate rectangle.
func (r Rect) Area() float32 {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.2f, %.2f), (%.2f, %.2f)", r.X1, r.Y1, r.X2, r.Y2)
}

// CalculateIoU measures how much two rectangles overlap.
//
// It is formally defined by the formula:
//
//	IoU = Area of Intersection / Area of Union
//
//	- A value of 1.0 means the rectangles are identical.
//	- A value of 0.0 means the rectangles don't overlap at all.
//
// The intersection corners are the maximum of the two top-left corners and the
// minimum of the two bottom-right corners. When the resulting width or height
// is zero or negative the rectangles are disjoint and 0 is returned before any
// division happens. The union uses inclusion-exclusion:
//
//	Area(Union) = Area(A) + Area(B) - Area(Intersection)
//
// Arguments:
//   - r: The first rectangle.
//   - o: The other rectangle to compare against.
//
// Returns:
//   - float32: A value between 0.0 and 1.0 representing the IoU score.
//
// Example Usage:
// ```go
//
//	rect1 := Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}
//	rect2 := Rect{X1: 5, Y1: 5, X2: 15, Y2: 15}
//
//	iouScore := CalculateIoU(rect1, rect2) // 25 / (100 + 100 - 25) = 0.142857
//
// ```
func CalculateIoU(r, o Rect) float32 {
	ix1 := math32.Max(r.X1, o.X1)
	iy1 := math32.Max(r.Y1, o.Y1)
	ix2 := math32.Min(r.X2, o.X2)
	iy2 := math32.Min(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	unionArea := r.Area() + o.Area() - interArea
	if unionArea <= 0 {
		return 0.0
	}

	return interArea / unionArea
}
