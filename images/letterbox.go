package images

import "github.com/chewxy/math32"

// Letterbox describes the aspect-preserving resize and centred padding that maps
// an original frame onto the model input canvas.
type Letterbox struct {
	// Scale is the uniform resize factor applied to the original frame.
	Scale float32
	// PadX is the horizontal padding added on each side of the resized frame.
	PadX float32
	// PadY is the vertical padding added on each side of the resized frame.
	PadY float32
}

// NewLetterbox computes the letterbox transform for an image of
// imageWidth x imageHeight placed on a modelWidth x modelHeight canvas.
//
// All dimensions must be positive; zero or negative values are a caller error
// and are not checked here.
//
// Arguments:
//   - imageWidth, imageHeight: The original frame dimensions.
//   - modelWidth, modelHeight: The model input dimensions.
//
// Returns:
//   - Letterbox: The scale and padding offsets.
//
// @example
// lb := NewLetterbox(1280, 720, 640, 640) // Scale=0.5, PadX=0, PadY=140
func NewLetterbox(imageWidth, imageHeight, modelWidth, modelHeight int) Letterbox {
	iw, ih := float32(imageWidth), float32(imageHeight)
	mw, mh := float32(modelWidth), float32(modelHeight)

	xGain := mw / iw
	yGain := mh / ih
	scale := math32.Min(xGain, yGain)

	return Letterbox{
		Scale: scale,
		PadX:  (mw - iw*scale) / 2,
		PadY:  (mh - ih*scale) / 2,
	}
}

// Unmap converts a point in model-input space back to original image space.
func (l Letterbox) Unmap(x, y float32) (float32, float32) {
	return (x - l.PadX) / l.Scale, (y - l.PadY) / l.Scale
}

// Map converts a point in original image space to model-input space.
func (l Letterbox) Map(x, y float32) (float32, float32) {
	return x*l.Scale + l.PadX, y*l.Scale + l.PadY
}

// UnmapRect applies Unmap to both corners of r.
func (l Letterbox) UnmapRect(r Rect) Rect {
	x1, y1 := l.Unmap(r.X1, r.Y1)
	x2, y2 := l.Unmap(r.X2, r.Y2)
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// ResizedSize returns the integer dimensions of the frame once scaled onto the
// canvas, rounded to the nearest pixel.
func (l Letterbox) ResizedSize(imageWidth, imageHeight int) (int, int) {
	w := int(math32.Round(float32(imageWidth) * l.Scale))
	h := int(math32.Round(float32(imageHeight) * l.Scale))
	return max(w, 1), max(h, 1)
}
