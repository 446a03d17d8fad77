package images

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/nfnt/resize"
)

// LetterboxFill is the grey used by YOLO-family models for canvas padding.
var LetterboxFill = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// LetterboxImage resizes img to fit a width x height canvas without changing its
// aspect ratio, centring it on a canvas filled with fill.
//
// Arguments:
//   - img: The source image.
//   - width: The canvas width.
//   - height: The canvas height.
//   - fill: The padding colour. Nil falls back to LetterboxFill.
//
// Returns:
//   - *image.RGBA: The letterboxed canvas.
//   - Letterbox: The transform that maps original pixels onto the canvas.
//
// @example
// canvas, lb := LetterboxImage(frame, 640, 640, nil)
func LetterboxImage(img image.Image, width, height int, fill color.Color) (*image.RGBA, Letterbox) {
	if fill == nil {
		fill = LetterboxFill
	}

	bounds := img.Bounds()
	lb := NewLetterbox(bounds.Dx(), bounds.Dy(), width, height)
	newWidth, newHeight := lb.ResizedSize(bounds.Dx(), bounds.Dy())

	resized := resize.Resize(uint(newWidth), uint(newHeight), img, resize.Bilinear)

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)

	// Integer placement of the resized frame; Letterbox keeps the exact padding.
	left := (width - newWidth) / 2
	top := (height - newHeight) / 2
	draw.Draw(canvas, image.Rect(left, top, left+newWidth, top+newHeight),
		resized, resized.Bounds().Min, draw.Src)

	return canvas, lb
}
