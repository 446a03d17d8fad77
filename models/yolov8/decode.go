// Package yolov8 - decode YOLOv8 detection head outputs.
package yolov8

import (
	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-yolov8/images"
	"github.com/nvr-ai/go-yolov8/models/model"
	"github.com/nvr-ai/go-yolov8/models/postprocess"
)

// ClampMode selects the bounds used to clip decoded boxes to the image.
type ClampMode string

const (
	// ClampCompat clips the top-left corner to [0, W]x[0, H] and the bottom-right
	// corner to [0, W-1]x[0, H-1].
	ClampCompat ClampMode = "compat"
	// ClampSymmetric clips both corners to [0, W-1]x[0, H-1].
	//
	// Decode also pulls the top-left corner onto the bottom-right one when it
	// lies past it, so both modes currently emit the same boxes.
	ClampSymmetric ClampMode = "symmetric"
)

// DecodeArgs carries the per-call decoding parameters.
type DecodeArgs struct {
	// Labels maps class index to label. Must hold at least NumClasses entries.
	Labels []string
	// ConfidenceThreshold is the minimum class score that emits a detection.
	ConfidenceThreshold float32
	// ImageWidth and ImageHeight are the original frame dimensions.
	ImageWidth  int
	ImageHeight int
	// Clamp selects the clipping bounds; empty means ClampCompat.
	Clamp ClampMode
}

// Decode converts a raw [batch, 4+classes, anchors] output into detections in
// original image coordinates.
//
// Every class whose score reaches the confidence threshold emits its own
// detection, so one anchor may yield several results with different labels.
//
// Arguments:
//   - output: The raw model output.
//   - lb: The letterbox applied to the frame before inference.
//   - args: Labels, threshold, frame size and clamp mode.
//
// Returns:
//   - Candidate detections, unsuppressed, in batch/anchor/class order.
func Decode(output *model.Tensor, lb images.Letterbox, args DecodeArgs) []postprocess.Result {
	numClasses := output.NumClasses()
	anchors := output.Anchors()

	w := float32(args.ImageWidth)
	h := float32(args.ImageHeight)
	minXMax, minYMax := w, h
	if args.Clamp == ClampSymmetric {
		minXMax, minYMax = w-1, h-1
	}

	results := make([]postprocess.Result, 0, anchors)

	for b := 0; b < output.Batch(); b++ {
		for a := 0; a < anchors; a++ {
			cx := output.At(b, 0, a)
			cy := output.At(b, 1, a)
			bw := output.At(b, 2, a)
			bh := output.At(b, 3, a)

			x1, y1 := lb.Unmap(cx-bw/2, cy-bh/2)
			x2, y2 := lb.Unmap(cx+bw/2, cy+bh/2)

			rect := images.Rect{
				X1: clamp(x1, 0, minXMax),
				Y1: clamp(y1, 0, minYMax),
				X2: clamp(x2, 0, w-1),
				Y2: clamp(y2, 0, h-1),
			}
			// A box past the right or bottom edge collapses onto it instead of inverting.
			rect.X1 = math32.Min(rect.X1, rect.X2)
			rect.Y1 = math32.Min(rect.Y1, rect.Y2)

			for l := 0; l < numClasses; l++ {
				score := output.At(b, 4+l, a)
				// Written as a negation so NaN scores are dropped.
				if !(score >= args.ConfidenceThreshold) {
					continue
				}
				results = append(results, postprocess.Result{
					Box:   rect,
					Score: score,
					Class: l,
					Label: args.Labels[l],
				})
			}
		}
	}

	return results
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(v, hi))
}
