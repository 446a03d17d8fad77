// Package postprocess - Postprocessing utilities for models.
package postprocess

import (
	"fmt"

	"github.com/nvr-ai/go-yolov8/images"
)

// Result represents a single detection result.
type Result struct {
	// The bounding box of the result in original image pixels.
	Box images.Rect
	// The confidence score of the result.
	Score float32
	// The predicted class index of the result.
	Class int
	// The label of the predicted class.
	Label string
}

func (r Result) String() string {
	return fmt.Sprintf("Object %s (confidence %f): %s", r.Label, r.Score, r.Box)
}
