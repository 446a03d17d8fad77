// Package models - registry for models.
package models

import (
	"fmt"

	"github.com/nvr-ai/go-yolov8/models/model"
	"github.com/nvr-ai/go-yolov8/models/yolov8"
)

// NewModel creates a new detection model instance based on the specified model name.
// An empty name selects YOLOv8.
//
// Arguments:
//   - args: Configuration parameters specifying the model type and location.
//
// Returns:
//   - *yolov8.YOLOv8: A configured model instance.
//   - error: An error if the model name is unsupported or validation fails.
//
// Example:
//
// ```go
//
//	m, err := NewModel(model.NewModelArgs{
//	    Name: model.ModelNameYOLOv8,
//	    Path: "/models/yolov8n.onnx",
//	})
//
// ```
func NewModel(args model.NewModelArgs) (*yolov8.YOLOv8, error) {
	switch args.Name {
	case model.ModelNameYOLOv8, "":
		return yolov8.NewModel(args)
	default:
		return nil, fmt.Errorf("unsupported model name: %s", args.Name)
	}
}
