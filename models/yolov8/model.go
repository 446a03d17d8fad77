// Package yolov8 - YOLOv8 model.
package yolov8

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-yolov8/images"
	"github.com/nvr-ai/go-yolov8/models/model"
	"github.com/nvr-ai/go-yolov8/models/postprocess"
)

const (
	// DefaultInputName is the input node name exported by ultralytics.
	DefaultInputName = "images"
	// DefaultOutputName is the output node name exported by ultralytics.
	DefaultOutputName = "output0"
	// DefaultIoUThreshold is used when NewModelArgs carries no NMS configuration.
	DefaultIoUThreshold = 0.45
)

// YOLOv8 is the instance of the YOLOv8 model.
type YOLOv8 struct {
	options model.BaseModel
}

// NewModel creates a new model.
//
// Arguments:
//   - args: The arguments for creating a new model.
//
// Returns:
//   - The model.
//   - error: If the model path is missing or the NMS threshold is out of range.
func NewModel(args model.NewModelArgs) (*YOLOv8, error) {
	if args.Path == "" {
		return nil, errors.New("NewModel requires path to be set")
	}

	nms := args.NMS
	if nms == nil {
		nms = &postprocess.NMSConfig{IoUThreshold: DefaultIoUThreshold, NumWorkers: 1}
	}
	if nms.IoUThreshold <= 0 || nms.IoUThreshold > 1 {
		return nil, errors.Errorf("NewModel requires an IoU threshold in (0, 1], got %f", nms.IoUThreshold)
	}

	input, output := args.Input, args.Output
	if input == "" {
		input = DefaultInputName
	}
	if output == "" {
		output = DefaultOutputName
	}

	return &YOLOv8{
		options: model.BaseModel{
			Name:   model.ModelNameYOLOv8,
			Family: model.ModelFamilyYOLO,
			Path:   args.Path,
			Input:  input,
			Output: output,
			NMS:    nms,
		},
	}, nil
}

// Options returns the options for the YOLOv8 model.
func (m *YOLOv8) Options() model.BaseModel {
	return m.options
}

// PostProcess decodes the raw output and suppresses duplicate detections.
//
// Arguments:
//   - output: The raw model output.
//   - lb: The letterbox applied before inference.
//   - args: The decoding parameters.
//
// Returns:
//   - A slice of postprocessed results.
func (m *YOLOv8) PostProcess(output *model.Tensor, lb images.Letterbox, args DecodeArgs) []postprocess.Result {
	return postprocess.ApplyNMS(Decode(output, lb, args), m.options.NMS)
}

// AnchorCount returns the number of anchors a YOLOv8 head emits for a
// width x height input, one per cell of the stride 8, 16 and 32 grids.
func AnchorCount(width, height int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		n += (width / stride) * (height / stride)
	}
	return n
}
