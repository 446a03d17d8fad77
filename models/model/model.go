// Package model - Shared model definitions and the raw output tensor view.
package model

import "github.com/nvr-ai/go-yolov8/models/postprocess"

// Family is the family of models.
type Family string

const (
	// ModelFamilyYOLO is the YOLO model family.
	ModelFamilyYOLO Family = "yolo"
)

// Name is the unique identifier of a model.
type Name string

const (
	// ModelNameYOLOv8 is the name of the anchor-free YOLOv8 detector head.
	ModelNameYOLOv8 Name = "yolov8"
)

// NewModelArgs is the arguments for creating a new model.
type NewModelArgs struct {
	Name   Name                   `json:"name" yaml:"name"`
	Path   string                 `json:"path" yaml:"path"`
	NMS    *postprocess.NMSConfig `json:"nms" yaml:"nms"`
	Family Family                 `json:"family" yaml:"family"`
	// Input is the model input tensor name.
	Input string `json:"input" yaml:"input"`
	// Output is the model output tensor name.
	Output string `json:"output" yaml:"output"`
}

// BaseModel is the base model for all models.
type BaseModel struct {
	Name   Name
	Family Family
	Path   string
	Input  string
	Output string
	NMS    *postprocess.NMSConfig
}
