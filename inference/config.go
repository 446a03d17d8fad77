// Package inference - Predictor configuration.
package inference

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-yolov8/models"
	"github.com/nvr-ai/go-yolov8/models/yolov8"
)

// Config holds everything a Predictor needs besides the inference backend.
type Config struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string `json:"model_path" yaml:"model_path"`

	// InputName and OutputName are the graph node names; empty uses the
	// ultralytics export names.
	InputName  string `json:"input_name" yaml:"input_name"`
	OutputName string `json:"output_name" yaml:"output_name"`

	// InputWidth and InputHeight are the model input canvas dimensions.
	InputWidth  int `json:"input_width" yaml:"input_width"`
	InputHeight int `json:"input_height" yaml:"input_height"`

	// ConfidenceThreshold filters class scores below this level.
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`

	// IoUThreshold controls Non-Maximum Suppression.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`

	// Labels maps class index to label. Empty means the COCO classes.
	Labels []string `json:"labels" yaml:"labels"`

	// LabelsPath optionally names a newline-separated label file; it wins over Labels.
	LabelsPath string `json:"labels_path" yaml:"labels_path"`

	// Clamp selects how decoded boxes are clipped to the frame. Decoded boxes
	// always satisfy 0 <= x1 <= x2 <= W-1, so "compat" and "symmetric" produce
	// identical detections; the key is accepted for compatibility only.
	Clamp yolov8.ClampMode `json:"clamp" yaml:"clamp"`

	// NMSWorkers is the number of goroutines used for per-label suppression.
	NMSWorkers int `json:"nms_workers" yaml:"nms_workers"`
}

// DefaultConfig returns the configuration of a stock 640x640 COCO YOLOv8 export.
//
// @example
// config := DefaultConfig()
// config.ModelPath = "path/to/model.onnx"
func DefaultConfig() Config {
	return Config{
		ModelPath:           "yolov8n.onnx",
		InputWidth:          640,
		InputHeight:         640,
		ConfidenceThreshold: 0.25,
		IoUThreshold:        0.45,
		Labels:              append([]string(nil), models.YOLOClasses...),
		Clamp:               yolov8.ClampCompat,
		NMSWorkers:          1,
	}
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig and
// resolves the label table.
//
// Arguments:
//   - path: The YAML file.
//
// Returns:
//   - Config: The validated configuration.
//   - error: If the file cannot be read or parsed, or the result is invalid.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}

	if err := cfg.ResolveLabels(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ResolveLabels loads LabelsPath when set and falls back to the COCO classes
// when no labels are configured.
func (c *Config) ResolveLabels() error {
	if c.LabelsPath != "" {
		labels, err := models.LoadLabels(c.LabelsPath)
		if err != nil {
			return err
		}
		c.Labels = labels
	}
	if len(c.Labels) == 0 {
		c.Labels = append([]string(nil), models.YOLOClasses...)
	}
	return nil
}

// Validate checks the configuration and returns a *ConfigurationViolation for
// the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.ModelPath == "":
		return violation("model_path", "must be set")
	case c.InputWidth <= 0 || c.InputHeight <= 0:
		return violation("input_width/input_height", "must be positive, got %dx%d", c.InputWidth, c.InputHeight)
	case c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1:
		return violation("confidence_threshold", "must be in (0, 1], got %f", c.ConfidenceThreshold)
	case c.IoUThreshold <= 0 || c.IoUThreshold > 1:
		return violation("iou_threshold", "must be in (0, 1], got %f", c.IoUThreshold)
	case len(c.Labels) == 0:
		return violation("labels", "must not be empty")
	case c.Clamp != "" && c.Clamp != yolov8.ClampCompat && c.Clamp != yolov8.ClampSymmetric:
		return violation("clamp", "unknown mode %q", c.Clamp)
	case c.NMSWorkers < 0:
		return violation("nms_workers", "must not be negative, got %d", c.NMSWorkers)
	}
	return nil
}
