package preprocess

import (
	"fmt"
	"image"
	"image/color"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-yolov8/images"
)

// ModelConfig defines preprocessing configuration for a specific model.
type ModelConfig struct {
	// Name of the model for debugging purposes.
	Name string
	// InputWidth is the expected width of the model input.
	InputWidth int
	// InputHeight is the expected height of the model input.
	InputHeight int
	// LetterboxColor is the color used for letterbox padding (default YOLO grey).
	LetterboxColor color.Color
}

// PreprocessingResult contains the preprocessed image data and metadata.
type PreprocessingResult struct {
	// Data is the [1, 3, H, W] float32 tensor data scaled to [0, 1].
	Data []float32
	// Shape is the tensor shape [1, 3, H, W].
	Shape []int64
	// OriginalWidth is the original image width before preprocessing.
	OriginalWidth int
	// OriginalHeight is the original image height before preprocessing.
	OriginalHeight int
	// Letterbox is the scale and padding applied to fit the model input.
	Letterbox images.Letterbox
}

// Preprocessor converts frames into model input tensors.
type Preprocessor struct {
	config *ModelConfig
}

// NewPreprocessor creates a new preprocessor from a copy of config.
//
// @example
//
//	preprocessor := NewPreprocessor(GetYOLOv8Config(640))
func NewPreprocessor(config *ModelConfig) *Preprocessor {
	c := *config
	if c.LetterboxColor == nil {
		c.LetterboxColor = images.LetterboxFill
	}
	return &Preprocessor{config: &c}
}

// Preprocess letterboxes img onto the model canvas and converts it to a
// normalised RGB CHW tensor.
//
// Arguments:
// - img: The decoded frame.
//
// Returns:
// - PreprocessingResult containing the tensor and the letterbox transform.
// - error if the frame is empty or the configuration is invalid.
func (p *Preprocessor) Preprocess(img image.Image) (*PreprocessingResult, error) {
	if err := p.validateInput(img); err != nil {
		return nil, errors.Wrap(err, "input validation failed")
	}

	bounds := img.Bounds()
	canvas, lb := images.LetterboxImage(img, p.config.InputWidth, p.config.InputHeight, p.config.LetterboxColor)

	return &PreprocessingResult{
		Data:           p.imageToTensor(canvas),
		Shape:          []int64{1, 3, int64(p.config.InputHeight), int64(p.config.InputWidth)},
		OriginalWidth:  bounds.Dx(),
		OriginalHeight: bounds.Dy(),
		Letterbox:      lb,
	}, nil
}

func (p *Preprocessor) validateInput(img image.Image) error {
	if img == nil {
		return errors.New("image is nil")
	}
	if p.config.InputWidth <= 0 || p.config.InputHeight <= 0 {
		return fmt.Errorf("invalid model input dimensions: %dx%d", p.config.InputWidth, p.config.InputHeight)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("invalid image dimensions: %dx%d", b.Dx(), b.Dy())
	}
	return nil
}

// imageToTensor writes the canvas into planar R, G, B channels scaled to [0, 1].
func (p *Preprocessor) imageToTensor(img *image.RGBA) []float32 {
	width := p.config.InputWidth
	height := p.config.InputHeight
	plane := width * height
	tensor := make([]float32, 3*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := img.RGBAAt(x, y)
			i := y*width + x
			tensor[i] = float32(c.R) / 255.0
			tensor[plane+i] = float32(c.G) / 255.0
			tensor[2*plane+i] = float32(c.B) / 255.0
		}
	}

	return tensor
}

// GetYOLOv8Config returns a standard configuration for YOLOv8 models.
//
// @example
// config := GetYOLOv8Config(640)
func GetYOLOv8Config(inputSize int) *ModelConfig {
	return &ModelConfig{
		Name:           "yolov8",
		InputWidth:     inputSize,
		InputHeight:    inputSize,
		LetterboxColor: images.LetterboxFill,
	}
}
