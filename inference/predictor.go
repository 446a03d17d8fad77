// Package inference - YOLOv8 prediction around an external inference backend.
package inference

import (
	"context"
	"image"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-yolov8/images"
	"github.com/nvr-ai/go-yolov8/models"
	"github.com/nvr-ai/go-yolov8/models/model"
	"github.com/nvr-ai/go-yolov8/models/model/preprocess"
	"github.com/nvr-ai/go-yolov8/models/postprocess"
	"github.com/nvr-ai/go-yolov8/models/yolov8"
)

// Inferer runs the detection network on a preprocessed input tensor and
// returns its raw [batch, 4+classes, anchors] output.
type Inferer interface {
	Infer(ctx context.Context, input []float32, shape []int64) (*model.Tensor, error)
}

// Box is a detection rectangle in original image pixels.
type Box struct {
	X, Y, Width, Height float32
}

// Detection is a labeled, scored box returned by Predict.
type Detection struct {
	Label string
	Score float32
	Box   Box
}

// Option customises a Predictor.
type Option func(*Predictor)

// WithLogger sets the logger used for per-call debug output.
func WithLogger(log *logrus.Logger) Option {
	return func(p *Predictor) {
		p.log = log
	}
}

// Predictor decodes and suppresses YOLOv8 outputs for single frames.
//
// A Predictor holds only immutable configuration, so Predict may be called
// concurrently whenever the Inferer allows it.
type Predictor struct {
	config       Config
	inferer      Inferer
	model        *yolov8.YOLOv8
	preprocessor *preprocess.Preprocessor
	log          *logrus.Logger
}

// NewPredictor validates cfg and builds a Predictor around inferer.
//
// Arguments:
//   - cfg: The predictor configuration.
//   - inferer: The inference backend.
//   - opts: Optional settings.
//
// Returns:
//   - *Predictor: The predictor.
//   - error: A *ConfigurationViolation when cfg or inferer is invalid.
func NewPredictor(cfg Config, inferer Inferer, opts ...Option) (*Predictor, error) {
	if inferer == nil {
		return nil, violation("inferer", "must not be nil")
	}
	if err := cfg.ResolveLabels(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clamp == "" {
		cfg.Clamp = yolov8.ClampCompat
	}
	cfg.Labels = append([]string(nil), cfg.Labels...)

	m, err := newModel(cfg)
	if err != nil {
		return nil, err
	}

	p := &Predictor{
		config:  cfg,
		inferer: inferer,
		model:   m,
		preprocessor: preprocess.NewPreprocessor(&preprocess.ModelConfig{
			Name:        string(model.ModelNameYOLOv8),
			InputWidth:  cfg.InputWidth,
			InputHeight: cfg.InputHeight,
		}),
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// newModel describes the YOLOv8 head cfg targets.
func newModel(cfg Config) (*yolov8.YOLOv8, error) {
	m, err := models.NewModel(model.NewModelArgs{
		Name:   model.ModelNameYOLOv8,
		Path:   cfg.ModelPath,
		Input:  cfg.InputName,
		Output: cfg.OutputName,
		NMS: &postprocess.NMSConfig{
			IoUThreshold: cfg.IoUThreshold,
			NumWorkers:   cfg.NMSWorkers,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating model")
	}
	return m, nil
}

// Config returns a copy of the predictor configuration.
func (p *Predictor) Config() Config {
	c := p.config
	c.Labels = append([]string(nil), p.config.Labels...)
	return c
}

// Model returns the model description used for postprocessing.
func (p *Predictor) Model() *yolov8.YOLOv8 {
	return p.model
}

// Predict letterboxes img, runs inference and returns the suppressed detections
// in original image coordinates.
//
// Cancellation is only observed before inference starts.
//
// Arguments:
//   - ctx: The context for the prediction.
//   - img: The decoded frame.
//
// Returns:
//   - []Detection: Detections in label-then-selection order.
//   - error: *InferenceFailure when the backend fails, *ConfigurationViolation when
//     the label table does not cover the model output.
func (p *Predictor) Predict(ctx context.Context, img image.Image) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	input, err := p.preprocessor.Preprocess(img)
	if err != nil {
		return nil, errors.Wrap(err, "preprocessing frame")
	}

	output, err := p.inferer.Infer(ctx, input.Data, input.Shape)
	if err != nil {
		return nil, &InferenceFailure{Err: err}
	}

	detections, err := p.PredictTensor(output, input.OriginalWidth, input.OriginalHeight)
	if err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"width":      input.OriginalWidth,
		"height":     input.OriginalHeight,
		"detections": len(detections),
		"elapsed":    time.Since(start),
	}).Debug("prediction complete")

	return detections, nil
}

// PredictTensor decodes and suppresses an output the caller already computed
// for a frame of imageWidth x imageHeight.
func (p *Predictor) PredictTensor(output *model.Tensor, imageWidth, imageHeight int) ([]Detection, error) {
	if output == nil {
		return nil, &InferenceFailure{Err: errors.New("inference returned no output")}
	}
	if imageWidth <= 0 || imageHeight <= 0 {
		return nil, violation("image", "dimensions must be positive, got %dx%d", imageWidth, imageHeight)
	}
	if n := output.NumClasses(); len(p.config.Labels) < n {
		return nil, violation("labels", "model outputs %d classes but only %d labels are configured",
			n, len(p.config.Labels))
	}

	lb := images.NewLetterbox(imageWidth, imageHeight, p.config.InputWidth, p.config.InputHeight)
	args := yolov8.DecodeArgs{
		Labels:              p.config.Labels,
		ConfidenceThreshold: p.config.ConfidenceThreshold,
		ImageWidth:          imageWidth,
		ImageHeight:         imageHeight,
		Clamp:               p.config.Clamp,
	}

	results := p.model.PostProcess(output, lb, args)

	p.log.WithFields(logrus.Fields{
		"anchors": output.Anchors(),
		"classes": output.NumClasses(),
		"kept":    len(results),
	}).Trace("decoded output")

	detections := make([]Detection, len(results))
	for i, r := range results {
		detections[i] = Detection{
			Label: r.Label,
			Score: r.Score,
			Box: Box{
				X:      r.Box.X1,
				Y:      r.Box.Y1,
				Width:  r.Box.Width(),
				Height: r.Box.Height(),
			},
		}
	}

	return detections, nil
}
