// Package providers - Inference sessions.
package providers

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-yolov8/models/model"
)

var envMu sync.Mutex

// Session is a CPU ONNX Runtime session with preallocated input and output
// tensors. It implements inference.Inferer.
//
// The bound tensors are shared between calls, so Infer is serialised.
type Session struct {
	mu          sync.Mutex
	session     *ort.AdvancedSession
	input       *ort.Tensor[float32]
	output      *ort.Tensor[float32]
	inputShape  []int64
	outputShape []int64
}

// NewSessionArgs represents the arguments for creating a new session.
type NewSessionArgs struct {
	// The path to the ONNX model file.
	ModelPath string
	// InputName and OutputName are the model graph node names.
	InputName  string
	OutputName string
	// InputShape is [1, 3, H, W].
	InputShape []int64
	// OutputShape is [1, 4+classes, anchors].
	OutputShape []int64
	// IntraOpThreads and InterOpThreads size the ORT thread pools; 0 uses the ORT default.
	IntraOpThreads int
	InterOpThreads int
	// Logger receives session lifecycle messages. Nil uses the logrus standard logger.
	Logger *logrus.Logger
}

// initEnvironment loads the shared library once per process.
func initEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}

	libPath, err := GetSharedLibPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(libPath); err != nil {
		return errors.Wrapf(err, "ONNX Runtime library not found at %s", libPath)
	}

	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "error initializing ORT environment")
	}
	return nil
}

// NewSession creates a new ONNX Runtime session.
//
// Order of operations:
//  1. Environment setup: loads the native library once per process.
//  2. Tensor allocation: fixed-shape buffers for input and output.
//  3. Session options: threading and graph optimisation.
//  4. Session creation: loads the model and binds the tensors.
//
// Arguments:
//   - args: The arguments for the session.
//
// Returns:
//   - *Session: The session. Callers must Close it.
//   - error: An error if the session creation fails.
func NewSession(args NewSessionArgs) (*Session, error) {
	if len(args.InputShape) != 4 {
		return nil, fmt.Errorf("input shape must be [1, 3, H, W], got %v", args.InputShape)
	}
	if len(args.OutputShape) != 3 {
		return nil, fmt.Errorf("output shape must be [1, 4+classes, anchors], got %v", args.OutputShape)
	}

	log := args.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	if err := initEnvironment(); err != nil {
		return nil, err
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(args.InputShape...))
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(args.OutputShape...))
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(err, "error creating output tensor")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "error creating ORT session options")
	}
	defer options.Destroy()

	if err := options.SetIntraOpNumThreads(args.IntraOpThreads); err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "error setting intra-op threads")
	}
	if err := options.SetInterOpNumThreads(args.InterOpThreads); err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "error setting inter-op threads")
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "error setting graph optimization level")
	}

	session, err := ort.NewAdvancedSession(
		args.ModelPath,
		[]string{args.InputName},
		[]string{args.OutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "error creating ORT session")
	}

	log.WithFields(logrus.Fields{
		"model":  args.ModelPath,
		"input":  args.InputShape,
		"output": args.OutputShape,
	}).Info("onnx session created")

	return &Session{
		session:     session,
		input:       input,
		output:      output,
		inputShape:  append([]int64(nil), args.InputShape...),
		outputShape: append([]int64(nil), args.OutputShape...),
	}, nil
}

// Infer copies input into the bound input tensor, runs the model and returns a
// view over a copy of the output.
//
// Arguments:
//   - ctx: Checked before the run starts; a run in progress is not interrupted.
//   - input: The preprocessed CHW frame.
//   - shape: The input shape; must match the session input shape.
//
// Returns:
//   - *model.Tensor: The raw output.
//   - error: If the shapes disagree or the run fails.
func (s *Session) Infer(ctx context.Context, input []float32, shape []int64) (*model.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !slices.Equal(shape, s.inputShape) {
		return nil, fmt.Errorf("input shape %v does not match session input %v", shape, s.inputShape)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, errors.New("session is closed")
	}

	dst := s.input.GetData()
	if len(input) != len(dst) {
		return nil, fmt.Errorf("input holds %d values, session expects %d", len(input), len(dst))
	}
	copy(dst, input)

	if err := s.session.Run(); err != nil {
		return nil, errors.Wrap(err, "failed to run inference")
	}

	return denseOutput(append([]float32(nil), s.output.GetData()...), s.outputShape)
}

// denseOutput wraps a copied output buffer as a gorgonia dense tensor and
// adapts it to the decoder view.
func denseOutput(data []float32, shape []int64) (*model.Tensor, error) {
	if len(shape) != 3 {
		return nil, fmt.Errorf("expected a rank 3 output shape, got %v", shape)
	}
	dims := make([]int, len(shape))
	for i, d := range shape {
		dims[i] = int(d)
	}
	if len(data) != dims[0]*dims[1]*dims[2] {
		return nil, fmt.Errorf("output holds %d values, shape %v needs %d", len(data), shape, dims[0]*dims[1]*dims[2])
	}

	dense := tensor.New(tensor.WithShape(dims...), tensor.WithBacking(data))
	return model.TensorFromDense(dense)
}

// Close releases the resources associated with the Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if s.session != nil {
		if err := s.session.Destroy(); err != nil {
			firstErr = errors.Wrap(err, "error destroying ORT session")
		}
		s.session = nil
	}
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	return firstErr
}
