package inference

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-yolov8/inference/providers"
	"github.com/nvr-ai/go-yolov8/models/yolov8"
)

// Engine pairs a Predictor with the ONNX Runtime session it owns.
type Engine struct {
	*Predictor
	session *providers.Session
}

// Close releases the underlying session.
func (e *Engine) Close() error {
	return e.session.Close()
}

// EngineBuilder assembles an Engine with a fluent API.
type EngineBuilder struct {
	config  *Config
	threads int
	log     *logrus.Logger
	err     error
}

// NewEngineBuilder creates a new engine builder.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func NewEngineBuilder() *EngineBuilder {
	return &EngineBuilder{log: logrus.StandardLogger()}
}

// WithConfig sets the predictor configuration. The label table is resolved
// here because it sizes the session output.
//
// Arguments:
//   - cfg: The predictor configuration.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func (b *EngineBuilder) WithConfig(cfg Config) *EngineBuilder {
	if b.HasError() {
		return b
	}
	if err := cfg.ResolveLabels(); err != nil {
		b.err = err
		return b
	}
	if err := cfg.Validate(); err != nil {
		b.err = err
		return b
	}
	b.config = &cfg
	return b
}

// WithThreads sets the ONNX Runtime intra-op thread count; 0 keeps the runtime default.
func (b *EngineBuilder) WithThreads(n int) *EngineBuilder {
	if b.HasError() {
		return b
	}
	if n < 0 {
		b.err = violation("threads", "must not be negative, got %d", n)
		return b
	}
	b.threads = n
	return b
}

// WithLogger sets the logger shared by the session and the predictor.
func (b *EngineBuilder) WithLogger(log *logrus.Logger) *EngineBuilder {
	if log != nil {
		b.log = log
	}
	return b
}

// HasError checks if the engine builder has errors.
//
// Returns:
//   - bool: True if there are errors, false otherwise.
func (b *EngineBuilder) HasError() bool {
	return b.err != nil
}

// Build opens the session and builds the predictor around it.
//
// Returns:
//   - *Engine: The engine. Callers must Close it.
//   - error: The first error recorded by the builder, or a session error.
func (b *EngineBuilder) Build() (*Engine, error) {
	if b.HasError() {
		return nil, b.err
	}
	if b.config == nil {
		return nil, errors.New("config not set")
	}
	cfg := *b.config

	args, err := b.sessionArgs(cfg)
	if err != nil {
		return nil, err
	}

	session, err := providers.NewSession(args)
	if err != nil {
		return nil, errors.Wrap(err, "creating session")
	}

	predictor, err := NewPredictor(cfg, session, WithLogger(b.log))
	if err != nil {
		session.Close()
		return nil, err
	}

	return &Engine{Predictor: predictor, session: session}, nil
}

// sessionArgs sizes the session from cfg and takes the node names from the
// model description the predictor will use.
func (b *EngineBuilder) sessionArgs(cfg Config) (providers.NewSessionArgs, error) {
	m, err := newModel(cfg)
	if err != nil {
		return providers.NewSessionArgs{}, err
	}
	opts := m.Options()

	return providers.NewSessionArgs{
		ModelPath:  opts.Path,
		InputName:  opts.Input,
		OutputName: opts.Output,
		InputShape: []int64{1, 3, int64(cfg.InputHeight), int64(cfg.InputWidth)},
		OutputShape: []int64{
			1,
			int64(4 + len(cfg.Labels)),
			int64(yolov8.AnchorCount(cfg.InputWidth, cfg.InputHeight)),
		},
		IntraOpThreads: b.threads,
		Logger:         b.log,
	}, nil
}

// MustBuild builds the engine and panics if there is an error.
func (b *EngineBuilder) MustBuild() *Engine {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return e
}

