package inference

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-yolov8/inference/providers"
	"github.com/nvr-ai/go-yolov8/models/yolov8"
)

func TestEngineBuilderErrors(t *testing.T) {
	t.Run("config not set", func(t *testing.T) {
		_, err := NewEngineBuilder().Build()
		assert.EqualError(t, err, "config not set")
	})

	t.Run("invalid config stops the chain", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.IoUThreshold = 0

		b := NewEngineBuilder().WithConfig(cfg).WithThreads(2)
		require.True(t, b.HasError())

		_, err := b.Build()
		var violation *ConfigurationViolation
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, "iou_threshold", violation.Field)
	})

	t.Run("negative threads", func(t *testing.T) {
		_, err := NewEngineBuilder().WithConfig(DefaultConfig()).WithThreads(-1).Build()
		var violation *ConfigurationViolation
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, "threads", violation.Field)
	})

	t.Run("missing runtime library", func(t *testing.T) {
		t.Setenv(providers.SharedLibEnv, filepath.Join(t.TempDir(), "libonnxruntime.so"))

		_, err := NewEngineBuilder().WithConfig(DefaultConfig()).WithLogger(quietLogger()).Build()
		assert.ErrorContains(t, err, "creating session")
	})

	t.Run("must build panics", func(t *testing.T) {
		assert.Panics(t, func() { NewEngineBuilder().MustBuild() })
	})
}

func TestEngineSessionArgs(t *testing.T) {
	cfg := testConfig()
	cfg.InputWidth, cfg.InputHeight = 640, 480

	b := NewEngineBuilder().WithConfig(cfg).WithThreads(3)
	require.False(t, b.HasError())

	args, err := b.sessionArgs(*b.config)
	require.NoError(t, err)
	assert.Equal(t, cfg.ModelPath, args.ModelPath)
	assert.Equal(t, yolov8.DefaultInputName, args.InputName)
	assert.Equal(t, yolov8.DefaultOutputName, args.OutputName)
	assert.Equal(t, []int64{1, 3, 480, 640}, args.InputShape)
	assert.Equal(t, []int64{1, 6, 6300}, args.OutputShape)
	assert.Equal(t, 3, args.IntraOpThreads)

	cfg.InputName, cfg.OutputName = "input", "detections"
	b = NewEngineBuilder().WithConfig(cfg)
	args, err = b.sessionArgs(*b.config)
	require.NoError(t, err)
	assert.Equal(t, "input", args.InputName)
	assert.Equal(t, "detections", args.OutputName)

	p, err := NewPredictor(cfg, &fakeInferer{}, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, args.InputName, p.Model().Options().Input, "session and predictor share the node names")
	assert.Equal(t, args.OutputName, p.Model().Options().Output)
}
