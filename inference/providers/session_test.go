package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSharedLibPathEnvOverride(t *testing.T) {
	t.Setenv(SharedLibEnv, "/opt/onnxruntime/lib/libonnxruntime.so")

	path, err := GetSharedLibPath()
	require.NoError(t, err)
	assert.Equal(t, "/opt/onnxruntime/lib/libonnxruntime.so", path)
}

func TestNewSessionRejectsBadShapes(t *testing.T) {
	_, err := NewSession(NewSessionArgs{
		ModelPath:   "yolov8n.onnx",
		InputShape:  []int64{3, 640, 640},
		OutputShape: []int64{1, 84, 8400},
	})
	assert.Error(t, err)

	_, err = NewSession(NewSessionArgs{
		ModelPath:   "yolov8n.onnx",
		InputShape:  []int64{1, 3, 640, 640},
		OutputShape: []int64{84, 8400},
	})
	assert.Error(t, err)
}

func TestNewSessionMissingLibrary(t *testing.T) {
	t.Setenv(SharedLibEnv, "/nonexistent/libonnxruntime.so")

	_, err := NewSession(NewSessionArgs{
		ModelPath:   "yolov8n.onnx",
		InputName:   "images",
		OutputName:  "output0",
		InputShape:  []int64{1, 3, 640, 640},
		OutputShape: []int64{1, 84, 8400},
	})
	assert.Error(t, err)
}

func TestInferOnClosedSession(t *testing.T) {
	s := &Session{inputShape: []int64{1, 3, 2, 2}}
	require.NoError(t, s.Close())

	_, err := s.Infer(context.Background(), make([]float32, 12), []int64{1, 3, 2, 2})
	assert.Error(t, err)

	_, err = s.Infer(context.Background(), make([]float32, 12), []int64{1, 3, 4, 4})
	assert.Error(t, err, "shape mismatch is reported before the run")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Infer(ctx, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDenseOutput(t *testing.T) {
	data := make([]float32, 2*5*3)
	for i := range data {
		data[i] = float32(i)
	}

	out, err := denseOutput(data, []int64{2, 5, 3})
	require.NoError(t, err)
	assert.Equal(t, [3]int{2, 5, 3}, out.Shape())
	assert.Equal(t, 1, out.NumClasses())
	assert.Equal(t, float32(1*15+4*3+2), out.At(1, 4, 2))

	_, err = denseOutput(data, []int64{2, 15})
	assert.Error(t, err)

	_, err = denseOutput(data[:10], []int64{2, 5, 3})
	assert.Error(t, err, "a short buffer is rejected before it reaches the dense tensor")
}
