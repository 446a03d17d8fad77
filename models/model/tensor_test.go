package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestNewTensor(t *testing.T) {
	// batch=2, channels=5, anchors=3; value encodes its own coordinates.
	data := make([]float32, 2*5*3)
	for b := 0; b < 2; b++ {
		for c := 0; c < 5; c++ {
			for a := 0; a < 3; a++ {
				data[b*15+c*3+a] = float32(b*100 + c*10 + a)
			}
		}
	}

	view, err := NewTensor(data, 2, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, [3]int{2, 5, 3}, view.Shape())
	assert.Equal(t, 1, view.NumClasses())
	assert.Equal(t, 30, view.Len())
	assert.Equal(t, float32(142), view.At(1, 4, 2))
	assert.Equal(t, float32(21), view.At(0, 2, 1))
}

func TestNewTensorRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name                    string
		size                    int
		batch, channels, anchor int
	}{
		{"length mismatch", 10, 1, 5, 3},
		{"no class channel", 12, 1, 4, 3},
		{"zero batch", 0, 0, 5, 3},
		{"zero anchors", 0, 1, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTensor(make([]float32, tt.size), tt.batch, tt.channels, tt.anchor)
			assert.Error(t, err)
		})
	}
}

func TestTensorFromDense(t *testing.T) {
	backing := []float32{
		1, 2, 3,       // cx
		4, 5, 6,       // cy
		7, 8, 9,       // w
		10, 11, 12,    // h
		0.1, 0.2, 0.3, // class 0
	}
	dense := tensor.New(tensor.WithShape(1, 5, 3), tensor.WithBacking(backing))

	view, err := TensorFromDense(dense)
	require.NoError(t, err)
	assert.Equal(t, float32(8), view.At(0, 2, 1))
	assert.Equal(t, float32(0.3), view.At(0, 4, 2))

	wrongType := tensor.New(tensor.WithShape(1, 5, 3), tensor.Of(tensor.Float64))
	_, err = TensorFromDense(wrongType)
	assert.Error(t, err)

	wrongRank := tensor.New(tensor.WithShape(5, 3), tensor.Of(tensor.Float32))
	_, err = TensorFromDense(wrongRank)
	assert.Error(t, err)

	_, err = TensorFromDense(nil)
	assert.Error(t, err)
}
