package model

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Tensor is a read-only [batch, channel, anchor] view over a flat float32 buffer.
//
// For YOLOv8 detectors the channel axis holds cx, cy, w, h followed by one score
// per class, and the anchor axis enumerates candidate slots.
type Tensor struct {
	data    []float32
	shape   [3]int
	strides [3]int
}

// NewTensor wraps data as a row-major [batch, channels, anchors] tensor. The
// buffer is not copied and must not be mutated while the view is in use.
//
// Arguments:
//   - data: The flat output buffer.
//   - batch, channels, anchors: The tensor dimensions.
//
// Returns:
//   - *Tensor: The view.
//   - error: If the dimensions do not describe data.
func NewTensor(data []float32, batch, channels, anchors int) (*Tensor, error) {
	if batch <= 0 || anchors <= 0 {
		return nil, errors.Errorf("invalid tensor shape [%d, %d, %d]", batch, channels, anchors)
	}
	if channels < 5 {
		return nil, errors.Errorf("tensor needs 4 box channels and at least one class, got %d channels", channels)
	}
	if len(data) != batch*channels*anchors {
		return nil, errors.Errorf("tensor buffer holds %d values, shape [%d, %d, %d] needs %d",
			len(data), batch, channels, anchors, batch*channels*anchors)
	}

	return &Tensor{
		data:    data,
		shape:   [3]int{batch, channels, anchors},
		strides: [3]int{channels * anchors, anchors, 1},
	}, nil
}

// TensorFromDense adapts a rank 3 float32 gorgonia tensor without copying.
func TensorFromDense(d *tensor.Dense) (*Tensor, error) {
	if d == nil {
		return nil, errors.New("dense tensor is nil")
	}
	if d.Dtype() != tensor.Float32 {
		return nil, errors.Errorf("dense tensor has dtype %v, expected float32", d.Dtype())
	}
	shape := d.Shape()
	if len(shape) != 3 {
		return nil, errors.Errorf("dense tensor has shape %v, expected rank 3", shape)
	}
	if d.IsView() || !d.DataOrder().IsRowMajor() {
		return nil, errors.New("dense tensor must be a contiguous row-major tensor, not a view")
	}

	t, err := NewTensor(d.Float32s(), shape[0], shape[1], shape[2])
	if err != nil {
		return nil, errors.Wrap(err, "adapting dense tensor")
	}

	return t, nil
}

// At returns the value at (batch b, channel c, anchor a).
func (t *Tensor) At(b, c, a int) float32 {
	return t.data[b*t.strides[0]+c*t.strides[1]+a*t.strides[2]]
}

// Shape returns [batch, channels, anchors].
func (t *Tensor) Shape() [3]int { return t.shape }

// Batch is the number of images in the output.
func (t *Tensor) Batch() int { return t.shape[0] }

// Channels is 4 box coordinates plus the class count.
func (t *Tensor) Channels() int { return t.shape[1] }

// Anchors is the number of candidate slots per image.
func (t *Tensor) Anchors() int { return t.shape[2] }

// NumClasses is Channels minus the four box channels.
func (t *Tensor) NumClasses() int { return t.shape[1] - 4 }

// Len is the total number of values in the view.
func (t *Tensor) Len() int { return t.shape[0] * t.shape[1] * t.shape[2] }
