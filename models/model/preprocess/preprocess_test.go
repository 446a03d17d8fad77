package preprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// TestPreprocessYOLOv8 validates tensor layout, normalisation and letterbox metadata.
func TestPreprocessYOLOv8(t *testing.T) {
	p := NewPreprocessor(GetYOLOv8Config(64))

	result, err := p.Preprocess(solidImage(128, 64, color.RGBA{R: 255, G: 0, B: 51, A: 255}))
	require.NoError(t, err, "preprocessing should succeed with valid input")

	assert.Equal(t, []int64{1, 3, 64, 64}, result.Shape)
	assert.Len(t, result.Data, 3*64*64)
	assert.Equal(t, 128, result.OriginalWidth)
	assert.Equal(t, 64, result.OriginalHeight)
	assert.InDelta(t, 0.5, result.Letterbox.Scale, 1e-6)
	assert.InDelta(t, 0, result.Letterbox.PadX, 1e-6)
	assert.InDelta(t, 16, result.Letterbox.PadY, 1e-6)

	plane := 64 * 64
	centre := 32*64 + 32
	// Resampling may round a uniform colour by one step.
	step := 1.5 / 255.0
	assert.InDelta(t, 1.0, result.Data[centre], step, "red plane")
	assert.InDelta(t, 0.0, result.Data[plane+centre], step, "green plane")
	assert.InDelta(t, 0.2, result.Data[2*plane+centre], step, "blue plane")

	// Row 2 is padding and carries the letterbox grey.
	pad := 2*64 + 32
	assert.InDelta(t, 114.0/255.0, result.Data[pad], 1e-6)
	assert.InDelta(t, 114.0/255.0, result.Data[2*plane+pad], 1e-6)
}

func TestPreprocessRejectsInvalidInput(t *testing.T) {
	p := NewPreprocessor(GetYOLOv8Config(64))

	_, err := p.Preprocess(nil)
	assert.Error(t, err)

	_, err = p.Preprocess(image.NewRGBA(image.Rect(0, 0, 0, 10)))
	assert.Error(t, err)

	bad := NewPreprocessor(&ModelConfig{InputWidth: 0, InputHeight: 64})
	_, err = bad.Preprocess(solidImage(4, 4, color.RGBA{A: 255}))
	assert.Error(t, err)
}

func TestNewPreprocessorCopiesConfig(t *testing.T) {
	config := &ModelConfig{Name: "yolov8", InputWidth: 32, InputHeight: 32}
	p := NewPreprocessor(config)

	assert.Nil(t, config.LetterboxColor, "the caller's config is left untouched")

	config.InputWidth = 0
	result, err := p.Preprocess(solidImage(16, 8, color.RGBA{A: 255}))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 32, 32}, result.Shape)
	// Top row is padding in the default grey.
	assert.InDelta(t, 114.0/255.0, result.Data[0], 1e-6)
}
