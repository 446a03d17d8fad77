// Package models - label tables and the model registry.
package models

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// YOLOClasses is the 80 COCO classes in the order ultralytics exports them (no
// background class).
var YOLOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog", "horse",
	"sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag", "tie",
	"suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove",
	"skateboard", "surfboard", "tennis racket", "bottle", "wine glass", "cup", "fork", "knife", "spoon",
	"bowl", "banana", "apple", "sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut",
	"cake", "chair", "couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator", "book",
	"clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// LoadLabels reads a label table with one label per line. Blank lines and
// surrounding whitespace are ignored.
//
// Arguments:
//   - path: The label file.
//
// Returns:
//   - []string: Labels ordered by class index.
//   - error: If the file cannot be read or holds no labels.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening label file %s", path)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading label file %s", path)
	}
	if len(labels) == 0 {
		return nil, errors.Errorf("label file %s is empty", path)
	}

	return labels, nil
}
