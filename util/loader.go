// Package util - helpers for feeding image files to the detector.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Frame is the number trailing the file name, e.g. 12 for "frame-12.jpg",
	// or -1 when the name carries none.
	Frame int
}

// LoadDirectoryImageFiles reads all image files from a directory.
//
// Files are ordered by frame number, then by name; files without a frame
// number sort first.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
//   - error: Error if the directory or a file cannot be read.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading directory %s", dir)
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".bmp":
			path := filepath.Join(dir, entry.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, errors.Wrapf(err, "reading %s", path)
			}
			files = append(files, ImageFile{
				Path:  path,
				Data:  data,
				Frame: frameNumber(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))),
			})
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Frame != files[j].Frame {
			return files[i].Frame < files[j].Frame
		}
		return files[i].Path < files[j].Path
	})

	return files, nil
}

func frameNumber(name string) int {
	end := len(name)
	start := end
	for start > 0 && name[start-1] >= '0' && name[start-1] <= '9' {
		start--
	}
	if start == end {
		return -1
	}
	n, err := strconv.Atoi(name[start:end])
	if err != nil {
		return -1
	}
	return n
}
