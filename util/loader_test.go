package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDirectoryImageFiles(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"frame-10.jpg": "ten",
		"frame-2.jpg":  "two",
		"frame-1.PNG":  "one",
		"cover.bmp":    "cover",
		"notes.txt":    "skip",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.jpg"), 0o755))

	files, err := LoadDirectoryImageFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 4)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f.Path))
	}
	assert.Equal(t, []string{"cover.bmp", "frame-1.PNG", "frame-2.jpg", "frame-10.jpg"}, names)
	assert.Equal(t, -1, files[0].Frame)
	assert.Equal(t, 10, files[3].Frame)
	assert.Equal(t, []byte("ten"), files[3].Data)
}

func TestLoadDirectoryImageFilesMissing(t *testing.T) {
	_, err := LoadDirectoryImageFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
