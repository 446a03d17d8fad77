// Package providers - ONNX Runtime backed inference sessions.
package providers

import (
	"fmt"
	"os"
	"runtime"
)

// SharedLibEnv overrides the ONNX Runtime shared library location.
const SharedLibEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// GetSharedLibPath returns the path to the shared library for the current platform.
//
// Returns:
//   - string: The path to the shared library.
//   - error: If the platform has no bundled library and SharedLibEnv is unset.
func GetSharedLibPath() (string, error) {
	if p := os.Getenv(SharedLibEnv); p != "" {
		return p, nil
	}

	switch runtime.GOOS {
	case "windows":
		if runtime.GOARCH == "amd64" {
			return "./third_party/onnxruntime.dll", nil
		}
	case "darwin":
		return "./third_party/libonnxruntime.1.23.0.dylib", nil
	case "linux":
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so", nil
		}
		return "./third_party/onnxruntime.so", nil
	}

	return "", fmt.Errorf("no onnxruntime library known for %s/%s, set %s",
		runtime.GOOS, runtime.GOARCH, SharedLibEnv)
}
