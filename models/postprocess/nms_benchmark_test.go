package postprocess

import (
	"fmt"
	"math/rand"
	"testing"
)

// BenchmarkApplyNMS measures suppression over the candidate counts a 640x640
// model typically leaves after the confidence filter.
func BenchmarkApplyNMS(b *testing.B) {
	for _, n := range []int{100, 1000, 5000} {
		for _, workers := range []int{1, 4} {
			detections := randomDetections(rand.New(rand.NewSource(3)), n)
			config := &NMSConfig{IoUThreshold: 0.45, NumWorkers: workers}

			b.Run(fmt.Sprintf("n=%d/workers=%d", n, workers), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					_ = ApplyNMS(detections, config)
				}
			})
		}
	}
}
