// Package postprocess - provides Non-Maximum Suppression for detection results.
package postprocess

import (
	"sort"
	"sync"

	"github.com/nvr-ai/go-yolov8/images"
)

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	// IoUThreshold is the overlap at or above which the lower score is suppressed.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// NumWorkers is the number of goroutines suppressing label partitions.
	NumWorkers int `json:"num_workers" yaml:"num_workers"`
}

// ApplyNMS filters overlapping detections using per-label Non-Maximum Suppression.
//
// Detections are partitioned by Label in first-seen order. Each partition is
// sorted by descending score and greedily reduced: the best remaining detection
// is kept and every later one overlapping it with IoU >= IoUThreshold is dropped.
// Partitions are concatenated in first-seen label order, and within a label the
// order is selection order. The input slice is not modified.
//
// Arguments:
//   - detections: Detections in any order.
//   - config: NMS configuration.
//
// Returns:
//   - Filtered slice of detections. If no detections are provided, returns nil.
func ApplyNMS(detections []Result, config *NMSConfig) []Result {
	if len(detections) == 0 {
		return nil
	}

	partitions := partitionByLabel(detections)
	kept := make([][]int, len(partitions))

	workers := min(max(config.NumWorkers, 1), len(partitions))
	if workers == 1 {
		for p, idx := range partitions {
			kept[p] = suppress(detections, idx, config.IoUThreshold)
		}
	} else {
		jobs := make(chan int, len(partitions))
		for p := range partitions {
			jobs <- p
		}
		close(jobs)

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for p := range jobs {
					kept[p] = suppress(detections, partitions[p], config.IoUThreshold)
				}
			}()
		}
		wg.Wait()
	}

	total := 0
	for _, k := range kept {
		total += len(k)
	}
	filtered := make([]Result, 0, total)
	for _, k := range kept {
		for _, i := range k {
			filtered = append(filtered, detections[i])
		}
	}

	return filtered
}

// ApplyGreedyNMS performs class-agnostic greedy Non-Maximum Suppression.
//
// Arguments:
//   - detections: Detections in any order.
//   - config: NMS configuration; only IoUThreshold is used.
//
// Returns:
//   - Filtered slice of detections in descending score order.
func ApplyGreedyNMS(detections []Result, config *NMSConfig) []Result {
	if len(detections) == 0 {
		return nil
	}

	all := make([]int, len(detections))
	for i := range all {
		all[i] = i
	}

	kept := suppress(detections, all, config.IoUThreshold)
	filtered := make([]Result, 0, len(kept))
	for _, i := range kept {
		filtered = append(filtered, detections[i])
	}

	return filtered
}

// partitionByLabel groups detection indices by label, preserving first-seen order.
func partitionByLabel(detections []Result) [][]int {
	slot := make(map[string]int)
	var partitions [][]int
	for i, d := range detections {
		p, ok := slot[d.Label]
		if !ok {
			p = len(partitions)
			slot[d.Label] = p
			partitions = append(partitions, nil)
		}
		partitions[p] = append(partitions[p], i)
	}
	return partitions
}

// suppress runs greedy selection over the detections named by idx and returns
// the surviving indices in selection order. idx is reordered in place.
func suppress(detections []Result, idx []int, threshold float32) []int {
	sort.SliceStable(idx, func(a, b int) bool {
		return detections[idx[a]].Score > detections[idx[b]].Score
	})

	suppressed := make([]bool, len(idx))
	kept := make([]int, 0, len(idx))

	for i := range idx {
		if suppressed[i] {
			continue
		}
		anchor := detections[idx[i]].Box
		kept = append(kept, idx[i])

		for j := i + 1; j < len(idx); j++ {
			if suppressed[j] {
				continue
			}
			if images.CalculateIoU(anchor, detections[idx[j]].Box) >= threshold {
				suppressed[j] = true
			}
		}
	}

	return kept
}
