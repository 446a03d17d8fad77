package images

import (
	"image"
	"math/rand"
	"testing"
)

// BenchmarkIoU_NonOverlapping takes the early return when the intersection is empty.
func BenchmarkIoU_NonOverlapping(b *testing.B) {
	r1 := Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}
	r2 := Rect{X1: 200, Y1: 200, X2: 300, Y2: 300}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = CalculateIoU(r1, r2)
	}
}

// BenchmarkIoU_PartialOverlap is the common case during suppression.
func BenchmarkIoU_PartialOverlap(b *testing.B) {
	r1 := Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}
	r2 := Rect{X1: 50, Y1: 50, X2: 150, Y2: 150}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = CalculateIoU(r1, r2)
	}
}

func randomPairs(n int) [][2]Rect {
	rng := rand.New(rand.NewSource(1))
	pairs := make([][2]Rect, n)
	for i := range pairs {
		for j := 0; j < 2; j++ {
			x, y := float32(rng.Intn(1920)), float32(rng.Intn(1080))
			w, h := float32(rng.Intn(300)+20), float32(rng.Intn(300)+20)
			pairs[i][j] = Rect{X1: x, Y1: y, X2: x + w, Y2: y + h}
		}
	}
	return pairs
}

// BenchmarkIoU_RandomPairs mixes every overlap case over 1080p frame bounds.
func BenchmarkIoU_RandomPairs(b *testing.B) {
	pairs := randomPairs(1000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p := pairs[i%len(pairs)]
		_ = CalculateIoU(p[0], p[1])
	}
}

// imageRectangleIoU is the integer image.Rectangle equivalent, kept for comparison.
func imageRectangleIoU(r1, r2 image.Rectangle) float32 {
	intersect := r1.Intersect(r2)
	if intersect.Empty() {
		return 0
	}

	intersectArea := intersect.Dx() * intersect.Dy()
	union := r1.Dx()*r1.Dy() + r2.Dx()*r2.Dy() - intersectArea

	return float32(intersectArea) / float32(union)
}

func BenchmarkImageRectangle_RandomPairs(b *testing.B) {
	pairs := randomPairs(1000)
	rects := make([][2]image.Rectangle, len(pairs))
	for i, p := range pairs {
		for j := 0; j < 2; j++ {
			rects[i][j] = image.Rect(int(p[j].X1), int(p[j].Y1), int(p[j].X2), int(p[j].Y2))
		}
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p := rects[i%len(rects)]
		_ = imageRectangleIoU(p[0], p[1])
	}
}

// TestIoUMatchesImageRectangle checks the float implementation against the
// integer one on integral corners.
func TestIoUMatchesImageRectangle(t *testing.T) {
	for _, p := range randomPairs(500) {
		want := imageRectangleIoU(
			image.Rect(int(p[0].X1), int(p[0].Y1), int(p[0].X2), int(p[0].Y2)),
			image.Rect(int(p[1].X1), int(p[1].Y1), int(p[1].X2), int(p[1].Y2)),
		)
		got := CalculateIoU(p[0], p[1])
		if d := got - want; d > 1e-5 || d < -1e-5 {
			t.Fatalf("IoU(%v, %v) = %f, want %f", p[0], p[1], got, want)
		}
	}
}
