package tracker

import (
	"testing"

	"github.com/your-org/vpp/internal/scene"
)

func TestCosineSimilarityIdenticalVectorsIsOne(t *testing.T) {
	v := []float32{0.6, 0.8}
	if got := CosineSimilarity(v, v); got < 0.999 {
		t.Errorf("CosineSimilarity(v, v) = %v, want ~1", got)
	}
}

func TestCosineSimilarityMismatchedLengthIsZero(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Errorf("CosineSimilarity(mismatched lengths) = %v, want 0", got)
	}
}

func TestAppearanceMeasureZeroWithoutEmbeddings(t *testing.T) {
	a := scene.NewZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10})
	b := scene.NewZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10})
	if got := AppearanceMeasure(a, b); got != 0 {
		t.Errorf("AppearanceMeasure without embeddings = %v, want 0", got)
	}
}

func TestAppearanceMeasureUsesCosineSimilarity(t *testing.T) {
	a := scene.NewZone(scene.BBox{})
	a.Embedding = []float32{1, 0}
	b := scene.NewZone(scene.BBox{})
	b.Embedding = []float32{1, 0}
	if got := AppearanceMeasure(a, b); got < 0.999 {
		t.Errorf("AppearanceMeasure = %v, want ~1 for identical embeddings", got)
	}
}

func TestBlendedMeasureFallsBackToIoUWithoutEmbedding(t *testing.T) {
	a := scene.NewZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10})
	b := scene.NewZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10})
	measure := BlendedMeasure(0.5)
	if got := measure(a, b); got != 1 {
		t.Errorf("BlendedMeasure without embeddings = %v, want pure IoU (1 for identical boxes)", got)
	}
}

func TestBlendedMeasureCombinesGeometryAndAppearance(t *testing.T) {
	a := scene.NewZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10})
	a.Embedding = []float32{1, 0}
	b := scene.NewZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10})
	b.Embedding = []float32{0, 1}

	measure := BlendedMeasure(0.5)
	got := measure(a, b)
	if got > 0.51 {
		t.Errorf("BlendedMeasure = %v, want roughly 0.5*IoU(1) + 0.5*cos(0) = 0.5", got)
	}
}
