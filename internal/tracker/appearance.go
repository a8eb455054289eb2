package tracker

import (
	"math"

	"github.com/your-org/vpp/internal/scene"
)

// CosineSimilarity scores two L2-normalised appearance vectors in [-1, 1].
// Grounded on the teacher's own face-recognition similarity check, reused
// here as a tracker Measure instead of a one-off recognition comparison.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(math.Min(1.0, math.Max(-1.0, dot)))
}

// AppearanceMeasure scores src/dst by the cosine similarity of their
// attached Embedding vectors, falling back to 0 (no match) when either
// zone carries none — e.g. a stage ordered before the embedding engine, or
// a tracked zone still in a purely-geometric prediction state. Supplements
// IoUMeasure as a second Matcher flavour (§4.6) for pipelines that run a
// recognition stage ahead of the tracker and want identity corroborated by
// more than bounding-box overlap alone.
func AppearanceMeasure(src, dst *scene.Zone) float32 {
	if len(src.Embedding) == 0 || len(dst.Embedding) == 0 {
		return 0
	}
	return CosineSimilarity(src.Embedding, dst.Embedding)
}

// BlendedMeasure combines geometric and appearance similarity with weight
// w applied to the appearance term (0 is pure IoU, 1 is pure appearance).
// When dst carries no Embedding yet, it degrades gracefully to pure IoU
// rather than penalising the match for a missing signal.
func BlendedMeasure(w float32) Measure {
	return func(src, dst *scene.Zone) float32 {
		geo := IoUMeasure(src, dst)
		if len(src.Embedding) == 0 || len(dst.Embedding) == 0 {
			return geo
		}
		app := CosineSimilarity(src.Embedding, dst.Embedding)
		return (1-w)*geo + w*app
	}
}
