package vision

import (
	"context"
	"log/slog"

	"github.com/your-org/vpp/internal/core"
	"github.com/your-org/vpp/internal/scene"
)

// EmbedEngine is a core.Engine that crops each valid Zone's face region out
// of the scene's BGR view, runs it through ArcFace, and attaches the
// resulting vector via Zone.Embedding, feeding tracker.AppearanceMeasure /
// tracker.BlendedMeasure downstream (§4.6).
type EmbedEngine struct {
	core.BaseEngine

	Embedder *Embedder
}

// NewEmbedEngine wraps an already-loaded Embedder.
func NewEmbedEngine(e *Embedder) *EmbedEngine {
	return &EmbedEngine{Embedder: e}
}

// Process embeds every valid zone currently in s.
func (e *EmbedEngine) Process(ctx context.Context, s *scene.Scene) core.Status {
	img, err := s.View.BGR()
	if err != nil {
		slog.Warn("embed engine: no BGR view", "error", err)
		return core.NotReady
	}
	drawable, err := img.Drawable()
	if err != nil {
		slog.Warn("embed engine: drawable", "error", err)
		return core.ErrInvalidValue
	}

	inputW, inputH := e.Embedder.InputSize()

	for _, z := range s.ZonesWhere(scene.WhenValid) {
		bbox := [4]float32{
			float32(z.BBox.X), float32(z.BBox.Y),
			float32(z.BBox.X + z.BBox.W), float32(z.BBox.Y + z.BBox.H),
		}
		face := cropFace(drawable, bbox)
		if face == nil {
			continue
		}

		chw := preprocessForEmbedding(face, inputW, inputH)
		vec, err := e.Embedder.Extract(chw)
		if err != nil {
			slog.Warn("embed engine: extract", "error", err, "zone", z.UUID)
			continue
		}
		z.Embedding = vec
	}

	return core.OK
}
