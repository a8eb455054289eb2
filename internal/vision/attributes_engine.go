package vision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/your-org/vpp/internal/core"
	"github.com/your-org/vpp/internal/scene"
)

// DatasetGender is the Prediction.Dataset value an AttributeEngine tags
// its gender guess with. GenderMale/GenderFemale are its two classes.
const DatasetGender int16 = 2

const (
	GenderMale   int16 = 0
	GenderFemale int16 = 1
)

// AttributeEngine is a core.Engine that predicts gender/age for every
// valid Zone and attaches gender as a Prediction, filing the age bucket
// in Zone.Description since Zone carries no dedicated age field (§4.3).
type AttributeEngine struct {
	core.BaseEngine

	Predictor *AttributePredictor
}

// NewAttributeEngine wraps an already-loaded AttributePredictor.
func NewAttributeEngine(p *AttributePredictor) *AttributeEngine {
	return &AttributeEngine{Predictor: p}
}

// Process predicts gender/age for every valid zone currently in s.
func (e *AttributeEngine) Process(ctx context.Context, s *scene.Scene) core.Status {
	img, err := s.View.BGR()
	if err != nil {
		slog.Warn("attribute engine: no BGR view", "error", err)
		return core.NotReady
	}
	drawable, err := img.Drawable()
	if err != nil {
		slog.Warn("attribute engine: drawable", "error", err)
		return core.ErrInvalidValue
	}

	inputW, inputH := e.Predictor.InputSize()

	for _, z := range s.ZonesWhere(scene.WhenValid) {
		bbox := [4]float32{
			float32(z.BBox.X), float32(z.BBox.Y),
			float32(z.BBox.X + z.BBox.W), float32(z.BBox.Y + z.BBox.H),
		}
		face := cropFace(drawable, bbox)
		if face == nil {
			continue
		}

		chw := preprocessForAttributes(face, inputW, inputH)
		attrs, err := e.Predictor.Predict(chw)
		if err != nil {
			slog.Warn("attribute engine: predict", "error", err, "zone", z.UUID)
			continue
		}

		genderID := GenderMale
		if attrs.Gender == "female" {
			genderID = GenderFemale
		}
		z.Predict(scene.Prediction{
			Score:   attrs.GenderConfidence,
			Dataset: DatasetGender,
			ID:      genderID,
		})
		z.Describe(fmt.Sprintf("age:%s", attrs.AgeRange))
	}

	return core.OK
}
