package vision

import (
	"context"
	"log/slog"

	"github.com/your-org/vpp/internal/core"
	"github.com/your-org/vpp/internal/scene"
)

// DetectEngine is a core.Engine that runs RetinaFace over a Scene's BGR
// view and marks one scene.Zone per surviving detection, replacing the
// teacher's procedural Pipeline.ProcessFrame detection step with a
// Stage-pluggable unit (§4.1).
type DetectEngine struct {
	core.BaseEngine

	Detector *Detector
}

// NewDetectEngine wraps an already-loaded Detector.
func NewDetectEngine(d *Detector) *DetectEngine {
	return &DetectEngine{Detector: d}
}

// Process runs detection against s's BGR image and marks a Zone for each
// surviving face, carrying its confidence as a single Prediction. The
// detector's landmarks are not carried onto the zone.
func (e *DetectEngine) Process(ctx context.Context, s *scene.Scene) core.Status {
	img, err := s.View.BGR()
	if err != nil {
		slog.Warn("detect engine: no BGR view", "error", err)
		return core.NotReady
	}

	inputW, inputH := e.Detector.InputSize()
	drawable, err := img.Drawable()
	if err != nil {
		slog.Warn("detect engine: drawable", "error", err)
		return core.ErrInvalidValue
	}

	frame := img.Frame()
	chw := preprocessForDetection(drawable, inputW, inputH)

	detections, err := e.Detector.Detect(chw, frame.Dx(), frame.Dy())
	if err != nil {
		slog.Error("detect engine: detect", "error", err)
		return core.ErrUnknown
	}

	for _, d := range detections {
		b := scene.BBox{
			X: int(d.BBox[0]),
			Y: int(d.BBox[1]),
			W: int(d.BBox[2] - d.BBox[0]),
			H: int(d.BBox[3] - d.BBox[1]),
		}
		if !b.Valid() {
			continue
		}
		z := scene.NewZoneWithPrediction(b, scene.Prediction{
			Score:   d.Confidence,
			Dataset: DatasetFace,
		})
		s.Mark(z)
	}

	return core.OK
}

// DatasetFace is the Prediction.Dataset value a DetectEngine tags its
// zones with, distinguishing a bare face detection from a downstream
// recognition match filed under a different dataset id.
const DatasetFace int16 = 1
