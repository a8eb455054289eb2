package vision

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/your-org/vpp/internal/core"
	"github.com/your-org/vpp/internal/scene"
)

// PigoDetector runs esimov/pigo's pure-Go pixel-intensity-comparison
// cascade classifier, a cheap CPU fallback for the "detect" stage that
// needs neither an ONNX Runtime session nor a GPU. It trades RetinaFace's
// landmark output and accuracy for a detector that starts in-process with
// no external model runtime dependency.
type PigoDetector struct {
	classifier  *pigo.Pigo
	minSize     int
	maxSize     int
	shiftFactor float64
	scaleFactor float64
	iouCluster  float64
	scoreFloor  float32
}

// NewPigoDetector unpacks a pigo binary cascade file (e.g. facefinder).
func NewPigoDetector(cascadePath string, scoreFloor float32) (*PigoDetector, error) {
	raw, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("read cascade %s: %w", cascadePath, err)
	}
	classifier, err := pigo.NewPigo().Unpack(raw)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade %s: %w", cascadePath, err)
	}
	return &PigoDetector{
		classifier:  classifier,
		minSize:     20,
		maxSize:     1000,
		shiftFactor: 0.1,
		scaleFactor: 1.1,
		iouCluster:  0.2,
		scoreFloor:  scoreFloor,
	}, nil
}

// Detect runs the cascade over an NRGBA frame, clusters overlapping
// windows, and returns one Detection per surviving cluster. Pigo reports
// a center (row, col) and a square scale rather than RetinaFace's
// four-corner box, so the bounding box here is always square and carries
// no landmarks.
func (d *PigoDetector) Detect(img *image.NRGBA) []Detection {
	cols, rows := img.Bounds().Dx(), img.Bounds().Dy()
	longest := rows
	if cols > longest {
		longest = cols
	}
	maxSize := d.maxSize
	if maxSize > longest {
		maxSize = longest
	}

	params := pigo.CascadeParams{
		MinSize:     d.minSize,
		MaxSize:     maxSize,
		ShiftFactor: d.shiftFactor,
		ScaleFactor: d.scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(img),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	found := d.classifier.RunCascade(params, 0.0)
	found = d.classifier.ClusterDetections(found, d.iouCluster)

	detections := make([]Detection, 0, len(found))
	for _, f := range found {
		if f.Q < d.scoreFloor {
			continue
		}
		half := f.Scale / 2
		detections = append(detections, Detection{
			BBox: [4]float32{
				float32(f.Col - half),
				float32(f.Row - half),
				float32(f.Col + half),
				float32(f.Row + half),
			},
			Confidence: f.Q,
		})
	}
	return detections
}

// PigoDetectEngine is a core.Engine that runs PigoDetector over a Scene's
// BGR view, the same contract DetectEngine gives RetinaFace, so a "detect"
// Stage can swap between the two engines with Stage.Use.
type PigoDetectEngine struct {
	core.BaseEngine

	Detector *PigoDetector
}

func NewPigoDetectEngine(d *PigoDetector) *PigoDetectEngine {
	return &PigoDetectEngine{Detector: d}
}

func (e *PigoDetectEngine) Process(ctx context.Context, s *scene.Scene) core.Status {
	img, err := s.View.BGR()
	if err != nil {
		slog.Warn("pigo detect engine: no BGR view", "error", err)
		return core.NotReady
	}
	drawable, err := img.Drawable()
	if err != nil {
		slog.Warn("pigo detect engine: drawable", "error", err)
		return core.ErrInvalidValue
	}

	for _, d := range e.Detector.Detect(drawable) {
		b := scene.BBox{
			X: int(d.BBox[0]),
			Y: int(d.BBox[1]),
			W: int(d.BBox[2] - d.BBox[0]),
			H: int(d.BBox[3] - d.BBox[1]),
		}
		if !b.Valid() {
			continue
		}
		s.Mark(scene.NewZoneWithPrediction(b, scene.Prediction{
			Score:   d.Confidence,
			Dataset: DatasetFace,
		}))
	}

	return core.OK
}
