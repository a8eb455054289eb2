package scene

import "math"

// BBox is an axis-aligned pixel rectangle.
type BBox struct {
	X, Y, W, H int
}

// NewBBoxFromNormalized builds a BBox from a [0,1]-normalised rectangle and
// the frame it is relative to, as produced by most detector models.
func NewBBoxFromNormalized(left, top, right, bottom float32, frameW, frameH int) BBox {
	return BBox{
		X: int(left * float32(frameW)),
		Y: int(top * float32(frameH)),
		W: int((right - left) * float32(frameW)),
		H: int((bottom - top) * float32(frameH)),
	}
}

// Area returns b's area; zero for degenerate rectangles.
func (b BBox) Area() int {
	if b.W <= 0 || b.H <= 0 {
		return 0
	}
	return b.W * b.H
}

// Valid reports whether b has strictly positive width and height.
func (b BBox) Valid() bool {
	return b.W > 0 && b.H > 0
}

// Intersect returns the overlapping rectangle of a and b, which is
// degenerate (zero area) when they do not overlap.
func (b BBox) Intersect(o BBox) BBox {
	x1 := max(b.X, o.X)
	y1 := max(b.Y, o.Y)
	x2 := min(b.X+b.W, o.X+o.W)
	y2 := min(b.Y+b.H, o.Y+o.H)
	if x2 <= x1 || y2 <= y1 {
		return BBox{}
	}
	return BBox{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Union returns the smallest rectangle enclosing both b and o.
func (b BBox) Union(o BBox) BBox {
	x1 := min(b.X, o.X)
	y1 := min(b.Y, o.Y)
	x2 := max(b.X+b.W, o.X+o.W)
	y2 := max(b.Y+b.H, o.Y+o.H)
	return BBox{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Overlaps reports whether b and o share any area.
func (b BBox) Overlaps(o BBox) bool {
	return b.Intersect(o).Area() > 0
}

// IoU returns the intersection-over-union ratio of b and o, the default
// similarity measure used by the tracker's Matcher.
func (b BBox) IoU(o BBox) float32 {
	inter := b.Intersect(o).Area()
	if inter == 0 {
		return 0
	}
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return float32(inter) / float32(union)
}

// Inside reports whether b is almost entirely contained within o: their
// intersection covers more than 95% of b's own area.
func (b BBox) Inside(o BBox) bool {
	return float32(b.Intersect(o).Area()) > float32(b.Area())*0.95
}

// State is a Zone's Kalman-style motion state: a 3D centre and size in
// whatever unit the projector establishes, plus a 3D velocity.
type State struct {
	Centre   [3]float32
	Size     [2]float32
	Velocity [3]float32
}

// Measure is the subset of State produced directly by a detection or
// measurement, with no velocity component.
type Measure struct {
	Centre [3]float32
	Size   [2]float32
}

// FromMeasure resets s's centre/size from m and zeroes the velocity,
// matching the original's State = Measure assignment.
func (s *State) FromMeasure(m Measure) {
	s.Centre = m.Centre
	s.Size = m.Size
	s.Velocity = [3]float32{}
}

// Measure returns b as a Measure with depth fixed at 0, for trackers with
// no projector/depth context to work from, which operate directly in
// pixel space.
func (b BBox) Measure() Measure {
	return Measure{
		Centre: [3]float32{float32(b.X) + float32(b.W)/2, float32(b.Y) + float32(b.H)/2, 0},
		Size:   [2]float32{float32(b.W), float32(b.H)},
	}
}

// BBoxFromMeasure reconstructs a pixel-space BBox from a Measure's
// centre/size, the inverse of BBox.Measure.
func BBoxFromMeasure(m Measure) BBox {
	return BBox{
		X: int(m.Centre[0] - m.Size[0]/2),
		Y: int(m.Centre[1] - m.Size[1]/2),
		W: int(m.Size[0]),
		H: int(m.Size[1]),
	}
}

// Zone is a tracked or detected region of interest.
type Zone struct {
	UUID        uint64
	BBox        BBox
	State       State
	Contour     []image2DPoint
	Predictions []Prediction
	Context     Prediction
	Description string
	Tag         int
	Marked      bool

	// Embedding is an optional appearance fingerprint (e.g. a face or
	// re-identification vector) attached by a recognition engine, reused
	// by an appearance-based tracker Measure to corroborate geometric
	// matching when two candidates' bounding boxes are ambiguous.
	Embedding []float32
}

type image2DPoint struct {
	X, Y int
}

// NewZone builds an empty, unmarked zone around the given rectangle.
func NewZone(b BBox) *Zone {
	return &Zone{BBox: b}
}

// NewZoneWithPrediction builds a zone with a single initial prediction,
// which also becomes its cached context (P1).
func NewZoneWithPrediction(b BBox, pred Prediction) *Zone {
	z := &Zone{BBox: b, Predictions: []Prediction{pred}, Context: pred}
	return z
}

// Predict appends preds to z's prediction list, re-sorts it by descending
// score (ties keep an entry already in the list ahead of one appended
// after it, so in Update z's own predictions win ties over older's, i.e.
// "newer wins" per the tracker flatten tie-break), and refreshes Context (P1).
func (z *Zone) Predict(preds ...Prediction) *Zone {
	z.Predictions = append(z.Predictions, preds...)
	SortPredictions(z.Predictions)
	if len(z.Predictions) > 0 {
		z.Context = z.Predictions[0]
	}
	return z
}

// Update absorbs older into z: z keeps its own geometry (it is always the
// more authoritative, freshly-measured or freshly-predicted zone) but
// adopts older's tracked identity (UUID), adds older's tag count to its
// own, and merges
// older's predictions into its own after scaling their scores by recall
// (1 keeps them at face value; below 1 lets ageing evidence fade, per
// the tracker's recall factor). older is left invalidated. z is mutated
// in place and returned, matching the original's Zone::update(Zone&).
func (z *Zone) Update(older *Zone, recall float32) *Zone {
	z.UUID = older.UUID
	z.Tag += older.Tag

	scaled := make([]Prediction, len(older.Predictions))
	for i, p := range older.Predictions {
		p.Score *= recall
		scaled[i] = p
	}
	z.Predict(scaled...)
	older.Invalidate()
	return z
}

// Merge folds another zone's predictions into z without touching geometry,
// used when two detections of the same object need to be reconciled within
// a single pass.
func (z *Zone) Merge(other *Zone) *Zone {
	z.Predictions = append(z.Predictions, other.Predictions...)
	SortPredictions(z.Predictions)
	if len(z.Predictions) > 0 {
		z.Context = z.Predictions[0]
	}
	z.Tag++
	return z
}

// Invalidate marks z invalid (e.g. because its tracker could not predict
// it this pass).
func (z *Zone) Invalidate() {
	z.Marked = false
}

// Valid reports whether z is marked valid.
func (z *Zone) Valid() bool {
	return z.Marked
}

// Invalid reports whether z is marked invalid, or is geometrically
// degenerate (width/height <= 0).
func (z *Zone) Invalid() bool {
	return !z.Marked || !z.BBox.Valid()
}

// WhenValid is a Scene filter predicate selecting valid zones.
func WhenValid(z *Zone) bool { return z.Valid() }

// WhenInvalid is a Scene filter predicate selecting invalid zones.
func WhenInvalid(z *Zone) bool { return z.Invalid() }

// Describe sets z's human-readable description.
func (z *Zone) Describe(desc string) *Zone {
	z.Description = desc
	return z
}

// Inside reports whether z lies almost entirely within other.
func (z *Zone) Inside(other *Zone) bool {
	return z.BBox.Inside(other.BBox)
}

// Speed returns the scalar magnitude of z's velocity vector.
func (z *Zone) Speed() float32 {
	v := z.State.Velocity
	return float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
}
