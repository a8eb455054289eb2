package tracker

import (
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/your-org/vpp/internal/core"
	"github.com/your-org/vpp/internal/scene"
)

// Predictor models how a tracked Context evolves between passes. Predict
// stacks a forecast atop c (Context.Push), to be folded back down once
// Correct (or the tracker's own Flatten/merge) sees it. Both are best
// run from the tracker's Predict/Match stages, not concurrently for the
// same Context.
type Predictor interface {
	Predict(c *Context, dt float32) core.Status
	Correct(c *Context, measured scene.Measure, threshold int) core.Status
	Forget(uuid uint64)
}

// stateDims/measureDims mirror scene.State (centre 3 + size 2 +
// velocity 3 = 8) and scene.Measure (centre 3 + size 2 = 5).
const (
	stateDims   = 8
	measureDims = 5
)

type kalmanFilter struct {
	x *mat.VecDense
	p *mat.Dense
}

// KalmanPredictor is a constant-velocity Kalman filter run independently
// per tracked Context (keyed by UUID), grounded on the original's
// Kernel::Kalman: state is a zone's centre/size/velocity (8 components),
// the measurement is its centre/size (5 components), and the transition
// matrix advances centre by velocity*dt each Predict.
type KalmanPredictor struct {
	mu      sync.Mutex
	filters map[uint64]*kalmanFilter

	// ProcessNoise and MeasurementNoise scale the diagonal Q and R
	// covariance matrices; both are exposed as settable tracker
	// parameters rather than the original's full per-row F/H/Q/R
	// vectors, since a scalar per matrix is all a generic zone model
	// needs.
	ProcessNoise       float32
	MeasurementNoise   float32
	InitialUncertainty float32
}

// NewKalmanPredictor returns a KalmanPredictor with reasonable defaults.
func NewKalmanPredictor() *KalmanPredictor {
	return &KalmanPredictor{
		filters:            make(map[uint64]*kalmanFilter),
		ProcessNoise:       1e-2,
		MeasurementNoise:   1e-1,
		InitialUncertainty: 10,
	}
}

func measureMatrix() *mat.Dense {
	h := mat.NewDense(measureDims, stateDims, nil)
	for i := 0; i < measureDims; i++ {
		h.Set(i, i, 1)
	}
	return h
}

func transitionMatrix(dt float32) *mat.Dense {
	f := mat.NewDense(stateDims, stateDims, nil)
	for i := 0; i < stateDims; i++ {
		f.Set(i, i, 1)
	}
	f.Set(0, 5, float64(dt))
	f.Set(1, 6, float64(dt))
	f.Set(2, 7, float64(dt))
	return f
}

func stateVector(s scene.State) *mat.VecDense {
	return mat.NewVecDense(stateDims, []float64{
		float64(s.Centre[0]), float64(s.Centre[1]), float64(s.Centre[2]),
		float64(s.Size[0]), float64(s.Size[1]),
		float64(s.Velocity[0]), float64(s.Velocity[1]), float64(s.Velocity[2]),
	})
}

func measureVector(m scene.Measure) *mat.VecDense {
	return mat.NewVecDense(measureDims, []float64{
		float64(m.Centre[0]), float64(m.Centre[1]), float64(m.Centre[2]),
		float64(m.Size[0]), float64(m.Size[1]),
	})
}

func stateFromVector(v mat.Vector) scene.State {
	return scene.State{
		Centre:   [3]float32{float32(v.AtVec(0)), float32(v.AtVec(1)), float32(v.AtVec(2))},
		Size:     [2]float32{float32(v.AtVec(3)), float32(v.AtVec(4))},
		Velocity: [3]float32{float32(v.AtVec(5)), float32(v.AtVec(6)), float32(v.AtVec(7))},
	}
}

func diag(n int, v float64) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, v)
	}
	return d
}

func (k *KalmanPredictor) filterFor(c *Context) *kalmanFilter {
	k.mu.Lock()
	defer k.mu.Unlock()
	f, ok := k.filters[c.UUID]
	if !ok {
		f = &kalmanFilter{
			x: stateVector(c.Zone().State),
			p: diag(stateDims, float64(k.InitialUncertainty)),
		}
		k.filters[c.UUID] = f
	}
	return f
}

// Predict advances c's Kalman state by dt and stacks the forecast atop
// c's history as a new (unvalidated-until-corrected) zone.
func (k *KalmanPredictor) Predict(c *Context, dt float32) core.Status {
	f := k.filterFor(c)
	trans := transitionMatrix(dt)

	var x1 mat.VecDense
	x1.MulVec(trans, f.x)

	var fp, fpft mat.Dense
	fp.Mul(trans, f.p)
	fpft.Mul(&fp, trans.T())
	fpft.Add(&fpft, diag(stateDims, float64(k.ProcessNoise)))

	k.mu.Lock()
	f.x = &x1
	f.p = &fpft
	k.mu.Unlock()

	predicted := c.Push(c.Zone())
	predicted.State = stateFromVector(&x1)
	predicted.BBox = scene.BBoxFromMeasure(scene.Measure{Centre: predicted.State.Centre, Size: predicted.State.Size})
	return core.OK
}

// Correct folds measured into c's Kalman estimate, provided at least
// threshold zones have been stacked for c (the original's own
// "at least two: one prediction, one for the actual output" rule), and
// updates the top-of-stack zone's state to the corrected estimate.
func (k *KalmanPredictor) Correct(c *Context, measured scene.Measure, threshold int) core.Status {
	if c.Len() < threshold {
		return core.NotReady
	}
	f := k.filterFor(c)
	h := measureMatrix()

	var hx mat.VecDense
	hx.MulVec(h, f.x)

	z := measureVector(measured)
	var y mat.VecDense
	y.SubVec(z, &hx)

	var hp, hpht mat.Dense
	hp.Mul(h, f.p)
	hpht.Mul(&hp, h.T())
	hpht.Add(&hpht, diag(measureDims, float64(k.MeasurementNoise)))

	var s mat.Dense
	if err := s.Inverse(&hpht); err != nil {
		return core.ErrUnknown
	}

	var pht, gain mat.Dense
	pht.Mul(f.p, h.T())
	gain.Mul(&pht, &s)

	var ky mat.VecDense
	ky.MulVec(&gain, &y)

	var x1 mat.VecDense
	x1.AddVec(f.x, &ky)

	ident := diag(stateDims, 1)
	var kh, ikh mat.Dense
	kh.Mul(&gain, h)
	ikh.Sub(ident, &kh)
	var p1 mat.Dense
	p1.Mul(&ikh, f.p)

	k.mu.Lock()
	f.x = &x1
	f.p = &p1
	k.mu.Unlock()

	top := c.At(-1)
	top.State = stateFromVector(&x1)
	top.BBox = scene.BBoxFromMeasure(scene.Measure{Centre: top.State.Centre, Size: top.State.Size})
	return core.OK
}

// Forget drops any Kalman state held for uuid, called once a Context is
// removed from the tracker during cleanup.
func (k *KalmanPredictor) Forget(uuid uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.filters, uuid)
}

// HistoryPredictor is a degenerate Predictor for zones that carry no
// motion model of their own (e.g. purely contextual tags): Predict just
// restacks the last known zone unchanged, and Correct always succeeds
// once at least threshold zones are stacked. Supplements the original's
// Kalman/CamShift/Opaque trio for consumers that only need identity
// continuity, not motion estimation.
type HistoryPredictor struct{}

func (HistoryPredictor) Predict(c *Context, dt float32) core.Status {
	c.Push(c.Zone())
	return core.OK
}

func (HistoryPredictor) Correct(c *Context, measured scene.Measure, threshold int) core.Status {
	if c.Len() < threshold {
		return core.NotReady
	}
	top := c.At(-1)
	top.State.FromMeasure(measured)
	top.BBox = scene.BBoxFromMeasure(measured)
	return core.OK
}

func (HistoryPredictor) Forget(uuid uint64) {}
