package tracker

import (
	"context"
	"fmt"
	"sync"

	"github.com/your-org/vpp/internal/core"
	"github.com/your-org/vpp/internal/notify"
	"github.com/your-org/vpp/internal/scene"
)

// Event is broadcast by Engine after every completed pass.
type Event struct {
	Scene   *scene.Scene
	Added   []scene.Zone
	Removed []scene.Zone
}

// Engine is a core.Engine that carries zones across passes: it predicts
// where each previously-seen zone should now be, matches that prediction
// set against the scene's freshly-detected zones, merges matches, and
// cleans up anything that neither matched nor predicted validly (§4.6).
type Engine struct {
	Notify *notify.Notifier[Event]

	// Recall scales the prediction scores carried over from history when
	// they are folded back into a freshly re-detected zone, in [0, 1].
	Recall float32
	// StackDepth is how many zones of history each Context reserves
	// room for up front (0 lets it grow as needed).
	StackDepth int
	// MatchThreshold is the minimum similarity score the Matcher accepts.
	MatchThreshold float32
	// MaxMisses is how many consecutive unmatched passes a purely
	// historic context tolerates before it is invalidated.
	MaxMisses int

	Predictor Predictor
	Matcher   *Matcher

	mu            sync.Mutex
	storage       []*Context
	lastTimestamp uint64
	haveLast      bool
}

// NewEngine returns a TrackerEngine with the original's defaults: full
// recall, a 2-deep stack (one prediction, one correction), IoU matching
// at a 0.3 threshold, and a Kalman predictor.
func NewEngine() *Engine {
	return &Engine{
		Notify:         notify.New[Event](),
		Recall:         1.0,
		StackDepth:     2,
		MatchThreshold: 0.3,
		MaxMisses:      5,
		Predictor:      NewKalmanPredictor(),
		Matcher:        NewMatcher(),
	}
}

// Setup implements core.Engine.
func (e *Engine) Setup() core.Status { return core.OK }

// Terminate implements core.Engine.
func (e *Engine) Terminate() {}

// Prepare implements core.Engine as a no-op: the tracker only acts in
// Process, once the scene carries this pass's fresh detections.
func (e *Engine) Prepare(ctx context.Context, sc *scene.Scene) core.Status {
	return core.OK
}

// Process runs one full predict/match/merge/cleanup pass, rewriting sc's
// zone list to the tracked output and broadcasting the result.
func (e *Engine) Process(ctx context.Context, sc *scene.Scene) core.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	dt := e.dt(sc.Timestamp)

	fresh := sc.Zones()
	newCtxs := make([]*Context, len(fresh))
	for i, z := range fresh {
		newCtxs[i] = NewContext(z, e.StackDepth)
	}

	historic := e.storage
	for _, h := range historic {
		e.Predictor.Predict(h, dt)
	}

	srcZones := make([]*scene.Zone, len(newCtxs))
	for i, c := range newCtxs {
		srcZones[i] = c.Zone()
	}
	dstZones := make([]*scene.Zone, len(historic))
	for i, c := range historic {
		dstZones[i] = c.At(-1)
	}

	matchedNew := make([]bool, len(newCtxs))
	matchedHistoric := make([]bool, len(historic))
	for _, m := range e.Matcher.Match(srcZones, dstZones, e.MatchThreshold, true, true) {
		h := historic[m.Dst]
		h.Merge(newCtxs[m.Src])
		// Fold the real detection back into the predictor's internal
		// estimate now that one is available, rather than trusting the
		// raw prediction alone.
		e.Predictor.Correct(h, h.At(-1).BBox.Measure(), 2)
		matchedNew[m.Src] = true
		matchedHistoric[m.Dst] = true
	}

	surviving := historic[:0]
	for i, h := range historic {
		if !matchedHistoric[i] {
			h.Misses++
			if h.Misses > e.MaxMisses {
				h.Invalidate()
			}
		} else {
			h.Misses = 0
		}
		surviving = append(surviving, h)
	}
	for i, c := range newCtxs {
		if !matchedNew[i] {
			surviving = append(surviving, c)
		}
	}

	added, removed := e.cleanup(sc, surviving)

	sc.Extract(scene.WhenInvalid)
	for _, z := range sc.Zones() {
		z.Describe(fmt.Sprintf("%s\n(%d)", z.Description, z.UUID))
	}

	e.Notify.Signal(Event{Scene: sc, Added: added, Removed: removed}, int(core.OK))
	return core.OK
}

// cleanup walks the surviving contexts, folding each back down to the
// scene: invalid contexts are dropped (and reported as removed), a
// context still tied to a fresh detection folds its predicted history
// into that detection (via the recall factor), and a purely historic
// context that matched nothing this pass is flattened and re-marked
// into the scene so tracked-but-unseen objects keep appearing.
func (e *Engine) cleanup(sc *scene.Scene, contexts []*Context) (added, removed []scene.Zone) {
	var kept []*Context

	for _, c := range contexts {
		if c.Invalid() {
			if c.UUID != 0 {
				z := *c.Zone()
				z.UUID = c.UUID
				removed = append(removed, z)
			}
			e.Predictor.Forget(c.UUID)
			continue
		}

		if c.Original != nil {
			if c.Updated() {
				c.Flatten()
				flattened := c.Zone()
				c.Original.Update(flattened, e.Recall)
			} else {
				added = append(added, *c.Original)
			}
			cp := *c.Original
			c.stack[0] = &cp
		} else {
			c.Flatten()
			sc.Mark(c.Zone())
		}
		c.Original = nil
		kept = append(kept, c)
	}

	e.storage = kept
	return added, removed
}

// dt reports the elapsed frame delta since the last Process call, in
// scene-timestamp units; the first call after Reset defaults to 1 so the
// initial Kalman prediction is not degenerate.
func (e *Engine) dt(ts uint64) float32 {
	if !e.haveLast {
		e.haveLast = true
		e.lastTimestamp = ts
		return 1
	}
	delta := ts - e.lastTimestamp
	e.lastTimestamp = ts
	if delta == 0 {
		return 1
	}
	return float32(delta)
}

// Reset drops all tracked history, as if the engine had just started.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.storage = nil
	e.haveLast = false
}

// Tracked returns the number of contexts currently carried across passes.
func (e *Engine) Tracked() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.storage)
}
