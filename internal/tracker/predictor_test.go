package tracker

import (
	"testing"

	"github.com/your-org/vpp/internal/core"
	"github.com/your-org/vpp/internal/scene"
)

func TestKalmanPredictorPredictAdvancesCentreByVelocity(t *testing.T) {
	k := NewKalmanPredictor()
	z := validZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10})
	c := NewContext(z, 0)
	c.Zone().State.Velocity = [3]float32{5, 0, 0}
	// Re-seed the filter's internal state with the velocity we just set,
	// since NewContext seeds it before we mutated the zone.
	k.filterFor(c).x = stateVector(c.Zone().State)

	if status := k.Predict(c, 1.0); status != core.OK {
		t.Fatalf("Predict() = %v, want OK", status)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() after Predict = %d, want 2", c.Len())
	}
	if got := c.At(-1).State.Centre[0]; got <= c.Zone().State.Centre[0] {
		t.Errorf("predicted centre.x = %v, want it to have advanced past %v", got, c.Zone().State.Centre[0])
	}
}

func TestKalmanPredictorCorrectRespectsThreshold(t *testing.T) {
	k := NewKalmanPredictor()
	z := validZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10})
	c := NewContext(z, 0)

	if status := k.Correct(c, scene.BBox{X: 1, Y: 1, W: 10, H: 10}.Measure(), 2); status != core.NotReady {
		t.Errorf("Correct() below threshold = %v, want NotReady", status)
	}

	k.Predict(c, 1.0)
	if status := k.Correct(c, scene.BBox{X: 1, Y: 1, W: 10, H: 10}.Measure(), 2); status != core.OK {
		t.Errorf("Correct() at threshold = %v, want OK", status)
	}
}

func TestKalmanPredictorForgetDropsFilterState(t *testing.T) {
	k := NewKalmanPredictor()
	z := validZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10})
	c := NewContext(z, 0)
	k.Predict(c, 1.0)

	if _, ok := k.filters[c.UUID]; !ok {
		t.Fatal("expected a filter to exist for this UUID before Forget")
	}
	k.Forget(c.UUID)
	if _, ok := k.filters[c.UUID]; ok {
		t.Error("Forget should remove the filter entry")
	}
}

func TestHistoryPredictorPredictRestacksUnchanged(t *testing.T) {
	h := HistoryPredictor{}
	z := validZone(scene.BBox{X: 3, Y: 3, W: 10, H: 10})
	c := NewContext(z, 0)

	h.Predict(c, 1.0)
	if c.Len() != 2 {
		t.Fatalf("Len() after Predict = %d, want 2", c.Len())
	}
	if c.At(-1).BBox != c.Zone().BBox {
		t.Error("HistoryPredictor.Predict should restack the last zone unchanged")
	}
}

func TestHistoryPredictorCorrectUpdatesTopOfStack(t *testing.T) {
	h := HistoryPredictor{}
	z := validZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10})
	c := NewContext(z, 0)
	h.Predict(c, 1.0)

	measured := scene.BBox{X: 5, Y: 5, W: 10, H: 10}.Measure()
	if status := h.Correct(c, measured, 2); status != core.OK {
		t.Fatalf("Correct() = %v, want OK", status)
	}
	if c.At(-1).BBox != scene.BBoxFromMeasure(measured) {
		t.Errorf("corrected BBox = %v, want %v", c.At(-1).BBox, scene.BBoxFromMeasure(measured))
	}
}
