package tracker

import (
	"context"
	"testing"

	"github.com/your-org/vpp/internal/scene"
)

func TestEngineProcessTracksFreshDetection(t *testing.T) {
	e := NewEngine()
	e.Predictor = HistoryPredictor{}

	sc := scene.New(1)
	sc.Mark(scene.NewZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10}))

	var evt Event
	e.Notify.Connect(func(v Event, status int) { evt = v })

	e.Process(context.Background(), sc)

	if e.Tracked() != 1 {
		t.Fatalf("Tracked() = %d, want 1", e.Tracked())
	}
	if len(evt.Added) != 1 {
		t.Errorf("len(Added) = %d, want 1 for a first-seen zone", len(evt.Added))
	}
}

func TestEngineProcessMatchPreservesIdentityAcrossPasses(t *testing.T) {
	e := NewEngine()
	e.Predictor = HistoryPredictor{}

	sc1 := scene.New(1)
	z1 := sc1.Mark(scene.NewZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10}))
	e.Process(context.Background(), sc1)
	trackedUUID := z1.UUID

	sc2 := scene.New(2)
	z2 := sc2.Mark(scene.NewZone(scene.BBox{X: 1, Y: 1, W: 10, H: 10}))
	e.Process(context.Background(), sc2)

	if z2.UUID != trackedUUID {
		t.Errorf("z2.UUID = %d, want the tracked identity %d carried over", z2.UUID, trackedUUID)
	}
	if e.Tracked() != 1 {
		t.Errorf("Tracked() after a matched pass = %d, want 1 (no duplicate contexts)", e.Tracked())
	}
}

func TestEngineProcessReappearsUnmatchedHistoricZone(t *testing.T) {
	e := NewEngine()
	e.Predictor = HistoryPredictor{}
	e.MaxMisses = 5

	sc1 := scene.New(1)
	sc1.Mark(scene.NewZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10}))
	e.Process(context.Background(), sc1)

	sc2 := scene.New(2) // nothing detected this pass
	e.Process(context.Background(), sc2)

	if len(sc2.Zones()) != 1 {
		t.Fatalf("len(sc2.Zones()) = %d, want 1 (the unseen tracked zone re-marked by prediction)", len(sc2.Zones()))
	}
	if e.Tracked() != 1 {
		t.Errorf("Tracked() = %d, want 1 (still within MaxMisses)", e.Tracked())
	}
}

func TestEngineProcessInvalidatesAfterMaxMisses(t *testing.T) {
	e := NewEngine()
	e.Predictor = HistoryPredictor{}
	e.MaxMisses = 1

	sc1 := scene.New(1)
	sc1.Mark(scene.NewZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10}))
	e.Process(context.Background(), sc1)

	e.Process(context.Background(), scene.New(2)) // miss 1, still tolerated

	var evt Event
	e.Notify.Connect(func(v Event, status int) { evt = v })
	e.Process(context.Background(), scene.New(3)) // miss 2, exceeds MaxMisses

	if e.Tracked() != 0 {
		t.Fatalf("Tracked() = %d, want 0 after exceeding MaxMisses", e.Tracked())
	}
	if len(evt.Removed) != 1 {
		t.Errorf("len(Removed) = %d, want 1", len(evt.Removed))
	}
}

func TestEngineResetClearsHistory(t *testing.T) {
	e := NewEngine()
	e.Predictor = HistoryPredictor{}
	sc := scene.New(1)
	sc.Mark(scene.NewZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10}))
	e.Process(context.Background(), sc)

	e.Reset()
	if e.Tracked() != 0 {
		t.Errorf("Tracked() after Reset = %d, want 0", e.Tracked())
	}
}
