package scene

import "testing"

func TestBBoxIoU(t *testing.T) {
	a := BBox{X: 0, Y: 0, W: 10, H: 10}
	b := BBox{X: 5, Y: 5, W: 10, H: 10}
	iou := a.IoU(b)
	if iou <= 0 || iou >= 1 {
		t.Fatalf("IoU = %v, want strictly between 0 and 1 for a partial overlap", iou)
	}

	c := BBox{X: 100, Y: 100, W: 10, H: 10}
	if got := a.IoU(c); got != 0 {
		t.Errorf("IoU of disjoint boxes = %v, want 0", got)
	}

	if got := a.IoU(a); got != 1 {
		t.Errorf("IoU of identical boxes = %v, want 1", got)
	}
}

func TestSortPredictionsKeepsAppendOrderOnTies(t *testing.T) {
	preds := []Prediction{
		{Score: 0.5, Dataset: 1, ID: 1},
		{Score: 0.9, Dataset: 1, ID: 2},
		{Score: 0.9, Dataset: 1, ID: 3}, // tie with the one above, appended later
	}
	SortPredictions(preds)
	if preds[0].ID != 2 || preds[1].ID != 3 {
		t.Fatalf("tie-break did not preserve append order (earlier entry stays ahead): got %+v", preds)
	}
	if preds[2].Score != 0.5 {
		t.Fatalf("lowest score should sort last: got %+v", preds)
	}
}

func TestZoneUpdateAdoptsOlderIdentityAndScalesPredictions(t *testing.T) {
	older := NewZoneWithPrediction(BBox{X: 0, Y: 0, W: 5, H: 5}, Prediction{Score: 1.0, Dataset: 1, ID: 1})
	older.UUID = 42
	older.Tag = 3
	older.Marked = true

	newer := NewZoneWithPrediction(BBox{X: 1, Y: 1, W: 5, H: 5}, Prediction{Score: 0.8, Dataset: 1, ID: 2})
	newer.Tag = 1

	newer.Update(older, 0.5)

	if newer.UUID != 42 {
		t.Errorf("UUID = %d, want adopted 42", newer.UUID)
	}
	if newer.Tag != 4 {
		t.Errorf("Tag = %d, want 1+3=4", newer.Tag)
	}
	if !older.Invalid() {
		t.Error("older zone should be invalidated after Update")
	}

	var scaled *Prediction
	for i := range newer.Predictions {
		if newer.Predictions[i].ID == 1 {
			scaled = &newer.Predictions[i]
		}
	}
	if scaled == nil {
		t.Fatal("older's prediction was not merged in")
	}
	if scaled.Score != 0.5 {
		t.Errorf("merged prediction score = %v, want 1.0*recall(0.5) = 0.5", scaled.Score)
	}
}

func TestZoneInvalidateAndValid(t *testing.T) {
	z := NewZone(BBox{X: 0, Y: 0, W: 4, H: 4})
	z.Marked = true
	if !z.Valid() {
		t.Fatal("marked zone should be valid")
	}
	z.Invalidate()
	if z.Valid() {
		t.Fatal("invalidated zone should not be valid")
	}
}

func TestZoneInvalidDegenerateBBox(t *testing.T) {
	z := NewZone(BBox{X: 0, Y: 0, W: 0, H: 0})
	z.Marked = true
	if !z.Invalid() {
		t.Fatal("zero-area zone should be invalid regardless of Marked")
	}
}
