package tracker

import (
	"testing"

	"github.com/your-org/vpp/internal/scene"
)

func validZone(b scene.BBox) *scene.Zone {
	z := scene.NewZone(b)
	z.UUID = 1
	z.Marked = true
	return z
}

func TestNewContextSeedsStateFromBBox(t *testing.T) {
	z := validZone(scene.BBox{X: 10, Y: 10, W: 20, H: 20})
	c := NewContext(z, 4)

	if c.UUID != z.UUID {
		t.Errorf("UUID = %d, want %d", c.UUID, z.UUID)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	if c.Zone().State.Centre[0] != 20 || c.Zone().State.Centre[1] != 20 {
		t.Errorf("seeded centre = %v, want (20,20)", c.Zone().State.Centre)
	}
}

func TestContextValidReflectsCanonicalZone(t *testing.T) {
	z := validZone(scene.BBox{X: 0, Y: 0, W: 5, H: 5})
	c := NewContext(z, 0)
	if !c.Valid() {
		t.Fatal("Context over a valid zone should be Valid")
	}
	c.Invalidate()
	if c.Valid() {
		t.Fatal("Context should not be Valid after Invalidate")
	}
	if c.Original != nil {
		t.Error("Invalidate should clear Original")
	}
}

func TestContextUpdatedAndComputed(t *testing.T) {
	z := validZone(scene.BBox{X: 0, Y: 0, W: 5, H: 5})
	c := NewContext(z, 0)
	if c.Updated() {
		t.Fatal("a freshly-created Context should not be Updated")
	}
	predicted := validZone(scene.BBox{X: 1, Y: 1, W: 5, H: 5})
	c.Push(predicted)
	if !c.Updated() {
		t.Fatal("Context should be Updated after a second push")
	}
	if c.Computed() != 1 {
		t.Errorf("Computed() = %d, want 1", c.Computed())
	}
}

func TestContextFlattenCollapsesStackAdoptingOlderIdentity(t *testing.T) {
	older := validZone(scene.BBox{X: 0, Y: 0, W: 10, H: 10})
	older.UUID = 42
	older.Tag = 1
	c := NewContext(older, 0)

	newer := validZone(scene.BBox{X: 2, Y: 2, W: 10, H: 10})
	newer.UUID = 99
	c.Push(newer)

	c.Flatten()

	if c.Len() != 1 {
		t.Fatalf("Len() after Flatten = %d, want 1", c.Len())
	}
	if c.Zone().UUID != 42 {
		t.Errorf("flattened zone UUID = %d, want the older identity 42", c.Zone().UUID)
	}
}

func TestContextAtSupportsNegativeOffset(t *testing.T) {
	z := validZone(scene.BBox{X: 0, Y: 0, W: 5, H: 5})
	c := NewContext(z, 0)
	second := validZone(scene.BBox{X: 1, Y: 1, W: 5, H: 5})
	c.Push(second)

	if c.At(-1) != c.At(1) {
		t.Error("At(-1) should address the same entry as At(1) in a 2-entry stack")
	}
	if c.At(0) != c.Zone() {
		t.Error("At(0) should equal Zone()")
	}
}

func TestContextMergeAdoptsOriginalAndInvalidatesNewer(t *testing.T) {
	a := validZone(scene.BBox{X: 0, Y: 0, W: 5, H: 5})
	ca := NewContext(a, 0)
	ca.Original = nil // simulate a purely historic context

	b := validZone(scene.BBox{X: 1, Y: 1, W: 5, H: 5})
	cb := NewContext(b, 0)

	ca.Merge(cb)

	if ca.Len() != 2 {
		t.Fatalf("Len() after Merge = %d, want 2 (original + merged)", ca.Len())
	}
	if ca.Original != b {
		t.Errorf("Merge should adopt newer's Original when the receiver had none")
	}
	if cb.UUID != 0 {
		t.Error("newer Context should lose its UUID after being merged away")
	}
	if cb.Valid() {
		t.Error("newer Context should be invalidated after being merged away")
	}
}
