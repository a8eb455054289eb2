package scene

import "testing"

func TestSceneMarkAssignsUUIDOnce(t *testing.T) {
	s := New(0)
	z := NewZone(BBox{X: 0, Y: 0, W: 1, H: 1})
	s.Mark(z)
	if z.UUID == 0 {
		t.Fatal("Mark should assign a non-zero UUID")
	}
	first := z.UUID
	s.Mark(z)
	if z.UUID != first {
		t.Error("Mark should not reassign a UUID a zone already has")
	}
}

func TestSceneMarkAssignsDistinctUUIDs(t *testing.T) {
	s := New(0)
	a := s.Mark(NewZone(BBox{X: 0, Y: 0, W: 1, H: 1}))
	b := s.Mark(NewZone(BBox{X: 1, Y: 1, W: 1, H: 1}))
	if a.UUID == b.UUID {
		t.Error("distinct zones should get distinct UUIDs")
	}
}

func TestSceneExtractRemovesMatching(t *testing.T) {
	s := New(0)
	valid := s.Mark(NewZone(BBox{X: 0, Y: 0, W: 2, H: 2}))
	invalid := s.Mark(NewZone(BBox{X: 0, Y: 0, W: 2, H: 2}))
	invalid.Invalidate()

	removed := s.Extract(WhenInvalid)
	if len(removed) != 1 || removed[0] != invalid {
		t.Fatalf("Extract removed %v, want just the invalid zone", removed)
	}
	remaining := s.Zones()
	if len(remaining) != 1 || remaining[0] != valid {
		t.Fatalf("remaining zones = %v, want just the valid one", remaining)
	}
}

func TestSceneUpdateKeepsOnlyValidZonesFromOther(t *testing.T) {
	dst := New(0)
	src := New(0)
	valid := src.Mark(NewZone(BBox{X: 0, Y: 0, W: 1, H: 1}))
	invalid := src.Mark(NewZone(BBox{X: 0, Y: 0, W: 1, H: 1}))
	invalid.Invalidate()

	dst.Update(src)

	if len(dst.Zones()) != 1 || dst.Zones()[0] != valid {
		t.Fatalf("dst.Zones() = %v, want just the valid zone merged in", dst.Zones())
	}
	if len(src.Zones()) != 0 {
		t.Fatal("src should be emptied by Update")
	}
}
