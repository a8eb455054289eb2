package scene

import "sync/atomic"

// nextUUID is the process-wide monotonic zone UUID counter. UUIDs are
// assigned on first insertion into any Scene and are never reused.
var nextUUID uint64

// ZoneFilter selects a subset of a Scene's zones.
type ZoneFilter func(*Zone) bool

// Scene is a timestamped View plus an ordered sequence of Zones: the unit
// of data flowing through one Pipeline pass.
type Scene struct {
	Timestamp uint64
	View      *View
	zones     []*Zone
}

// New returns an empty Scene stamped with ts (milliseconds since epoch).
func New(ts uint64) *Scene {
	return &Scene{Timestamp: ts, View: NewView()}
}

// Broken reports whether the scene has no view data at all.
func (s *Scene) Broken() bool {
	return s.View == nil || s.View.Empty()
}

// Empty reports whether the scene carries no zones.
func (s *Scene) Empty() bool {
	return len(s.zones) == 0
}

// Mark appends zone to the scene, assigning it a fresh UUID (if it does
// not already have one) and marking it valid. It returns the zone now
// owned by the scene.
func (s *Scene) Mark(z *Zone) *Zone {
	if z.UUID == 0 {
		z.UUID = atomic.AddUint64(&nextUUID, 1)
	}
	z.Marked = true
	s.zones = append(s.zones, z)
	return z
}

// MarkBBox is a convenience wrapper around Mark for a bare rectangle.
func (s *Scene) MarkBBox(b BBox) *Zone {
	return s.Mark(NewZone(b))
}

// Zones returns all zones currently held by the scene.
func (s *Scene) Zones() []*Zone {
	return s.zones
}

// ZonesWhere returns the subset of zones matching f.
func (s *Scene) ZonesWhere(f ZoneFilter) []*Zone {
	var out []*Zone
	for _, z := range s.zones {
		if f(z) {
			out = append(out, z)
		}
	}
	return out
}

// Extract removes and returns every zone matching f.
func (s *Scene) Extract(f ZoneFilter) []*Zone {
	var extracted, kept []*Zone
	for _, z := range s.zones {
		if f(z) {
			extracted = append(extracted, z)
		} else {
			kept = append(kept, z)
		}
	}
	s.zones = kept
	return extracted
}

// Update appends other's valid zones to s and empties other, matching the
// original's "update" semantics used to merge a Bridge's forwarded scene.
func (s *Scene) Update(other *Scene) {
	for _, z := range other.zones {
		if z.Valid() {
			s.zones = append(s.zones, z)
		}
	}
	other.zones = nil
}

// Remember returns a shallow copy of s for use as tracker history: the
// same View (images are expensive and unneeded for prediction math) and a
// copy of the zone slice (not the zones themselves, which keep their
// identity).
func (s *Scene) Remember() *Scene {
	cp := &Scene{Timestamp: s.Timestamp, View: s.View}
	cp.zones = append([]*Zone(nil), s.zones...)
	return cp
}
