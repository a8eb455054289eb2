// Package tracker implements the TrackerEngine described in §4.6: it
// carries zones across passes, predicting their motion while they go
// unseen and matching/merging them back against fresh detections.
package tracker

import "github.com/your-org/vpp/internal/scene"

// Context is one tracked identity's private history: a small stack of
// zone snapshots, front-most (index 0) always the canonical, currently
// valid estimate. Original points back at the live zone a Context was
// created from this pass, for as long as that zone is still "new" (a
// Context surviving into a later pass, continuing purely from
// prediction, has Original == nil).
type Context struct {
	UUID     uint64
	Original *scene.Zone
	// Misses counts consecutive passes this context went unmatched while
	// purely historic; the owning Engine invalidates it past MaxMisses.
	Misses int

	stack []*scene.Zone
}

// NewContext starts a Context from a freshly-detected zone, reserving
// depth slots in its stack (0 leaves it to grow as needed).
func NewContext(z *scene.Zone, depth int) *Context {
	c := &Context{UUID: z.UUID, Original: z}
	if depth > 0 {
		c.stack = make([]*scene.Zone, 0, depth)
	}
	top := c.Push(z)
	// A fresh detection is pixel-authoritative: seed its motion state
	// from the bounding box so a Predictor with no projector/depth
	// context still has a coherent centre/size to work from.
	top.State.FromMeasure(z.BBox.Measure())
	return c
}

// Push copies zone onto the top of c's stack and returns the copy.
func (c *Context) Push(z *scene.Zone) *scene.Zone {
	cp := *z
	c.stack = append(c.stack, &cp)
	return c.stack[len(c.stack)-1]
}

// Valid reports whether c has any history and its canonical (front)
// zone is itself valid.
func (c *Context) Valid() bool {
	return len(c.stack) > 0 && c.stack[0].Valid()
}

// Invalid is the complement of Valid.
func (c *Context) Invalid() bool { return !c.Valid() }

// Updated reports whether more than one zone has been stacked, i.e.
// Flatten has work to do.
func (c *Context) Updated() bool { return len(c.stack) > 1 }

// Computed returns how many predictions have accumulated atop the
// canonical zone.
func (c *Context) Computed() int { return len(c.stack) - 1 }

// Invalidate marks c's canonical zone invalid and forgets its link back
// to a live detection.
func (c *Context) Invalidate() {
	if c.Valid() {
		c.stack[0].Invalidate()
	}
	c.Original = nil
}

// Flatten collapses c's stack down to a single entry, folding each
// stacked prediction into the one beneath it via Zone.Update (so the
// surviving zone adopts the lower entry's identity and absorbs its
// predictions) until one remains.
func (c *Context) Flatten() {
	for len(c.stack) > 1 {
		latest := c.stack[len(c.stack)-1]
		prev := c.stack[len(c.stack)-2]
		latest.Update(prev, 1.0)
		c.stack = append(c.stack[:len(c.stack)-2], latest)
	}
}

// Merge folds newer into c: newer is flattened, its canonical zone is
// pushed atop c's own stack (becoming c's newest prediction), c adopts
// newer's Original pointer if it did not already have one of its own,
// and newer is invalidated and stripped of its UUID (a merged context
// carries no identity of its own any more).
func (c *Context) Merge(newer *Context) {
	newer.Flatten()
	c.Push(newer.Zone())
	if c.Original == nil {
		c.Original = newer.Original
	}
	newer.Invalidate()
	newer.UUID = 0
}

// Zone returns c's canonical (front) zone.
func (c *Context) Zone() *scene.Zone {
	return c.stack[0]
}

// At returns the zone at offset, which may be negative to index from
// the back of the stack (-1 is the most recently pushed entry).
func (c *Context) At(offset int) *scene.Zone {
	if offset < 0 {
		offset = len(c.stack) + offset
	}
	return c.stack[offset]
}

// Len reports how many zones are currently stacked.
func (c *Context) Len() int { return len(c.stack) }
